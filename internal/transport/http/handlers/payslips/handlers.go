package paysliphandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/domain/payslip"
	"hrcore/internal/platform/jobs"
	"hrcore/internal/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
)

type Handler struct {
	Service *payslip.Service
	Jobs    *jobs.Service
}

func NewHandler(service *payslip.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payslips", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/my", h.handleListMine)
		r.Get("/{payslipID}/download", h.handleDownload)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(access.PermProcessPayroll))
			r.Post("/generate", h.handleGenerate)
			r.Post("/{payslipID}/email", h.handleSendEmail)
			r.Post("/send-all", h.handleSendAll)
		})
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, action string) {
	requestID := requestctx.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payslip.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, payslip.ErrFileNotFound):
		api.Fail(w, http.StatusNotFound, "file_not_found", "payslip file not found", requestID)
	case errors.Is(err, payslip.ErrNotFound), errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", requestID)
	case errors.Is(err, payslip.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "payroll must be processed before a payslip is issued", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", action+" failed", requestID)
	}
}

type generateRequest struct {
	PayrollID string `json:"payrollId"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var payload generateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PayrollID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "payrollId is required", requestID)
		return
	}

	slip, err := h.Service.Generate(r.Context(), actor, payload.PayrollID)
	if err != nil {
		h.fail(w, r, err, "generate payslip")
		return
	}
	api.Created(w, slip, requestID)
}

// handleSendEmail queues the delivery so the request returns immediately;
// the send itself runs on the background worker.
func (h *Handler) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	payslipID := chi.URLParam(r, "payslipID")

	if _, err := h.Service.Store.GetByID(r.Context(), payslipID); err != nil {
		h.fail(w, r, err, "queue payslip email")
		return
	}

	h.Jobs.Enqueue(jobs.JobPayslipEmail, func(ctx context.Context) (any, error) {
		sent, err := h.Service.SendEmail(ctx, payslipID)
		return map[string]any{"sent": sent}, err
	})
	api.Success(w, map[string]string{"status": "queued"}, requestID)
}

type sendAllRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (h *Handler) handleSendAll(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload sendAllRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "invalid request body", requestID)
		return
	}
	if payload.Month < 1 || payload.Month > 12 {
		api.Fail(w, http.StatusBadRequest, "validation_error", "year and month are required", requestID)
		return
	}
	period := payroll.PeriodKey{Year: payload.Year, Month: payload.Month}

	h.Jobs.Enqueue(jobs.JobPayslipEmail, func(ctx context.Context) (any, error) {
		sent, failed, err := h.Service.SendAll(ctx, period)
		return map[string]any{"sent": sent, "failed": failed}, err
	})
	api.Success(w, map[string]string{"status": "queued"}, requestID)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	if actor.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record for user", requestID)
		return
	}

	limit := 24
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	slips, err := h.Service.ListForEmployee(r.Context(), actor, actor.EmployeeID, limit, offset)
	if err != nil {
		h.fail(w, r, err, "list payslips")
		return
	}
	api.Success(w, slips, requestID)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())

	data, slip, err := h.Service.Download(r.Context(), actor, chi.URLParam(r, "payslipID"))
	if err != nil {
		h.fail(w, r, err, "download payslip")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+slip.Number+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

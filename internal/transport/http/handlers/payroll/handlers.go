package payrollhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
)

type Handler struct {
	Service *payroll.Service
}

func NewHandler(service *payroll.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/my", h.handleListMine)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(access.PermProcessPayroll))
			r.Get("/", h.handleListForPeriod)
			r.Get("/{payrollID}", h.handleGet)
			r.Post("/compute", h.handleCompute)
			r.Post("/run", h.handleRun)
			r.Post("/{payrollID}/process", h.handleProcess)
			r.Post("/{payrollID}/paid", h.handleMarkPaid)
		})
	})
}

func periodFrom(year, month string) (payroll.PeriodKey, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 2000 || y > 2200 {
		return payroll.PeriodKey{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return payroll.PeriodKey{}, false
	}
	return payroll.PeriodKey{Year: y, Month: m}, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, action string) {
	requestID := requestctx.GetRequestID(r.Context())
	var validation *payroll.ValidationError
	switch {
	case errors.As(err, &validation):
		api.Fail(w, http.StatusUnprocessableEntity, "validation_error", validation.Error(), requestID)
	case errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestID)
	case errors.Is(err, payroll.ErrAlreadyProcessed):
		api.Fail(w, http.StatusConflict, "already_processed", "payroll has already been processed", requestID)
	case errors.Is(err, payroll.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "payroll is not in the required state", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", action+" failed", requestID)
	}
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

	records, err := h.Service.Store.ListForEmployee(r.Context(), actor.EmployeeID, limit, offset)
	if err != nil {
		h.fail(w, r, err, "list payrolls")
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) handleListForPeriod(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	period, ok := periodFrom(r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "validation_error", "year and month query parameters are required", requestID)
		return
	}

	records, err := h.Service.Store.ListForPeriod(r.Context(), period)
	if err != nil {
		h.fail(w, r, err, "list payrolls")
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	record, err := h.Service.Store.GetByID(r.Context(), chi.URLParam(r, "payrollID"))
	if err != nil {
		h.fail(w, r, err, "get payroll")
		return
	}
	api.Success(w, record, requestID)
}

type computeRequest struct {
	EmployeeID string `json:"employeeId"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

func (h *Handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload computeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "invalid request body", requestID)
		return
	}
	period, ok := periodFrom(strconv.Itoa(payload.Year), strconv.Itoa(payload.Month))
	if !ok || payload.EmployeeID == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "employeeId, year and month are required", requestID)
		return
	}

	record, err := h.Service.ComputeForEmployee(r.Context(), payload.EmployeeID, period)
	if err != nil {
		var validation *payroll.ValidationError
		if errors.As(err, &validation) {
			// The draft breakdown is returned alongside the failure so the
			// operator can see what overdrew the net pay.
			api.WriteJSON(w, http.StatusUnprocessableEntity, api.Envelope{
				Success:   false,
				Data:      record,
				Error:     &api.Error{Code: "validation_error", Message: validation.Error()},
				RequestID: requestID,
			})
			return
		}
		h.fail(w, r, err, "compute payroll")
		return
	}
	api.Success(w, record, requestID)
}

type runRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload runRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "invalid request body", requestID)
		return
	}
	period, ok := periodFrom(strconv.Itoa(payload.Year), strconv.Itoa(payload.Month))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "validation_error", "year and month are required", requestID)
		return
	}

	result, err := h.Service.RunPeriod(r.Context(), period)
	if err != nil {
		h.fail(w, r, err, "run payroll")
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	record, err := h.Service.Process(r.Context(), chi.URLParam(r, "payrollID"), actor.UserID)
	if err != nil {
		h.fail(w, r, err, "process payroll")
		return
	}
	api.Success(w, record, requestID)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	payrollID := chi.URLParam(r, "payrollID")

	if err := h.Service.MarkPaid(r.Context(), payrollID); err != nil {
		h.fail(w, r, err, "mark payroll paid")
		return
	}
	api.Success(w, map[string]string{"id": payrollID, "status": payroll.StatusPaid}, requestID)
}

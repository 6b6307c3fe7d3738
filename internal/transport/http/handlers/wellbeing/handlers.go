package wellbeinghandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/wellbeing"
	"hrcore/internal/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
)

type Handler struct {
	Service *wellbeing.Service
}

func NewHandler(service *wellbeing.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/wellbeing", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/responses", h.handleSubmit)
		r.Get("/responses", h.handleList)
		r.Get("/responses/{responseID}", h.handleGet)
		r.With(middleware.RequirePermission(access.PermAccessWellbeingReports)).Get("/report", h.handleReport)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var payload wellbeing.Response
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "invalid request body", requestID)
		return
	}

	response, err := h.Service.Submit(r.Context(), actor, payload)
	if err != nil {
		if errors.Is(err, wellbeing.ErrForbidden) {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
		return
	}
	api.Created(w, response, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	from := parseDate(r.URL.Query().Get("from"))
	to := parseDate(r.URL.Query().Get("to"))

	result, err := h.Service.List(r.Context(), actor, from, to, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "list wellbeing responses failed", requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	response, err := h.Service.Get(r.Context(), actor, chi.URLParam(r, "responseID"))
	if err != nil {
		switch {
		case errors.Is(err, wellbeing.ErrForbidden):
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
		case errors.Is(err, wellbeing.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "wellbeing response not found", requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "internal_error", "get wellbeing response failed", requestID)
		}
		return
	}
	api.Success(w, response, requestID)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	to := time.Now().UTC()
	from := to.AddDate(0, -3, 0)
	if v := parseDate(r.URL.Query().Get("from")); v != nil {
		from = *v
	}
	if v := parseDate(r.URL.Query().Get("to")); v != nil {
		to = *v
	}

	report, err := h.Service.ReportFor(r.Context(), actor, from, to)
	if err != nil {
		if errors.Is(err, wellbeing.ErrForbidden) {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "internal_error", "wellbeing report failed", requestID)
		return
	}
	api.Success(w, report, requestID)
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &parsed
}

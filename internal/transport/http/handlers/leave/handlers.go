package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/leave"
	"hrcore/internal/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
)

type Handler struct {
	Service *leave.Service
}

func NewHandler(service *leave.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave/requests", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{requestID}", h.handleGet)
		r.Put("/{requestID}", h.handleUpdate)
		r.Delete("/{requestID}", h.handleDelete)
		r.Post("/{requestID}/approve", h.handleApprove)
		r.Post("/{requestID}/reject", h.handleReject)
	})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, action string) {
	requestID := requestctx.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "leave request is not in a modifiable state", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", action+" failed", requestID)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	limit, offset := pagination(r)

	result, err := h.Service.List(r.Context(), actor, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		h.fail(w, r, err, "list leave requests")
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	request, err := h.Service.Get(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		h.fail(w, r, err, "get leave request")
		return
	}
	api.Success(w, request, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var payload leave.RequestInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "invalid request body", requestID)
		return
	}

	request, err := h.Service.Create(r.Context(), actor, payload)
	if err != nil {
		if errors.Is(err, leave.ErrForbidden) || errors.Is(err, leave.ErrNotFound) {
			h.fail(w, r, err, "create leave request")
			return
		}
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
		return
	}
	api.Created(w, request, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var payload leave.RequestInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "invalid request body", requestID)
		return
	}

	request, err := h.Service.Update(r.Context(), actor, chi.URLParam(r, "requestID"), payload)
	if err != nil {
		if errors.Is(err, leave.ErrForbidden) || errors.Is(err, leave.ErrNotFound) || errors.Is(err, leave.ErrInvalidState) {
			h.fail(w, r, err, "update leave request")
			return
		}
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
		return
	}
	api.Success(w, request, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	if err := h.Service.Delete(r.Context(), actor, chi.URLParam(r, "requestID")); err != nil {
		h.fail(w, r, err, "delete leave request")
		return
	}
	api.Success(w, map[string]bool{"deleted": true}, requestID)
}

type decisionRequest struct {
	Comment string `json:"comment"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.Service.Reject)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request,
	decide func(context.Context, access.Actor, string, string) (leave.Request, error)) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var payload decisionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	request, err := decide(r.Context(), actor, chi.URLParam(r, "requestID"), payload.Comment)
	if err != nil {
		h.fail(w, r, err, "decide leave request")
		return
	}
	api.Success(w, request, requestID)
}

package employeeshandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/org"
	"hrcore/internal/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
)

type Handler struct {
	Store *org.Store
	Audit *audit.Service
}

func NewHandler(store *org.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(access.PermManageEmployees)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(access.PermManageEmployees)).Put("/{employeeID}/supervisor", h.handleReassignSupervisor)
		r.With(middleware.RequirePermission(access.PermManageEmployees)).Delete("/{employeeID}", h.handleTerminate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	employees, err := h.Store.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "list employees failed", requestID)
		return
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	employee, err := h.Store.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "internal_error", "get employee failed", requestID)
		return
	}
	api.Success(w, employee, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var payload org.Employee
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "invalid request body", requestID)
		return
	}
	if payload.FirstName == "" || payload.LastName == "" || payload.Email == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "firstName, lastName and email are required", requestID)
		return
	}

	id, err := h.Store.Create(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "create employee failed", requestID)
		return
	}
	if h.Audit != nil {
		_ = h.Audit.Record(r.Context(), actor.UserID, "employee.create", "employee", id, requestID, nil)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

type reassignRequest struct {
	SupervisorID string `json:"supervisorId"`
}

func (h *Handler) handleReassignSupervisor(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	var payload reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "invalid request body", requestID)
		return
	}
	if payload.SupervisorID == employeeID {
		api.Fail(w, http.StatusBadRequest, "validation_error", "an employee cannot supervise themselves", requestID)
		return
	}

	if err := h.Store.ReassignSupervisor(r.Context(), employeeID, payload.SupervisorID); err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "internal_error", "reassign supervisor failed", requestID)
		return
	}
	if h.Audit != nil {
		_ = h.Audit.Record(r.Context(), actor.UserID, "employee.reassign_supervisor", "employee", employeeID, requestID,
			map[string]any{"supervisorId": payload.SupervisorID})
	}
	api.Success(w, map[string]string{"id": employeeID}, requestID)
}

func (h *Handler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	if err := h.Store.Terminate(r.Context(), employeeID); err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "internal_error", "terminate employee failed", requestID)
		return
	}
	if h.Audit != nil {
		_ = h.Audit.Record(r.Context(), actor.UserID, "employee.terminate", "employee", employeeID, requestID, nil)
	}
	api.Success(w, map[string]string{"id": employeeID}, requestID)
}

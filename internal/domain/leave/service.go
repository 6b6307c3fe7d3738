package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/notifications"
	"hrcore/internal/domain/org"
	"hrcore/internal/requestctx"
)

var ErrForbidden = errors.New("forbidden")

type Service struct {
	Store    *Store
	Org      *org.Store
	Audit    *audit.Service
	Notifier *notifications.Service
}

func NewService(store *Store, orgStore *org.Store, auditSvc *audit.Service, notifier *notifications.Service) *Service {
	return &Service{Store: store, Org: orgStore, Audit: auditSvc, Notifier: notifier}
}

type RequestInput struct {
	EmployeeID string    `json:"employeeId,omitempty"`
	LeaveType  string    `json:"leaveType"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	StartHalf  bool      `json:"startHalf"`
	EndHalf    bool      `json:"endHalf"`
	Reason     string    `json:"reason"`
}

type ListResult struct {
	Requests []Request `json:"requests"`
	Total    int       `json:"total"`
}

func (s *Service) target(r Request) access.Target {
	return access.Target{
		EmployeeID:  r.EmployeeID,
		OwnerUserID: r.ownerUserID,
		Pending:     r.Pending(),
	}
}

// List returns the requests the actor may see. Scoping happens in the
// query itself, so a page is always a page of visible rows.
func (s *Service) List(ctx context.Context, actor access.Actor, status string, limit, offset int) (ListResult, error) {
	filter := access.VisibilityFilter(actor, "e", boundArgs(status))
	requests, total, err := s.Store.List(ctx, filter, status, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Requests: requests, Total: total}, nil
}

func boundArgs(status string) int {
	if status != "" {
		return 1
	}
	return 0
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (Request, error) {
	request, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	dir, err := s.Org.LoadDirectory(ctx)
	if err != nil {
		return Request{}, err
	}
	if !access.Decide(actor, access.OpView, s.target(request), dir) {
		return Request{}, ErrForbidden
	}
	return request, nil
}

// Create files a leave request. Staff file for themselves; an unrestricted
// actor may file on another employee's behalf.
func (s *Service) Create(ctx context.Context, actor access.Actor, in RequestInput) (Request, error) {
	employeeID := in.EmployeeID
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}
	if employeeID == "" {
		return Request{}, fmt.Errorf("no employee record for requesting user")
	}

	employee, err := s.Org.Get(ctx, employeeID)
	if err != nil {
		return Request{}, err
	}
	dir, err := s.Org.LoadDirectory(ctx)
	if err != nil {
		return Request{}, err
	}
	target := access.Target{EmployeeID: employee.ID, OwnerUserID: employee.UserID, Pending: true}
	if !access.Decide(actor, access.OpCreate, target, dir) {
		return Request{}, ErrForbidden
	}

	days, err := CalculateRequestDays(in.StartDate, in.EndDate, in.StartHalf, in.EndHalf)
	if err != nil {
		return Request{}, err
	}

	request := Request{
		EmployeeID: employeeID,
		LeaveType:  in.LeaveType,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		StartHalf:  in.StartHalf,
		EndHalf:    in.EndHalf,
		Days:       days,
		Reason:     in.Reason,
		Status:     StatusPending,
	}
	if err := s.Store.Insert(ctx, &request); err != nil {
		return Request{}, err
	}
	request.ownerUserID = employee.UserID

	s.record(ctx, actor, "leave.create", request.ID, map[string]any{"employeeId": employeeID, "days": days})
	return request, nil
}

// Update edits a request while it is still pending.
func (s *Service) Update(ctx context.Context, actor access.Actor, id string, in RequestInput) (Request, error) {
	request, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	dir, err := s.Org.LoadDirectory(ctx)
	if err != nil {
		return Request{}, err
	}
	if !access.Decide(actor, access.OpUpdate, s.target(request), dir) {
		return Request{}, ErrForbidden
	}

	days, err := CalculateRequestDays(in.StartDate, in.EndDate, in.StartHalf, in.EndHalf)
	if err != nil {
		return Request{}, err
	}

	request.LeaveType = in.LeaveType
	request.StartDate = in.StartDate
	request.EndDate = in.EndDate
	request.StartHalf = in.StartHalf
	request.EndHalf = in.EndHalf
	request.Days = days
	request.Reason = in.Reason
	if err := s.Store.Update(ctx, &request); err != nil {
		return Request{}, err
	}

	s.record(ctx, actor, "leave.update", request.ID, map[string]any{"days": days})
	return request, nil
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	request, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	dir, err := s.Org.LoadDirectory(ctx)
	if err != nil {
		return err
	}
	if !access.Decide(actor, access.OpDelete, s.target(request), dir) {
		return ErrForbidden
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "leave.delete", id, nil)
	return nil
}

func (s *Service) Approve(ctx context.Context, actor access.Actor, id, comment string) (Request, error) {
	return s.decide(ctx, actor, id, StatusApproved, comment)
}

func (s *Service) Reject(ctx context.Context, actor access.Actor, id, comment string) (Request, error) {
	return s.decide(ctx, actor, id, StatusRejected, comment)
}

func (s *Service) decide(ctx context.Context, actor access.Actor, id, status, comment string) (Request, error) {
	request, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	dir, err := s.Org.LoadDirectory(ctx)
	if err != nil {
		return Request{}, err
	}
	if !access.Decide(actor, access.OpApprove, s.target(request), dir) {
		return Request{}, ErrForbidden
	}
	if !request.Pending() {
		return Request{}, ErrInvalidState
	}

	if err := s.Store.SetDecision(ctx, id, status, actor.UserID, comment); err != nil {
		return Request{}, err
	}

	s.record(ctx, actor, "leave."+status, id, map[string]any{"comment": comment})
	s.notifyDecision(ctx, request, status, comment)

	return s.Store.Get(ctx, id)
}

func (s *Service) notifyDecision(ctx context.Context, request Request, status, comment string) {
	if s.Notifier == nil || request.ownerUserID == "" {
		return
	}
	ntype := notifications.TypeLeaveApproved
	title := "Leave request approved"
	if status == StatusRejected {
		ntype = notifications.TypeLeaveRejected
		title = "Leave request rejected"
	}
	body := fmt.Sprintf("Your %s leave request for %s to %s was %s.",
		request.LeaveType,
		request.StartDate.Format("2006-01-02"),
		request.EndDate.Format("2006-01-02"),
		status)
	if comment != "" {
		body += " Comment: " + comment
	}
	_ = s.Notifier.Create(ctx, request.ownerUserID, ntype, title, body)
}

func (s *Service) record(ctx context.Context, actor access.Actor, action, targetID string, details any) {
	if s.Audit == nil {
		return
	}
	_ = s.Audit.Record(ctx, actor.UserID, action, "leave_request", targetID, requestctx.GetRequestID(ctx), details)
}

package wellbeing

import (
	"context"
	"errors"
	"time"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/org"
	"hrcore/internal/requestctx"
)

var ErrForbidden = errors.New("forbidden")

type Service struct {
	Store *Store
	Org   *org.Store
	Audit *audit.Service
}

func NewService(store *Store, orgStore *org.Store, auditSvc *audit.Service) *Service {
	return &Service{Store: store, Org: orgStore, Audit: auditSvc}
}

type ListResult struct {
	Responses []Response `json:"responses"`
	Total     int        `json:"total"`
}

// Submit records a check-in for the actor's own employee record.
func (s *Service) Submit(ctx context.Context, actor access.Actor, r Response) (Response, error) {
	if actor.EmployeeID == "" {
		return Response{}, ErrForbidden
	}
	r.EmployeeID = actor.EmployeeID
	if err := r.Validate(); err != nil {
		return Response{}, err
	}
	if err := s.Store.Insert(ctx, &r); err != nil {
		return Response{}, err
	}
	if s.Audit != nil {
		_ = s.Audit.Record(ctx, actor.UserID, "wellbeing.submit", "wellbeing_response", r.ID,
			requestctx.GetRequestID(ctx), nil)
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (Response, error) {
	response, err := s.Store.Get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	dir, err := s.Org.LoadDirectory(ctx)
	if err != nil {
		return Response{}, err
	}
	target := access.Target{EmployeeID: response.EmployeeID, OwnerUserID: response.ownerUserID}
	if !access.Decide(actor, access.OpView, target, dir) {
		return Response{}, ErrForbidden
	}
	return response, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, from, to *time.Time, limit, offset int) (ListResult, error) {
	offsetArgs := 0
	if from != nil {
		offsetArgs++
	}
	if to != nil {
		offsetArgs++
	}
	filter := access.VisibilityFilter(actor, "e", offsetArgs)
	responses, total, err := s.Store.List(ctx, filter, from, to, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Responses: responses, Total: total}, nil
}

// ReportFor aggregates in-scope responses over a window. The permission
// gates access to aggregates at all; the visibility filter keeps a
// manager's report inside their own chain.
func (s *Service) ReportFor(ctx context.Context, actor access.Actor, from, to time.Time) (Report, error) {
	if !actor.Can(access.PermAccessWellbeingReports) {
		return Report{}, ErrForbidden
	}
	filter := access.VisibilityFilter(actor, "e", 2)
	responses, err := s.Store.ListForReport(ctx, filter, from, to)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(responses), nil
}

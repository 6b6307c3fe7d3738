package payslip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/notifications"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/platform/email"
	"hrcore/internal/platform/storage"
	"hrcore/internal/requestctx"
)

type Service struct {
	Store       StoreAPI
	Payroll     PayrollAPI
	Org         OrgAPI
	Files       *storage.Service
	Mailer      email.Mailer
	Audit       *audit.Service
	Notifier    NotifierAPI
	CompanyName string
	From        string
}

// Generate issues the payslip for a processed payroll. Generation is
// idempotent per payroll: a second call returns the existing document, and
// a concurrent race is settled by the unique constraint.
func (s *Service) Generate(ctx context.Context, actor access.Actor, payrollID string) (Payslip, error) {
	record, err := s.Payroll.GetByID(ctx, payrollID)
	if err != nil {
		return Payslip{}, err
	}
	if !CanGenerate(record.Status) {
		return Payslip{}, ErrInvalidState
	}

	if existing, err := s.Store.GetByPayrollID(ctx, payrollID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Payslip{}, err
	}

	employee, err := s.Org.Get(ctx, record.EmployeeID)
	if err != nil {
		return Payslip{}, err
	}

	number := NewNumber(record.Period())
	slip := Payslip{
		PayrollID:  payrollID,
		EmployeeID: record.EmployeeID,
		Number:     number,
		Data:       NewSnapshot(s.CompanyName, number, employee, record),
	}
	if err := s.Store.Insert(ctx, &slip); err != nil {
		if payroll.IsUniqueViolation(err) {
			return s.Store.GetByPayrollID(ctx, payrollID)
		}
		return Payslip{}, err
	}

	if err := s.writeDocument(ctx, &slip); err != nil {
		return Payslip{}, err
	}

	s.record(ctx, actor.UserID, "payslip.generate", slip.ID, map[string]any{"payslipNumber": number})
	return slip, nil
}

// writeDocument renders the PDF into the temp area and promotes it with a
// rename, so the permanent area never holds a half-written file.
func (s *Service) writeDocument(ctx context.Context, slip *Payslip) error {
	data, err := Render(slip.Data)
	if err != nil {
		return err
	}
	tempPath, err := s.Files.WriteTemp(slip.Number+".pdf", data)
	if err != nil {
		return err
	}
	path, err := s.Files.Promote(tempPath)
	if err != nil {
		return err
	}
	if err := s.Store.SetFilePath(ctx, slip.ID, path); err != nil {
		return err
	}
	slip.FilePath = path
	return nil
}

// ensureFile regenerates the document from its snapshot when the stored
// file has gone missing.
func (s *Service) ensureFile(ctx context.Context, slip *Payslip) error {
	if slip.FilePath != "" && s.Files.Exists(slip.FilePath) {
		return nil
	}
	slog.Warn("payslip file missing, regenerating", "payslipId", slip.ID, "path", slip.FilePath)
	return s.writeDocument(ctx, slip)
}

// SendEmail delivers the payslip to the employee's address. The emailed
// flags move only after the mailer accepts the message; a false return
// means the payslip is untouched and the send can be retried.
func (s *Service) SendEmail(ctx context.Context, payslipID string) (bool, error) {
	slip, err := s.Store.GetByID(ctx, payslipID)
	if err != nil {
		return false, err
	}
	if slip.Data.Email == "" {
		return false, fmt.Errorf("payslip %s: employee has no email address", slip.Number)
	}
	if err := s.ensureFile(ctx, &slip); err != nil {
		return false, err
	}
	data, err := s.Files.Read(slip.FilePath)
	if err != nil {
		return false, err
	}

	msg := email.Message{
		From:    s.From,
		To:      slip.Data.Email,
		Subject: fmt.Sprintf("Payslip %s for %s", slip.Number, slip.Data.Period),
		Body: fmt.Sprintf("Dear %s,\n\nPlease find attached your payslip for %s.\n\n%s",
			slip.Data.EmployeeName, slip.Data.Period, s.CompanyName),
		Attachments: []email.Attachment{{
			Filename: slip.Number + ".pdf",
			Data:     data,
		}},
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return false, err
	}

	if err := s.Store.MarkEmailed(ctx, slip.ID); err != nil {
		return true, err
	}
	s.notifyEmailed(ctx, slip)
	return true, nil
}

// notifyEmailed records an in-app notification once the send is complete.
// Best effort: a failure here never un-sends the email.
func (s *Service) notifyEmailed(ctx context.Context, slip Payslip) {
	if s.Notifier == nil {
		return
	}
	employee, err := s.Org.Get(ctx, slip.EmployeeID)
	if err != nil {
		slog.Warn("payslip notification lookup failed", "payslipId", slip.ID, "err", err)
		return
	}
	if err := s.Notifier.Create(ctx, employee.UserID, notifications.TypePayslipEmailed,
		"Payslip "+slip.Number+" sent",
		fmt.Sprintf("Your payslip for %s was emailed to %s.", slip.Data.Period, slip.Data.Email)); err != nil {
		slog.Warn("payslip notification failed", "payslipId", slip.ID, "err", err)
	}
}

// SendAll emails every payslip of a period sequentially, continuing past
// individual failures.
func (s *Service) SendAll(ctx context.Context, period payroll.PeriodKey) (sent, failed int, err error) {
	slips, err := s.Store.ListForPeriod(ctx, period.Year, period.Month)
	if err != nil {
		return 0, 0, err
	}
	for _, slip := range slips {
		ok, sendErr := s.SendEmail(ctx, slip.ID)
		if ok {
			sent++
			continue
		}
		failed++
		slog.Warn("payslip email failed", "payslipId", slip.ID, "err", sendErr)
	}
	slog.Info("payslip batch send finished", "period", period.String(), "sent", sent, "failed", failed)
	return sent, failed, nil
}

// Download returns the document bytes for an authorized actor. A missing
// file is reported as not found, distinct from an authorization denial.
func (s *Service) Download(ctx context.Context, actor access.Actor, payslipID string) ([]byte, Payslip, error) {
	slip, err := s.Store.GetByID(ctx, payslipID)
	if err != nil {
		return nil, Payslip{}, err
	}
	if !s.canAccess(actor, slip) {
		return nil, Payslip{}, ErrForbidden
	}
	if slip.FilePath == "" || !s.Files.Exists(slip.FilePath) {
		return nil, Payslip{}, ErrFileNotFound
	}
	data, err := s.Files.Read(slip.FilePath)
	if err != nil {
		return nil, Payslip{}, err
	}
	if err := s.Store.MarkDownloaded(ctx, slip.ID); err != nil {
		return nil, Payslip{}, err
	}
	s.record(ctx, actor.UserID, "payslip.download", slip.ID, nil)
	return data, slip, nil
}

func (s *Service) ListForEmployee(ctx context.Context, actor access.Actor, employeeID string, limit, offset int) ([]Payslip, error) {
	if !s.canAccess(actor, Payslip{EmployeeID: employeeID}) {
		return nil, ErrForbidden
	}
	return s.Store.ListForEmployee(ctx, employeeID, limit, offset)
}

// canAccess allows the owning employee and payroll operators.
func (s *Service) canAccess(actor access.Actor, slip Payslip) bool {
	if actor.Unrestricted() || actor.Can(access.PermProcessPayroll) {
		return true
	}
	return actor.EmployeeID != "" && actor.EmployeeID == slip.EmployeeID &&
		actor.Can(access.PermViewMyPayslips)
}

// CleanupTemp removes stale temp files, never touching a file that is some
// payslip's stored copy.
func (s *Service) CleanupTemp(ctx context.Context, maxAge time.Duration) (int, error) {
	paths, err := s.Store.FilePaths(ctx)
	if err != nil {
		return 0, err
	}
	protected := make(map[string]bool, len(paths))
	for _, path := range paths {
		protected[path] = true
	}
	return s.Files.CleanupTemp(maxAge, protected)
}

func (s *Service) record(ctx context.Context, actorID, action, targetID string, details any) {
	if s.Audit == nil {
		return
	}
	_ = s.Audit.Record(ctx, actorID, action, "payslip", targetID, requestctx.GetRequestID(ctx), details)
}

package payslip

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"hrcore/internal/domain/access"
	"hrcore/internal/domain/org"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/platform/email"
	"hrcore/internal/platform/storage"
)

type fakeStore struct {
	byID      map[string]*Payslip
	byPayroll map[string]*Payslip
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]*Payslip{}, byPayroll: map[string]*Payslip{}}
}

func (f *fakeStore) Insert(_ context.Context, p *Payslip) error {
	if _, dup := f.byPayroll[p.PayrollID]; dup {
		return errors.New("duplicate payroll_id")
	}
	f.nextID++
	p.ID = fmt.Sprintf("ps-%d", f.nextID)
	clone := *p
	f.byID[p.ID] = &clone
	f.byPayroll[p.PayrollID] = &clone
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (Payslip, error) {
	if p, ok := f.byID[id]; ok {
		return *p, nil
	}
	return Payslip{}, ErrNotFound
}

func (f *fakeStore) GetByPayrollID(_ context.Context, payrollID string) (Payslip, error) {
	if p, ok := f.byPayroll[payrollID]; ok {
		return *p, nil
	}
	return Payslip{}, ErrNotFound
}

func (f *fakeStore) ListForEmployee(_ context.Context, employeeID string, _, _ int) ([]Payslip, error) {
	var out []Payslip
	for _, p := range f.byID {
		if p.EmployeeID == employeeID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListForPeriod(_ context.Context, _, _ int) ([]Payslip, error) {
	var out []Payslip
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) SetFilePath(_ context.Context, id, path string) error {
	f.byID[id].FilePath = path
	return nil
}

func (f *fakeStore) MarkEmailed(_ context.Context, id string) error {
	f.byID[id].IsEmailed = true
	return nil
}

func (f *fakeStore) MarkDownloaded(_ context.Context, id string) error {
	f.byID[id].IsDownloaded = true
	return nil
}

func (f *fakeStore) FilePaths(_ context.Context) ([]string, error) {
	var out []string
	for _, p := range f.byID {
		if p.FilePath != "" {
			out = append(out, p.FilePath)
		}
	}
	return out, nil
}

type fakePayroll struct {
	records map[string]payroll.Record
}

func (f *fakePayroll) GetByID(_ context.Context, id string) (payroll.Record, error) {
	if r, ok := f.records[id]; ok {
		return r, nil
	}
	return payroll.Record{}, payroll.ErrNotFound
}

type fakeOrg struct {
	employees map[string]org.Employee
}

func (f *fakeOrg) Get(_ context.Context, id string) (org.Employee, error) {
	if e, ok := f.employees[id]; ok {
		return e, nil
	}
	return org.Employee{}, org.ErrNotFound
}

type fakeNotifier struct {
	created []string // "userID/type"
}

func (f *fakeNotifier) Create(_ context.Context, userID, ntype, _, _ string) error {
	f.created = append(f.created, userID+"/"+ntype)
	return nil
}

type fakeMailer struct {
	fail bool
	sent []email.Message
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestService(t *testing.T, status string) (*Service, *fakeStore, *fakeMailer) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.New(filepath.Join(dir, "payslips"), filepath.Join(dir, "temp"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc := &Service{
		Store: store,
		Payroll: &fakePayroll{records: map[string]payroll.Record{
			"pr-1": {
				ID: "pr-1", EmployeeID: "emp-1", PeriodYear: 2026, PeriodMonth: 3,
				BasicSalary: 50000, TotalAllowances: 7000, GrossPay: 57000,
				PAYETax: 6000, NHIFDeduction: 500, TotalDeductions: 6500, NetPay: 50500,
				Status: status,
			},
		}},
		Org: &fakeOrg{employees: map[string]org.Employee{
			"emp-1": {ID: "emp-1", UserID: "user-1", FirstName: "Amina", LastName: "Odhiambo",
				Email: "amina@example.com", EmployeeNo: "E-001"},
		}},
		Files:       files,
		Mailer:      mailer,
		Notifier:    &fakeNotifier{},
		CompanyName: "Example Ltd",
		From:        "payroll@example.com",
	}
	return svc, store, mailer
}

func operator() access.Actor {
	return access.NewActor("user-ops", "emp-ops", []string{access.RoleExecutive})
}

func TestGenerateRequiresProcessedPayroll(t *testing.T) {
	svc, _, _ := newTestService(t, payroll.StatusDraft)
	if _, err := svc.Generate(context.Background(), operator(), "pr-1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for draft payroll, got %v", err)
	}
}

func TestGenerateWritesDocument(t *testing.T) {
	svc, _, _ := newTestService(t, payroll.StatusProcessed)

	slip, err := svc.Generate(context.Background(), operator(), "pr-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if slip.Number == "" {
		t.Fatal("payslip number must not be empty")
	}
	if slip.FilePath == "" || !svc.Files.Exists(slip.FilePath) {
		t.Fatalf("document not written at %q", slip.FilePath)
	}
	if svc.Files.InTemp(slip.FilePath) {
		t.Fatalf("document left in temp area: %q", slip.FilePath)
	}
	if slip.Data.NetPay != 50500 {
		t.Fatalf("snapshot net pay = %v, want 50500", slip.Data.NetPay)
	}

	again, err := svc.Generate(context.Background(), operator(), "pr-1")
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if again.ID != slip.ID {
		t.Fatalf("second Generate created a new payslip %s, want %s", again.ID, slip.ID)
	}
}

func TestSendEmailSetsFlagsOnSuccessOnly(t *testing.T) {
	svc, store, mailer := newTestService(t, payroll.StatusProcessed)
	slip, err := svc.Generate(context.Background(), operator(), "pr-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	mailer.fail = true
	sent, err := svc.SendEmail(context.Background(), slip.ID)
	if sent || err == nil {
		t.Fatalf("expected failed send, got sent=%v err=%v", sent, err)
	}
	if store.byID[slip.ID].IsEmailed {
		t.Fatal("failed send must not set is_emailed")
	}
	notifier := svc.Notifier.(*fakeNotifier)
	if len(notifier.created) != 0 {
		t.Fatalf("failed send must not notify, got %v", notifier.created)
	}

	mailer.fail = false
	sent, err = svc.SendEmail(context.Background(), slip.ID)
	if !sent || err != nil {
		t.Fatalf("send: sent=%v err=%v", sent, err)
	}
	if !store.byID[slip.ID].IsEmailed {
		t.Fatal("successful send must set is_emailed")
	}
	if len(mailer.sent) != 1 || len(mailer.sent[0].Attachments) != 1 {
		t.Fatalf("expected one message with one attachment, got %+v", mailer.sent)
	}
	if len(notifier.created) != 1 || notifier.created[0] != "user-1/payslip_emailed" {
		t.Fatalf("notifications = %v, want one payslip_emailed for user-1", notifier.created)
	}
}

func TestSendEmailRegeneratesMissingFile(t *testing.T) {
	svc, _, _ := newTestService(t, payroll.StatusProcessed)
	slip, err := svc.Generate(context.Background(), operator(), "pr-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := svc.Files.Delete(slip.FilePath); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	sent, err := svc.SendEmail(context.Background(), slip.ID)
	if !sent || err != nil {
		t.Fatalf("send after file loss: sent=%v err=%v", sent, err)
	}
}

func TestDownloadAuthzAndMissingFile(t *testing.T) {
	svc, store, _ := newTestService(t, payroll.StatusProcessed)
	slip, err := svc.Generate(context.Background(), operator(), "pr-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	stranger := access.NewActor("user-2", "emp-2", []string{access.RoleStaff})
	if _, _, err := svc.Download(context.Background(), stranger, slip.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another employee, got %v", err)
	}

	owner := access.NewActor("user-1", "emp-1", []string{access.RoleStaff})
	data, got, err := svc.Download(context.Background(), owner, slip.ID)
	if err != nil {
		t.Fatalf("owner download: %v", err)
	}
	if len(data) == 0 || got.ID != slip.ID {
		t.Fatalf("download returned %d bytes for %s", len(data), got.ID)
	}
	if !store.byID[slip.ID].IsDownloaded {
		t.Fatal("download must set is_downloaded")
	}

	if err := svc.Files.Delete(slip.FilePath); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := svc.Download(context.Background(), owner, slip.ID); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound after file loss, got %v", err)
	}
}

func TestCleanupTempProtectsStoredDocuments(t *testing.T) {
	svc, _, _ := newTestService(t, payroll.StatusProcessed)
	slip, err := svc.Generate(context.Background(), operator(), "pr-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	deleted, err := svc.CleanupTemp(context.Background(), 0)
	if err != nil {
		t.Fatalf("CleanupTemp: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("cleanup deleted %d files, want 0", deleted)
	}
	if !svc.Files.Exists(slip.FilePath) {
		t.Fatal("cleanup must never remove a payslip's stored document")
	}
}

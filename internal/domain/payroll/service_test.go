package payroll

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"hrcore/internal/domain/org"
)

type fakeStore struct {
	byID       map[string]*Record
	byPeriod   map[string]*Record
	allowances []Allowance
	loan       *EmployeeLoan

	inserts    int
	updates    int
	repayments int
	nextID     int

	// When set, the next Insert loses the unique-constraint race: the
	// winner's row appears in the store and the insert fails with 23505.
	raceWinner *Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]*Record{}, byPeriod: map[string]*Record{}}
}

func periodKey(employeeID string, year, month int) string {
	return fmt.Sprintf("%s/%d-%d", employeeID, year, month)
}

func (f *fakeStore) put(r *Record) {
	clone := *r
	f.byID[r.ID] = &clone
	f.byPeriod[periodKey(r.EmployeeID, r.PeriodYear, r.PeriodMonth)] = &clone
}

func (f *fakeStore) GetByID(_ context.Context, id string) (Record, error) {
	if r, ok := f.byID[id]; ok {
		return *r, nil
	}
	return Record{}, ErrNotFound
}

func (f *fakeStore) GetByEmployeePeriod(_ context.Context, employeeID string, period PeriodKey) (Record, error) {
	if r, ok := f.byPeriod[periodKey(employeeID, period.Year, period.Month)]; ok {
		return *r, nil
	}
	return Record{}, ErrNotFound
}

func (f *fakeStore) ListForEmployee(_ context.Context, employeeID string, _, _ int) ([]Record, error) {
	var out []Record
	for _, r := range f.byID {
		if r.EmployeeID == employeeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListForPeriod(_ context.Context, period PeriodKey) ([]Record, error) {
	var out []Record
	for _, r := range f.byID {
		if r.PeriodYear == period.Year && r.PeriodMonth == period.Month {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, r *Record) error {
	if f.raceWinner != nil {
		f.put(f.raceWinner)
		f.raceWinner = nil
		return &pgconn.PgError{Code: "23505"}
	}
	if _, dup := f.byPeriod[periodKey(r.EmployeeID, r.PeriodYear, r.PeriodMonth)]; dup {
		return &pgconn.PgError{Code: "23505"}
	}
	f.nextID++
	r.ID = fmt.Sprintf("pr-%d", f.nextID)
	f.inserts++
	f.put(r)
	return nil
}

func (f *fakeStore) UpdateComputation(_ context.Context, r *Record) error {
	existing, ok := f.byID[r.ID]
	if !ok || existing.Status != StatusDraft {
		return nil
	}
	f.updates++
	f.put(r)
	return nil
}

func (f *fakeStore) MarkProcessed(_ context.Context, id, processedBy string) error {
	r, ok := f.byID[id]
	if !ok || r.Status != StatusDraft {
		return ErrInvalidState
	}
	r.Status = StatusProcessed
	r.ProcessedBy = processedBy
	return nil
}

func (f *fakeStore) MarkPaid(_ context.Context, id string) error {
	r, ok := f.byID[id]
	if !ok || r.Status != StatusProcessed {
		return ErrInvalidState
	}
	r.Status = StatusPaid
	return nil
}

func (f *fakeStore) ListAllowances(_ context.Context, _ string) ([]Allowance, error) {
	return f.allowances, nil
}

func (f *fakeStore) ActiveLoan(_ context.Context, _ string) (*EmployeeLoan, error) {
	if f.loan == nil || f.loan.Status != LoanStatusActive {
		return nil, nil
	}
	clone := *f.loan
	return &clone, nil
}

func (f *fakeStore) ApplyRepayment(_ context.Context, _, _ string, principal, _ float64) error {
	f.repayments++
	f.loan.RemainingBalance -= principal
	if f.loan.RemainingBalance <= 0 {
		f.loan.Status = LoanStatusCompleted
	}
	return nil
}

type fakeDirectory struct {
	employees map[string]org.Employee
}

func (f *fakeDirectory) Get(_ context.Context, id string) (org.Employee, error) {
	if e, ok := f.employees[id]; ok {
		return e, nil
	}
	return org.Employee{}, org.ErrNotFound
}

func (f *fakeDirectory) List(_ context.Context) ([]org.Employee, error) {
	var out []org.Employee
	for _, e := range f.employees {
		out = append(out, e)
	}
	return out, nil
}

type fakeNotifier struct {
	created []string // "userID/type"
}

func (f *fakeNotifier) Create(_ context.Context, userID, ntype, _, _ string) error {
	f.created = append(f.created, userID+"/"+ntype)
	return nil
}

func newComputeService(store *fakeStore) *Service {
	return &Service{
		Store: store,
		Org: &fakeDirectory{employees: map[string]org.Employee{
			"emp-1": {ID: "emp-1", UserID: "user-1", BasicSalary: 50000},
		}},
		Tables: flatTables(),
	}
}

func TestComputeForEmployeeUpdatesExistingDraft(t *testing.T) {
	store := newFakeStore()
	svc := newComputeService(store)
	period := PeriodKey{Year: 2026, Month: 5}

	first, err := svc.ComputeForEmployee(context.Background(), "emp-1", period)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	second, err := svc.ComputeForEmployee(context.Background(), "emp-1", period)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("recompute created a new payroll %s, want %s", second.ID, first.ID)
	}
	if store.inserts != 1 {
		t.Fatalf("inserts = %d, want exactly 1", store.inserts)
	}
	if store.updates != 1 {
		t.Fatalf("updates = %d, want the recompute to update in place", store.updates)
	}
}

func TestComputeForEmployeeRefusesProcessedPeriod(t *testing.T) {
	store := newFakeStore()
	store.put(&Record{ID: "pr-done", EmployeeID: "emp-1", PeriodYear: 2026, PeriodMonth: 5, Status: StatusProcessed})
	svc := newComputeService(store)

	_, err := svc.ComputeForEmployee(context.Background(), "emp-1", PeriodKey{Year: 2026, Month: 5})
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if store.updates != 0 {
		t.Fatal("a processed payroll must never be overwritten")
	}
}

func TestComputeForEmployeeReconcilesInsertRace(t *testing.T) {
	store := newFakeStore()
	store.raceWinner = &Record{ID: "pr-winner", EmployeeID: "emp-1", PeriodYear: 2026, PeriodMonth: 5, Status: StatusDraft}
	svc := newComputeService(store)

	record, err := svc.ComputeForEmployee(context.Background(), "emp-1", PeriodKey{Year: 2026, Month: 5})
	if err != nil {
		t.Fatalf("compute after lost race: %v", err)
	}
	if record.ID != "pr-winner" {
		t.Fatalf("record id = %s, want the winner's row pr-winner", record.ID)
	}
	if store.inserts != 0 {
		t.Fatalf("inserts = %d, losing the race must not create a row", store.inserts)
	}
	if store.updates != 1 {
		t.Fatalf("updates = %d, want the winner's row updated", store.updates)
	}
	if record.GrossPay != 50000 {
		t.Fatalf("winner's row not refreshed with the computation, gross = %v", record.GrossPay)
	}
}

func TestLoanRepaymentAppliedOncePerPayroll(t *testing.T) {
	store := newFakeStore()
	store.loan = &EmployeeLoan{
		ID: "loan-1", EmployeeID: "emp-1",
		RemainingBalance: 20000, MonthlyInstallment: 5000, Status: LoanStatusActive,
	}
	svc := newComputeService(store)
	period := PeriodKey{Year: 2026, Month: 5}

	if _, err := svc.ComputeForEmployee(context.Background(), "emp-1", period); err != nil {
		t.Fatalf("first compute: %v", err)
	}
	if store.repayments != 1 {
		t.Fatalf("repayments = %d after first compute, want 1", store.repayments)
	}
	if store.loan.RemainingBalance != 15000 {
		t.Fatalf("remaining balance = %v, want 15000", store.loan.RemainingBalance)
	}

	if _, err := svc.ComputeForEmployee(context.Background(), "emp-1", period); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if store.repayments != 1 {
		t.Fatalf("repayments = %d after recompute, the balance must move once per payroll row", store.repayments)
	}
}

func TestProcessEmitsNotification(t *testing.T) {
	store := newFakeStore()
	store.put(&Record{ID: "pr-1", EmployeeID: "emp-1", PeriodYear: 2026, PeriodMonth: 5, NetPay: 50500, Status: StatusDraft})
	notifier := &fakeNotifier{}
	svc := newComputeService(store)
	svc.Notifier = notifier

	record, err := svc.Process(context.Background(), "pr-1", "user-ops")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if record.Status != StatusProcessed {
		t.Fatalf("status = %s, want %s", record.Status, StatusProcessed)
	}
	if len(notifier.created) != 1 || notifier.created[0] != "user-1/payroll_processed" {
		t.Fatalf("notifications = %v, want one payroll_processed for user-1", notifier.created)
	}
}

func TestProcessRefusesNegativeNet(t *testing.T) {
	store := newFakeStore()
	store.put(&Record{
		ID: "pr-1", EmployeeID: "emp-1", PeriodYear: 2026, PeriodMonth: 5,
		LoanDeduction: 9000, PAYETax: 2000, NetPay: -1000, Status: StatusDraft,
	})
	svc := newComputeService(store)

	_, err := svc.Process(context.Background(), "pr-1", "user-ops")
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if validation.Component != ComponentLoan {
		t.Fatalf("component = %q, want %q", validation.Component, ComponentLoan)
	}
	if store.byID["pr-1"].Status != StatusDraft {
		t.Fatal("an overdrawn payroll must stay draft")
	}
}

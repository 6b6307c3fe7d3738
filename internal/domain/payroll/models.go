package payroll

import "time"

// PeriodKey identifies one pay cycle; together with the employee it forms
// the natural key of a payroll record.
type PeriodKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (p PeriodKey) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

func (p PeriodKey) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p PeriodKey) String() string {
	return p.Start().Format("2006-01")
}

type Allowance struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	Kind          string     `json:"kind"`
	Amount        float64    `json:"amount"`
	EffectiveDate time.Time  `json:"effectiveDate"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	Status        string     `json:"status"`
}

// ActiveFor reports whether the allowance applies to the given period: it
// must be active, effective on or before the period end, and not ended
// before the period start.
func (a Allowance) ActiveFor(period PeriodKey) bool {
	if a.Status != AllowanceStatusActive {
		return false
	}
	if a.EffectiveDate.After(period.End()) {
		return false
	}
	if a.EndDate != nil && a.EndDate.Before(period.Start()) {
		return false
	}
	return true
}

type EmployeeLoan struct {
	ID                 string    `json:"id"`
	EmployeeID         string    `json:"employeeId"`
	Principal          float64   `json:"principal"`
	InterestRate       float64   `json:"interestRate"` // annual percent
	TermMonths         int       `json:"termMonths"`
	MonthlyInstallment float64   `json:"monthlyInstallment"`
	RemainingBalance   float64   `json:"remainingBalance"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
}

type LoanRepayment struct {
	ID        string    `json:"id"`
	LoanID    string    `json:"loanId"`
	PayrollID string    `json:"payrollId"`
	Principal float64   `json:"principal"`
	Interest  float64   `json:"interest"`
	CreatedAt time.Time `json:"createdAt"`
}

// Record is one employee's payroll for one period. Totals are always the
// sums of their components; they are computed, never edited directly.
type Record struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employeeId"`
	PeriodYear  int    `json:"periodYear"`
	PeriodMonth int    `json:"periodMonth"`

	BasicSalary        float64 `json:"basicSalary"`
	HouseAllowance     float64 `json:"houseAllowance"`
	TransportAllowance float64 `json:"transportAllowance"`
	MedicalAllowance   float64 `json:"medicalAllowance"`
	OvertimeAmount     float64 `json:"overtimeAmount"`
	BonusAmount        float64 `json:"bonusAmount"`
	OtherAllowances    float64 `json:"otherAllowances"`
	TotalAllowances    float64 `json:"totalAllowances"`
	GrossPay           float64 `json:"grossPay"`

	TaxableIncome   float64 `json:"taxableIncome"`
	PersonalRelief  float64 `json:"personalRelief"`
	InsuranceRelief float64 `json:"insuranceRelief"`
	TotalRelief     float64 `json:"totalRelief"`

	PAYETax            float64 `json:"payeTax"`
	NHIFDeduction      float64 `json:"nhifDeduction"`
	NSSFDeduction      float64 `json:"nssfDeduction"`
	InsuranceDeduction float64 `json:"insuranceDeduction"`
	LoanDeduction      float64 `json:"loanDeduction"`
	OtherDeductions    float64 `json:"otherDeductions"`
	TotalDeductions    float64 `json:"totalDeductions"`

	NetPay float64 `json:"netPay"`

	Status      string         `json:"status"`
	Details     map[string]any `json:"calculationDetails,omitempty"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
	ProcessedBy string         `json:"processedBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (r Record) Period() PeriodKey {
	return PeriodKey{Year: r.PeriodYear, Month: r.PeriodMonth}
}

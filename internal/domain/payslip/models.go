package payslip

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrcore/internal/domain/org"
	"hrcore/internal/domain/payroll"
)

var (
	ErrNotFound     = errors.New("payslip not found")
	ErrFileNotFound = errors.New("payslip file not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("payroll not in a payslip-ready state")
)

// Payslip is the issued document for one processed payroll. Data is an
// immutable snapshot taken at generation time: later edits to the employee
// or tax tables never change an issued payslip.
type Payslip struct {
	ID           string     `json:"id"`
	PayrollID    string     `json:"payrollId"`
	EmployeeID   string     `json:"employeeId"`
	Number       string     `json:"payslipNumber"`
	Data         Snapshot   `json:"payslipData"`
	FilePath     string     `json:"-"`
	IsEmailed    bool       `json:"isEmailed"`
	EmailedAt    *time.Time `json:"emailedAt,omitempty"`
	IsDownloaded bool       `json:"isDownloaded"`
	DownloadedAt *time.Time `json:"downloadedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Snapshot is everything the rendered document shows, denormalized so the
// PDF can be regenerated byte-for-byte from the stored row alone.
type Snapshot struct {
	CompanyName   string `json:"companyName"`
	PayslipNumber string `json:"payslipNumber"`
	Period        string `json:"period"`

	EmployeeName string `json:"employeeName"`
	EmployeeNo   string `json:"employeeNo"`
	Email        string `json:"email"`
	Department   string `json:"department,omitempty"`
	Designation  string `json:"designation,omitempty"`

	BasicSalary     float64 `json:"basicSalary"`
	TotalAllowances float64 `json:"totalAllowances"`
	GrossPay        float64 `json:"grossPay"`

	PAYETax            float64 `json:"payeTax"`
	NHIFDeduction      float64 `json:"nhifDeduction"`
	NSSFDeduction      float64 `json:"nssfDeduction"`
	InsuranceDeduction float64 `json:"insuranceDeduction"`
	LoanDeduction      float64 `json:"loanDeduction"`
	OtherDeductions    float64 `json:"otherDeductions"`
	TotalDeductions    float64 `json:"totalDeductions"`

	NetPay float64 `json:"netPay"`
}

// CanGenerate reports whether a payroll in the given status may have a
// payslip issued. Drafts may still be recomputed, so they never qualify.
func CanGenerate(status string) bool {
	return status == payroll.StatusProcessed || status == payroll.StatusPaid
}

// NewNumber mints a payslip number for a period, e.g. PS-202603-1a2b3c4d.
func NewNumber(period payroll.PeriodKey) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("PS-%d%02d-%s", period.Year, period.Month, suffix)
}

// NewSnapshot freezes the employee and payroll breakdown into the form the
// document renders from.
func NewSnapshot(company, number string, employee org.Employee, record payroll.Record) Snapshot {
	return Snapshot{
		CompanyName:   company,
		PayslipNumber: number,
		Period:        record.Period().String(),

		EmployeeName: employee.FullName(),
		EmployeeNo:   employee.EmployeeNo,
		Email:        employee.Email,
		Department:   employee.Department,
		Designation:  employee.Designation,

		BasicSalary:     record.BasicSalary,
		TotalAllowances: record.TotalAllowances,
		GrossPay:        record.GrossPay,

		PAYETax:            record.PAYETax,
		NHIFDeduction:      record.NHIFDeduction,
		NSSFDeduction:      record.NSSFDeduction,
		InsuranceDeduction: record.InsuranceDeduction,
		LoanDeduction:      record.LoanDeduction,
		OtherDeductions:    record.OtherDeductions,
		TotalDeductions:    record.TotalDeductions,

		NetPay: record.NetPay,
	}
}

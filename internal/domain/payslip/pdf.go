package payslip

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Render draws the payslip document from its snapshot. Rendering is pure
// over the snapshot, so a lost file can always be reissued.
func Render(s Snapshot) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, s.CompanyName)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Payslip %s", s.PayslipNumber))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s", s.Period))
	pdf.Ln(10)

	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", s.EmployeeName, s.EmployeeNo))
	pdf.Ln(6)
	if s.Department != "" || s.Designation != "" {
		pdf.Cell(0, 7, fmt.Sprintf("%s %s", s.Department, s.Designation))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, s.Email)
	pdf.Ln(10)

	line := func(label string, amount float64) {
		pdf.Cell(100, 7, label)
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", amount), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Earnings")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	line("Basic salary", s.BasicSalary)
	line("Allowances", s.TotalAllowances)
	pdf.SetFont("Helvetica", "B", 11)
	line("Gross pay", s.GrossPay)
	pdf.Ln(4)

	pdf.Cell(0, 7, "Deductions")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	line("PAYE tax", s.PAYETax)
	line("NHIF", s.NHIFDeduction)
	line("NSSF", s.NSSFDeduction)
	if s.InsuranceDeduction > 0 {
		line("Insurance", s.InsuranceDeduction)
	}
	if s.LoanDeduction > 0 {
		line("Loan repayment", s.LoanDeduction)
	}
	if s.OtherDeductions > 0 {
		line("Other deductions", s.OtherDeductions)
	}
	pdf.SetFont("Helvetica", "B", 11)
	line("Total deductions", s.TotalDeductions)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	line("Net pay", s.NetPay)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

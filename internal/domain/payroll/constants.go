package payroll

const (
	StatusDraft     = "draft"
	StatusProcessed = "processed"
	StatusPaid      = "paid"

	AllowanceStatusActive = "active"

	AllowanceHouse     = "house"
	AllowanceTransport = "transport"
	AllowanceMedical   = "medical"
	AllowanceOvertime  = "overtime"
	AllowanceBonus     = "bonus"
	AllowanceOther     = "other"

	ComponentPAYE      = "paye_tax"
	ComponentNHIF      = "nhif_deduction"
	ComponentNSSF      = "nssf_deduction"
	ComponentInsurance = "insurance_deduction"
	ComponentLoan      = "loan_deduction"
	ComponentOther     = "other_deductions"

	LoanStatusActive    = "active"
	LoanStatusCompleted = "completed"
)

package payroll

import "time"

type ComputeInput struct {
	BasicSalary      float64
	Allowances       []Allowance
	InsurancePremium float64
	OtherDeductions  float64
	LoanInstallment  float64
	Tables           TaxTables
}

// Computation is the full breakdown of one payroll run, carried into the
// persisted record and its calculation_details audit snapshot.
type Computation struct {
	BasicSalary        float64
	HouseAllowance     float64
	TransportAllowance float64
	MedicalAllowance   float64
	OvertimeAmount     float64
	BonusAmount        float64
	OtherAllowances    float64
	TotalAllowances    float64
	GrossPay           float64

	TaxableIncome   float64
	PersonalRelief  float64
	InsuranceRelief float64
	TotalRelief     float64

	PAYETax            float64
	NHIFDeduction      float64
	NSSFDeduction      float64
	InsuranceDeduction float64
	LoanDeduction      float64
	OtherDeductions    float64
	TotalDeductions    float64

	NetPay  float64
	Details map[string]any
}

// Compute runs one employee's payroll for a period. Allowances outside
// their effective window or not active are excluded. When total deductions
// exceed gross pay the computation is returned as-is together with a
// *ValidationError naming the largest deduction; the caller keeps the
// payroll in draft.
func Compute(in ComputeInput, period PeriodKey) (Computation, error) {
	var c Computation
	c.BasicSalary = round2(in.BasicSalary)

	applied := make([]map[string]any, 0, len(in.Allowances))
	for _, allowance := range in.Allowances {
		if !allowance.ActiveFor(period) {
			continue
		}
		amount := round2(allowance.Amount)
		switch allowance.Kind {
		case AllowanceHouse:
			c.HouseAllowance += amount
		case AllowanceTransport:
			c.TransportAllowance += amount
		case AllowanceMedical:
			c.MedicalAllowance += amount
		case AllowanceOvertime:
			c.OvertimeAmount += amount
		case AllowanceBonus:
			c.BonusAmount += amount
		default:
			c.OtherAllowances += amount
		}
		applied = append(applied, map[string]any{
			"kind":   allowance.Kind,
			"amount": amount,
		})
	}

	c.TotalAllowances = round2(c.HouseAllowance + c.TransportAllowance + c.MedicalAllowance +
		c.OvertimeAmount + c.BonusAmount + c.OtherAllowances)
	c.GrossPay = round2(c.BasicSalary + c.TotalAllowances)

	tables := in.Tables
	c.NSSFDeduction = NSSFContribution(c.GrossPay, tables.NSSFRate, tables.NSSFCap)
	c.NHIFDeduction = NHIFContribution(c.GrossPay, tables.NHIFBands)

	c.TaxableIncome = round2(c.GrossPay - c.NSSFDeduction)
	c.PersonalRelief = tables.PersonalRelief
	c.InsuranceRelief = round2(in.InsurancePremium * tables.InsuranceReliefRate)
	if tables.InsuranceReliefCap > 0 && c.InsuranceRelief > tables.InsuranceReliefCap {
		c.InsuranceRelief = tables.InsuranceReliefCap
	}
	c.TotalRelief = round2(c.PersonalRelief + c.InsuranceRelief)

	grossTax := ProgressiveTax(c.TaxableIncome, tables.PAYEBrackets)
	c.PAYETax = round2(grossTax - c.TotalRelief)
	if c.PAYETax < 0 {
		c.PAYETax = 0
	}

	c.InsuranceDeduction = round2(in.InsurancePremium)
	c.LoanDeduction = round2(in.LoanInstallment)
	c.OtherDeductions = round2(in.OtherDeductions)

	c.TotalDeductions = round2(c.PAYETax + c.NHIFDeduction + c.NSSFDeduction +
		c.InsuranceDeduction + c.LoanDeduction + c.OtherDeductions)
	c.NetPay = round2(c.GrossPay - c.TotalDeductions)

	c.Details = map[string]any{
		"period":         period.String(),
		"allowances":     applied,
		"grossTax":       grossTax,
		"taxableIncome":  c.TaxableIncome,
		"totalRelief":    c.TotalRelief,
		"computedAt":     time.Now().UTC().Format(time.RFC3339),
		"nssfRate":       tables.NSSFRate,
		"personalRelief": tables.PersonalRelief,
	}

	if c.NetPay < 0 {
		component, amount := largestDeduction(c)
		return c, &ValidationError{Component: component, Amount: amount, Shortfall: round2(-c.NetPay)}
	}
	return c, nil
}

func largestDeduction(c Computation) (string, float64) {
	component, amount := ComponentPAYE, c.PAYETax
	for _, candidate := range []struct {
		name   string
		amount float64
	}{
		{ComponentNHIF, c.NHIFDeduction},
		{ComponentNSSF, c.NSSFDeduction},
		{ComponentInsurance, c.InsuranceDeduction},
		{ComponentLoan, c.LoanDeduction},
		{ComponentOther, c.OtherDeductions},
	} {
		if candidate.amount > amount {
			component, amount = candidate.name, candidate.amount
		}
	}
	return component, amount
}

// InstallmentSplit divides a loan installment into interest on the
// remaining balance and a principal portion, capping principal at what is
// still owed.
func InstallmentSplit(loan EmployeeLoan) (principal, interest float64) {
	if loan.RemainingBalance <= 0 {
		return 0, 0
	}
	interest = round2(loan.RemainingBalance * loan.InterestRate / 100 / 12)
	principal = round2(loan.MonthlyInstallment - interest)
	if principal < 0 {
		principal = 0
	}
	if principal > loan.RemainingBalance {
		principal = loan.RemainingBalance
	}
	return principal, interest
}

// Apply copies a computation into a record, keeping totals and components
// consistent by construction.
func (r *Record) Apply(c Computation) {
	r.BasicSalary = c.BasicSalary
	r.HouseAllowance = c.HouseAllowance
	r.TransportAllowance = c.TransportAllowance
	r.MedicalAllowance = c.MedicalAllowance
	r.OvertimeAmount = c.OvertimeAmount
	r.BonusAmount = c.BonusAmount
	r.OtherAllowances = c.OtherAllowances
	r.TotalAllowances = c.TotalAllowances
	r.GrossPay = c.GrossPay
	r.TaxableIncome = c.TaxableIncome
	r.PersonalRelief = c.PersonalRelief
	r.InsuranceRelief = c.InsuranceRelief
	r.TotalRelief = c.TotalRelief
	r.PAYETax = c.PAYETax
	r.NHIFDeduction = c.NHIFDeduction
	r.NSSFDeduction = c.NSSFDeduction
	r.InsuranceDeduction = c.InsuranceDeduction
	r.LoanDeduction = c.LoanDeduction
	r.OtherDeductions = c.OtherDeductions
	r.TotalDeductions = c.TotalDeductions
	r.NetPay = c.NetPay
	r.Details = c.Details
}

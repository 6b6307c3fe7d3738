package payroll

import "math"

// TaxBracket taxes income up to UpTo at Rate; UpTo of zero means unbounded
// and must be the last bracket.
type TaxBracket struct {
	UpTo float64
	Rate float64
}

// NHIFBand maps gross pay up to UpTo to a flat contribution; UpTo of zero
// is the open-ended top band.
type NHIFBand struct {
	UpTo   float64
	Amount float64
}

// TaxTables are the statutory rule tables a payroll run computes against.
// They are configuration, not invariants: deployments load their own.
type TaxTables struct {
	PAYEBrackets        []TaxBracket
	NHIFBands           []NHIFBand
	NSSFRate            float64
	NSSFCap             float64
	PersonalRelief      float64
	InsuranceReliefRate float64
	InsuranceReliefCap  float64
}

// DefaultTaxTables returns the Kenyan monthly statutory tables.
func DefaultTaxTables() TaxTables {
	return TaxTables{
		PAYEBrackets: []TaxBracket{
			{UpTo: 24000, Rate: 0.10},
			{UpTo: 32333, Rate: 0.25},
			{UpTo: 500000, Rate: 0.30},
			{UpTo: 800000, Rate: 0.325},
			{UpTo: 0, Rate: 0.35},
		},
		NHIFBands: []NHIFBand{
			{UpTo: 5999, Amount: 150},
			{UpTo: 7999, Amount: 300},
			{UpTo: 11999, Amount: 400},
			{UpTo: 14999, Amount: 500},
			{UpTo: 19999, Amount: 600},
			{UpTo: 24999, Amount: 750},
			{UpTo: 29999, Amount: 850},
			{UpTo: 34999, Amount: 900},
			{UpTo: 39999, Amount: 950},
			{UpTo: 44999, Amount: 1000},
			{UpTo: 49999, Amount: 1100},
			{UpTo: 59999, Amount: 1200},
			{UpTo: 69999, Amount: 1300},
			{UpTo: 79999, Amount: 1400},
			{UpTo: 89999, Amount: 1500},
			{UpTo: 99999, Amount: 1600},
			{UpTo: 0, Amount: 1700},
		},
		NSSFRate:            0.06,
		NSSFCap:             2160,
		PersonalRelief:      2400,
		InsuranceReliefRate: 0.15,
		InsuranceReliefCap:  5000,
	}
}

// ProgressiveTax applies the brackets cumulatively to taxable income.
func ProgressiveTax(taxable float64, brackets []TaxBracket) float64 {
	if taxable <= 0 {
		return 0
	}
	tax := 0.0
	lower := 0.0
	for _, bracket := range brackets {
		if bracket.UpTo == 0 || taxable <= bracket.UpTo {
			tax += (taxable - lower) * bracket.Rate
			return round2(tax)
		}
		tax += (bracket.UpTo - lower) * bracket.Rate
		lower = bracket.UpTo
	}
	return round2(tax)
}

// NHIFContribution looks up the flat band for the gross pay.
func NHIFContribution(gross float64, bands []NHIFBand) float64 {
	for _, band := range bands {
		if band.UpTo == 0 || gross <= band.UpTo {
			return band.Amount
		}
	}
	return 0
}

// NSSFContribution is a rate of gross capped at the statutory maximum.
func NSSFContribution(gross float64, rate, cap float64) float64 {
	contribution := round2(gross * rate)
	if cap > 0 && contribution > cap {
		return cap
	}
	return contribution
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package payroll

import "testing"

func TestProgressiveTax(t *testing.T) {
	brackets := DefaultTaxTables().PAYEBrackets

	cases := []struct {
		taxable float64
		want    float64
	}{
		{0, 0},
		{-100, 0},
		{24000, 2400},
		{30000, 2400 + 6000*0.25},
		{32333, 2400 + 8333*0.25},
		{100000, 2400 + 8333*0.25 + 67667*0.30},
	}
	for _, tc := range cases {
		got := ProgressiveTax(tc.taxable, brackets)
		if got != round2(tc.want) {
			t.Errorf("ProgressiveTax(%v) = %v, want %v", tc.taxable, got, round2(tc.want))
		}
	}
}

func TestNHIFContribution(t *testing.T) {
	bands := DefaultTaxTables().NHIFBands

	cases := []struct {
		gross float64
		want  float64
	}{
		{4000, 150},
		{5999, 150},
		{6000, 300},
		{57000, 1200},
		{250000, 1700},
	}
	for _, tc := range cases {
		if got := NHIFContribution(tc.gross, bands); got != tc.want {
			t.Errorf("NHIFContribution(%v) = %v, want %v", tc.gross, got, tc.want)
		}
	}
}

func TestNSSFContributionCap(t *testing.T) {
	if got := NSSFContribution(10000, 0.06, 2160); got != 600 {
		t.Fatalf("NSSF on 10000 = %v, want 600", got)
	}
	if got := NSSFContribution(100000, 0.06, 2160); got != 2160 {
		t.Fatalf("NSSF on 100000 = %v, want capped 2160", got)
	}
	if got := NSSFContribution(100000, 0, 2160); got != 0 {
		t.Fatalf("NSSF with zero rate = %v, want 0", got)
	}
}

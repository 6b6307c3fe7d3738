package wellbeing

import (
	"testing"
	"time"
)

func validResponse() Response {
	return Response{
		EmployeeID:      "emp-1",
		PeriodStart:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		StressLevel:     4,
		WorkLifeBalance: 7,
		JobSatisfaction: 8,
		SupportFeeling:  6,
	}
}

func TestValidateScoreRange(t *testing.T) {
	if err := validResponse().Validate(); err != nil {
		t.Fatalf("valid response rejected: %v", err)
	}

	r := validResponse()
	r.StressLevel = 0
	if err := r.Validate(); err == nil {
		t.Fatal("score below 1 should be rejected")
	}

	r = validResponse()
	r.JobSatisfaction = 11
	if err := r.Validate(); err == nil {
		t.Fatal("score above 10 should be rejected")
	}

	r = validResponse()
	r.PeriodEnd = r.PeriodStart.AddDate(0, 0, -1)
	if err := r.Validate(); err == nil {
		t.Fatal("inverted period should be rejected")
	}
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(nil)
	if report.Responses != 0 || report.Employees != 0 {
		t.Fatalf("empty report = %+v", report)
	}

	a := validResponse()
	b := validResponse()
	b.StressLevel = 7
	c := validResponse()
	c.EmployeeID = "emp-2"
	c.StressLevel = 1

	report = BuildReport([]Response{a, b, c})
	if report.Responses != 3 {
		t.Fatalf("responses = %d, want 3", report.Responses)
	}
	if report.Employees != 2 {
		t.Fatalf("employees = %d, want 2", report.Employees)
	}
	if report.AvgStressLevel != 4 {
		t.Fatalf("avg stress = %v, want 4", report.AvgStressLevel)
	}
	if report.AvgWorkLifeBalance != 7 {
		t.Fatalf("avg work-life = %v, want 7", report.AvgWorkLifeBalance)
	}
}

package wellbeing

import (
	"fmt"
	"time"
)

// Response is one employee's check-in for a period. The four named scores
// are on a 1-10 scale; Metrics carries any extra tracked dimensions without
// a schema change.
type Response struct {
	ID              string         `json:"id"`
	EmployeeID      string         `json:"employeeId"`
	PeriodStart     time.Time      `json:"periodStart"`
	PeriodEnd       time.Time      `json:"periodEnd"`
	StressLevel     int            `json:"stressLevel"`
	WorkLifeBalance int            `json:"workLifeBalance"`
	JobSatisfaction int            `json:"jobSatisfaction"`
	SupportFeeling  int            `json:"supportFeeling"`
	Comments        string         `json:"comments,omitempty"`
	Metrics         map[string]any `json:"metrics,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`

	ownerUserID string
}

// Validate checks the score ranges and the period window.
func (r Response) Validate() error {
	for _, score := range []struct {
		name  string
		value int
	}{
		{"stressLevel", r.StressLevel},
		{"workLifeBalance", r.WorkLifeBalance},
		{"jobSatisfaction", r.JobSatisfaction},
		{"supportFeeling", r.SupportFeeling},
	} {
		if score.value < 1 || score.value > 10 {
			return fmt.Errorf("%s must be between 1 and 10, got %d", score.name, score.value)
		}
	}
	if r.PeriodEnd.Before(r.PeriodStart) {
		return fmt.Errorf("period end before period start")
	}
	return nil
}

// Report aggregates responses for the reporting endpoint.
type Report struct {
	Responses          int     `json:"responses"`
	Employees          int     `json:"employees"`
	AvgStressLevel     float64 `json:"avgStressLevel"`
	AvgWorkLifeBalance float64 `json:"avgWorkLifeBalance"`
	AvgJobSatisfaction float64 `json:"avgJobSatisfaction"`
	AvgSupportFeeling  float64 `json:"avgSupportFeeling"`
}

// BuildReport averages the named scores over the given responses.
func BuildReport(responses []Response) Report {
	report := Report{Responses: len(responses)}
	if len(responses) == 0 {
		return report
	}
	employees := make(map[string]bool)
	var stress, balance, satisfaction, support int
	for _, r := range responses {
		employees[r.EmployeeID] = true
		stress += r.StressLevel
		balance += r.WorkLifeBalance
		satisfaction += r.JobSatisfaction
		support += r.SupportFeeling
	}
	n := float64(len(responses))
	report.Employees = len(employees)
	report.AvgStressLevel = round1(float64(stress) / n)
	report.AvgWorkLifeBalance = round1(float64(balance) / n)
	report.AvgJobSatisfaction = round1(float64(satisfaction) / n)
	report.AvgSupportFeeling = round1(float64(support) / n)
	return report
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("payroll not found")
	ErrAlreadyProcessed = errors.New("payroll already processed")
	ErrInvalidState     = errors.New("payroll is not in the required state")
)

// ValidationError reports a computation whose deductions exceed gross pay.
// Component names the largest deduction so an operator knows what to fix;
// the net is never clamped to zero.
type ValidationError struct {
	Component string
	Amount    float64
	Shortfall float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("deductions exceed gross pay by %.2f (largest component %s: %.2f)", e.Shortfall, e.Component, e.Amount)
}

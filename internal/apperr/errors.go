// Package apperr defines the application error taxonomy. Failures are
// distinguished by Kind for logs, metrics and Sentry while the user-facing
// message stays deliberately generic.
package apperr

import "fmt"

// Kind classifies where in the pipeline a failure originated.
type Kind string

const (
	// KindConfig marks a flow configuration problem, e.g. a transition
	// referencing a state that does not exist.
	KindConfig Kind = "config"
	// KindInputContract marks input that failed a unit's input contract.
	KindInputContract Kind = "input_contract"
	// KindOutputContract marks a unit result that failed its output contract.
	KindOutputContract Kind = "output_contract"
	// KindExecution marks a failure inside the unit's own logic.
	KindExecution Kind = "execution"
	// KindTransport marks a failure talking to the chat platform.
	KindTransport Kind = "transport"
)

// Severity grades errors for reporting purposes.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries the internal classification of a failure alongside the
// text shown to the user.
type AppError struct {
	Kind        Kind
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewConfigError reports a reference to a state missing from a flow's map.
func NewConfigError(flowName, stateName string) *AppError {
	return &AppError{
		Kind:      KindConfig,
		Code:      "E100",
		Message:   fmt.Sprintf("flow %q references unknown state %q", flowName, stateName),
		Severity:  SeverityHigh,
		Retryable: false,
	}
}

// NewInputContractError reports a unit input that failed validation.
func NewInputContractError(unitName string, cause error) *AppError {
	return &AppError{
		Kind:      KindInputContract,
		Code:      "E200",
		Message:   fmt.Sprintf("unit %q rejected input: %v", unitName, cause),
		Severity:  SeverityLow,
		Retryable: false,
		cause:     cause,
	}
}

// NewOutputContractError reports a unit result that failed validation.
func NewOutputContractError(unitName string, cause error) *AppError {
	return &AppError{
		Kind:      KindOutputContract,
		Code:      "E201",
		Message:   fmt.Sprintf("unit %q returned invalid result: %v", unitName, cause),
		Severity:  SeverityMedium,
		Retryable: false,
		cause:     cause,
	}
}

// NewExecutionError reports a failure inside the unit's own logic.
func NewExecutionError(unitName string, cause error) *AppError {
	return &AppError{
		Kind:      KindExecution,
		Code:      "E300",
		Message:   fmt.Sprintf("unit %q failed: %v", unitName, cause),
		Severity:  SeverityMedium,
		Retryable: true,
		cause:     cause,
	}
}

// NewTransportError reports a failed send/edit/ack against the chat platform.
func NewTransportError(op string, cause error) *AppError {
	return &AppError{
		Kind:      KindTransport,
		Code:      "E400",
		Message:   fmt.Sprintf("transport %s: %v", op, cause),
		Severity:  SeverityHigh,
		Retryable: true,
		cause:     cause,
	}
}

// Package expectation holds the validation framework's native result type,
// the shape data-quality tooling consumes directly.
package expectation

// ValidationResult mirrors the framework's expectation validation result.
type ValidationResult struct {
	Success           bool           `json:"success"`
	ExpectationConfig map[string]any `json:"expectation_config"`
	Result            map[string]any `json:"result"`
	Meta              map[string]any `json:"meta"`
	ExceptionInfo     map[string]any `json:"exception_info"`
}

// ExpectationType returns expectation_config.expectation_type, if any.
func (r *ValidationResult) ExpectationType() string {
	t, _ := r.ExpectationConfig["expectation_type"].(string)
	return t
}

// RaisedException reports exception_info.raised_exception.
func (r *ValidationResult) RaisedException() bool {
	raised, _ := r.ExceptionInfo["raised_exception"].(bool)
	return raised
}

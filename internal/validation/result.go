package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/y0f/fsclient/internal/expectation"
)

// ValidationResult is the outcome of evaluating one expectation.
type ValidationResult struct {
	id                 *int64
	success            bool
	result             map[string]any
	meta               map[string]any
	exceptionInfo      map[string]any
	expectationConfig  map[string]any
	observedValue      any
	expectationID      *int64
	validationReportID *int64
}

// Params holds construction input. The four mapping fields accept either a
// map[string]any or a JSON encoded object string.
type Params struct {
	Success           bool
	Result            any
	ExceptionInfo     any
	ExpectationConfig any
	Meta              any

	ID                 *int64
	ObservedValue      any
	ExpectationID      *int64
	ValidationReportID *int64
}

func New(p Params) (*ValidationResult, error) {
	v := &ValidationResult{
		id:                 p.ID,
		success:            p.Success,
		observedValue:      p.ObservedValue,
		expectationID:      p.ExpectationID,
		validationReportID: p.ValidationReportID,
	}
	if err := v.SetResult(p.Result); err != nil {
		return nil, err
	}
	if err := v.SetMeta(p.Meta); err != nil {
		return nil, err
	}
	if err := v.SetExceptionInfo(p.ExceptionInfo); err != nil {
		return nil, err
	}
	if err := v.SetExpectationConfig(p.ExpectationConfig); err != nil {
		return nil, err
	}
	return v, nil
}

// ID is set by the backend; nil until the result is persisted.
func (v *ValidationResult) ID() *int64 { return v.id }

func (v *ValidationResult) SetID(id *int64) { v.id = id }

func (v *ValidationResult) Success() bool { return v.success }

func (v *ValidationResult) SetSuccess(success bool) { v.success = success }

// Result is the expectation output after validation.
func (v *ValidationResult) Result() map[string]any { return v.result }

func (v *ValidationResult) SetResult(value any) error {
	m, err := ParseJSONField("result", value)
	if err != nil {
		return err
	}
	v.result = m
	return nil
}

// Meta carries user annotations.
func (v *ValidationResult) Meta() map[string]any { return v.meta }

func (v *ValidationResult) SetMeta(value any) error {
	m, err := ParseJSONField("meta", value)
	if err != nil {
		return err
	}
	v.meta = m
	return nil
}

// ExceptionInfo describes an exception raised while validating.
func (v *ValidationResult) ExceptionInfo() map[string]any { return v.exceptionInfo }

func (v *ValidationResult) SetExceptionInfo(value any) error {
	m, err := ParseJSONField("exception_info", value)
	if err != nil {
		return err
	}
	v.exceptionInfo = m
	return nil
}

// ExpectationConfig is the expectation definition that was evaluated.
func (v *ValidationResult) ExpectationConfig() map[string]any { return v.expectationConfig }

func (v *ValidationResult) SetExpectationConfig(value any) error {
	m, err := ParseJSONField("expectation_config", value)
	if err != nil {
		return err
	}
	v.expectationConfig = m
	return nil
}

func (v *ValidationResult) ObservedValue() any { return v.observedValue }

func (v *ValidationResult) ExpectationID() *int64 { return v.expectationID }

func (v *ValidationResult) ValidationReportID() *int64 { return v.validationReportID }

// ToDict returns the wire form: the mapping fields are re-encoded as JSON
// strings, so a nil map becomes "null".
func (v *ValidationResult) ToDict() (map[string]any, error) {
	out := map[string]any{
		"id":      idValue(v.id),
		"success": v.success,
	}
	for _, f := range []struct {
		key string
		val map[string]any
	}{
		{"exceptionInfo", v.exceptionInfo},
		{"expectationConfig", v.expectationConfig},
		{"result", v.result},
		{"meta", v.meta},
	} {
		b, err := json.Marshal(f.val)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.key, err)
		}
		out[f.key] = string(b)
	}
	return out, nil
}

// ToJSONDict returns the same keys as ToDict with the mappings left as maps,
// for embedding inside a larger document.
func (v *ValidationResult) ToJSONDict() map[string]any {
	return map[string]any{
		"id":                idValue(v.id),
		"success":           v.success,
		"exceptionInfo":     v.exceptionInfo,
		"expectationConfig": v.expectationConfig,
		"result":            v.result,
		"meta":              v.meta,
	}
}

// JSON serializes the ToDict view.
func (v *ValidationResult) JSON() (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (v *ValidationResult) MarshalJSON() ([]byte, error) {
	d, err := v.ToDict()
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// UnmarshalJSON accepts a single result object in either key style.
func (v *ValidationResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode validation result: %w", err)
	}
	decoded, err := fromFields(DecamelizeKeys(fields))
	if err != nil {
		return err
	}
	*v = *decoded
	return nil
}

// ToGEType projects the result into the validation framework's type.
func (v *ValidationResult) ToGEType() *expectation.ValidationResult {
	return &expectation.ValidationResult{
		Success:           v.success,
		ExceptionInfo:     v.exceptionInfo,
		ExpectationConfig: v.expectationConfig,
		Result:            v.result,
		Meta:              v.meta,
	}
}

// String is a diagnostic rendering. The result map wins over the observed
// value when both are present.
func (v *ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ValidationResult(success: %t, ", v.success)
	switch {
	case v.result != nil:
		fmt.Fprintf(&b, "result : %v, ", v.result)
	case v.observedValue != nil:
		fmt.Fprintf(&b, "observed_value : %v, ", v.observedValue)
	}
	fmt.Fprintf(&b, "%v, %v, %v)", v.exceptionInfo, v.expectationConfig, v.meta)
	return b.String()
}

func idValue(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

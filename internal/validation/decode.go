package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FromResponseJSON decodes a backend response. A {"count", "items"}
// envelope yields one result per item (none when count is 0); any other
// object yields exactly one result.
func FromResponseJSON(data []byte) ([]*ValidationResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode validation result: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrInvalidArgument)
	}
	fields = DecamelizeKeys(fields)

	rawCount, ok := fields["count"]
	if !ok {
		v, err := fromFields(fields)
		if err != nil {
			return nil, err
		}
		return []*ValidationResult{v}, nil
	}

	var count int64
	if err := json.Unmarshal(rawCount, &count); err != nil {
		return nil, fmt.Errorf("%w: count must be an integer", ErrInvalidArgument)
	}
	if count == 0 {
		return []*ValidationResult{}, nil
	}

	rawItems, ok := fields["items"]
	if !ok {
		return nil, fmt.Errorf("%w: envelope with count %d has no items", ErrInvalidArgument, count)
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, fmt.Errorf("%w: items must be a list of objects", ErrInvalidArgument)
	}

	out := make([]*ValidationResult, 0, len(items))
	for i, item := range items {
		v, err := fromFields(DecamelizeKeys(item))
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FromResponseJSONOne decodes a payload that must hold exactly one result.
func FromResponseJSONOne(data []byte) (*ValidationResult, error) {
	all, err := FromResponseJSON(data)
	if err != nil {
		return nil, err
	}
	if len(all) != 1 {
		return nil, fmt.Errorf("%w: expected one validation result, got %d", ErrInvalidArgument, len(all))
	}
	return all[0], nil
}

var requiredFields = []string{"success", "result", "exception_info", "expectation_config", "meta"}

// fromFields builds a result from snake_case keys. Envelope keys (href,
// expand, items, count, type) and unknown keys are ignored.
func fromFields(fields map[string]json.RawMessage) (*ValidationResult, error) {
	for _, k := range requiredFields {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("%w: missing required field %s", ErrInvalidArgument, k)
		}
	}

	var p Params
	if err := json.Unmarshal(fields["success"], &p.Success); err != nil {
		return nil, fmt.Errorf("%w: success must be a boolean", ErrInvalidArgument)
	}

	var err error
	if p.Result, err = decodeAny(fields["result"]); err != nil {
		return nil, fmt.Errorf("%w: result: %v", ErrInvalidArgument, err)
	}
	if p.ExceptionInfo, err = decodeAny(fields["exception_info"]); err != nil {
		return nil, fmt.Errorf("%w: exception_info: %v", ErrInvalidArgument, err)
	}
	if p.ExpectationConfig, err = decodeAny(fields["expectation_config"]); err != nil {
		return nil, fmt.Errorf("%w: expectation_config: %v", ErrInvalidArgument, err)
	}
	if p.Meta, err = decodeAny(fields["meta"]); err != nil {
		return nil, fmt.Errorf("%w: meta: %v", ErrInvalidArgument, err)
	}

	if p.ID, err = decodeOptionalID(fields, "id"); err != nil {
		return nil, err
	}
	if p.ExpectationID, err = decodeOptionalID(fields, "expectation_id"); err != nil {
		return nil, err
	}
	if p.ValidationReportID, err = decodeOptionalID(fields, "validation_report_id"); err != nil {
		return nil, err
	}
	if raw, ok := fields["observed_value"]; ok {
		if p.ObservedValue, err = decodeAny(raw); err != nil {
			return nil, fmt.Errorf("%w: observed_value: %v", ErrInvalidArgument, err)
		}
	}

	return New(p)
}

func decodeAny(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeOptionalID(fields map[string]json.RawMessage, key string) (*int64, error) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgument, key)
	}
	return &id, nil
}

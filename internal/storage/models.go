package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/y0f/fsclient/internal/validation"
)

// ValidationRecord is a journaled validation result. The mapping fields
// hold the JSON strings of the wire form.
type ValidationRecord struct {
	ID                 int64     `json:"id"`
	RemoteID           *int64    `json:"remote_id,omitempty"`
	Success            bool      `json:"success"`
	Result             string    `json:"result"`
	Meta               string    `json:"meta"`
	ExceptionInfo      string    `json:"exception_info"`
	ExpectationConfig  string    `json:"expectation_config"`
	ObservedValue      string    `json:"observed_value,omitempty"`
	ExpectationID      *int64    `json:"expectation_id,omitempty"`
	ValidationReportID *int64    `json:"validation_report_id,omitempty"`
	Source             string    `json:"source"`
	CreatedAt          time.Time `json:"created_at"`
}

// RecordFromResult converts a result into its journal form.
func RecordFromResult(v *validation.ValidationResult, source string) (*ValidationRecord, error) {
	d, err := v.ToDict()
	if err != nil {
		return nil, err
	}
	r := &ValidationRecord{
		RemoteID:           v.ID(),
		Success:            v.Success(),
		Result:             d["result"].(string),
		Meta:               d["meta"].(string),
		ExceptionInfo:      d["exceptionInfo"].(string),
		ExpectationConfig:  d["expectationConfig"].(string),
		ExpectationID:      v.ExpectationID(),
		ValidationReportID: v.ValidationReportID(),
		Source:             source,
	}
	if ov := v.ObservedValue(); ov != nil {
		b, err := json.Marshal(ov)
		if err != nil {
			return nil, fmt.Errorf("encode observed_value: %w", err)
		}
		r.ObservedValue = string(b)
	}
	return r, nil
}

// ToResult rebuilds the validation result from the journal row.
func (r *ValidationRecord) ToResult() (*validation.ValidationResult, error) {
	p := validation.Params{
		ID:                 r.RemoteID,
		Success:            r.Success,
		Result:             r.Result,
		Meta:               r.Meta,
		ExceptionInfo:      r.ExceptionInfo,
		ExpectationConfig:  r.ExpectationConfig,
		ExpectationID:      r.ExpectationID,
		ValidationReportID: r.ValidationReportID,
	}
	if r.ObservedValue != "" {
		if err := json.Unmarshal([]byte(r.ObservedValue), &p.ObservedValue); err != nil {
			return nil, fmt.Errorf("decode observed_value: %w", err)
		}
	}
	return validation.New(p)
}

// ValidationFilter narrows ListValidationResults. Zero values match all.
type ValidationFilter struct {
	ExpectationID int64
	FailedOnly    bool
	Source        string
}

// Pagination contains parameters for list queries.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Normalize clamps page numbers into range.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
	return p
}

// PaginatedResult wraps a list response with metadata.
type PaginatedResult struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

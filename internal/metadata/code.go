// Package metadata holds provenance records attached to feature store
// commits.
package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RunType is where the code that produced a commit ran.
type RunType string

const (
	RunTypeJupyter    RunType = "JUPYTER"
	RunTypeJob        RunType = "JOB"
	RunTypeDatabricks RunType = "DATABRICKS"
)

func ParseRunType(s string) (RunType, error) {
	switch rt := RunType(strings.ToUpper(strings.TrimSpace(s))); rt {
	case RunTypeJupyter, RunTypeJob, RunTypeDatabricks:
		return rt, nil
	default:
		return "", fmt.Errorf("run type must be one of: JUPYTER, JOB, DATABRICKS")
	}
}

// Code links a commit to the application and source that produced it.
type Code struct {
	CommitTime           *int64 `json:"commitTime,omitempty"`
	FeatureGroupCommitID *int64 `json:"featureGroupCommitId,omitempty"`
	ApplicationID        string `json:"applicationId,omitempty"`
	Content              string `json:"content,omitempty"`
}

func NewCode(commitTime int64, applicationID string) *Code {
	return &Code{CommitTime: &commitTime, ApplicationID: applicationID}
}

// CodeFromResponseJSON decodes a single code record or the items of a
// {"count", "items"} envelope. Unknown keys are ignored.
func CodeFromResponseJSON(data []byte) ([]*Code, error) {
	var env struct {
		Count *int64  `json:"count"`
		Items []*Code `json:"items"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode code: %w", err)
	}
	if env.Count != nil {
		if *env.Count == 0 || env.Items == nil {
			return []*Code{}, nil
		}
		return env.Items, nil
	}

	var c Code
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode code: %w", err)
	}
	return []*Code{&c}, nil
}

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrBodyTooLarge is returned when a response exceeds the 16MB read limit.
var ErrBodyTooLarge = errors.New("response body exceeds 16MB")

// RequestError is returned for any non-2xx response. The backend reports
// failures as {"errorCode": n, "errorMsg": "...", "usrMsg": "..."}.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	ErrorCode  int
	ErrorMsg   string
	UserMsg    string
	Body       string
}

type errorBody struct {
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	UsrMsg    string `json:"usrMsg"`
}

func newRequestError(method, path string, status int, body []byte) *RequestError {
	e := &RequestError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       string(body),
	}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.ErrorCode = eb.ErrorCode
		e.ErrorMsg = eb.ErrorMsg
		e.UserMsg = eb.UsrMsg
	}
	return e
}

func (e *RequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s /%s: HTTP %d", e.Method, e.Path, e.StatusCode)
	if e.ErrorCode != 0 {
		fmt.Fprintf(&b, " (error code %d)", e.ErrorCode)
	}
	switch {
	case e.ErrorMsg != "" && e.UserMsg != "":
		fmt.Fprintf(&b, ": %s: %s", e.ErrorMsg, e.UserMsg)
	case e.ErrorMsg != "":
		fmt.Fprintf(&b, ": %s", e.ErrorMsg)
	case e.Body != "":
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

// Retryable reports whether the status is worth another attempt.
func (e *RequestError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func IsNotFound(err error) bool {
	var e *RequestError
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	var e *RequestError
	return errors.As(err, &e) && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

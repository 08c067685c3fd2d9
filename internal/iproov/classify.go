package iproov

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	dErrors "photoenrol/pkg/domain-errors"
)

// StatusClass names the family of a non-2xx status.
type StatusClass string

const (
	ClassClient  StatusClass = "Client Error"
	ClassServer  StatusClass = "Server Error"
	ClassUnknown StatusClass = "Unknown Error"
)

// StatusError is returned for every response outside 2xx.
type StatusError struct {
	Step       string
	StatusCode int
	Class      StatusClass
	// Body is the compacted JSON error payload, or the raw text when the
	// body was not JSON.
	Body   string
	IsJSON bool
}

// Error renders the failure the way it is logged, e.g.
// Client Error during "enrol image": <403 Forbidden, {"error":"forbidden"}>
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s during %q: <%s, %s>", e.Class, e.Step, statusLine(e.StatusCode), e.Body)
}

// Code maps the class to a domain error code.
func (e *StatusError) Code() dErrors.Code {
	switch e.Class {
	case ClassClient:
		return dErrors.CodeClientError
	case ClassServer:
		return dErrors.CodeServerError
	default:
		return dErrors.CodeUnknownStatus
	}
}

// Unwrap exposes the domain code to dErrors.HasCode and errors.Is.
func (e *StatusError) Unwrap() error {
	return &dErrors.Error{Code: e.Code(), Message: e.Error()}
}

// ErrorBody decodes the JSON error payload. It returns nil when the body was
// not JSON.
func (e *StatusError) ErrorBody() any {
	if !e.IsJSON {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(e.Body), &v); err != nil {
		return nil
	}
	return v
}

// Classify maps a status to its class. ok is true only for 2xx.
func Classify(status int) (class StatusClass, ok bool) {
	switch {
	case status >= 200 && status < 300:
		return "", true
	case status >= 400 && status < 500:
		return ClassClient, false
	case status >= 500 && status < 600:
		return ClassServer, false
	default:
		return ClassUnknown, false
	}
}

// classify returns nil for 2xx and a *StatusError otherwise.
func classify(status int, body []byte, step string) error {
	class, ok := Classify(status)
	if ok {
		return nil
	}
	rendered, isJSON := renderBody(body)
	return &StatusError{
		Step:       step,
		StatusCode: status,
		Class:      class,
		Body:       rendered,
		IsJSON:     isJSON,
	}
}

func renderBody(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "null", false
	}
	var buf bytes.Buffer
	if json.Valid(trimmed) && json.Compact(&buf, trimmed) == nil {
		return buf.String(), true
	}
	return strings.ToValidUTF8(string(trimmed), "?"), false
}

func statusLine(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("%d", code)
}

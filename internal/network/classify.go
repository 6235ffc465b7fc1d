// Package network classifies transport failures into a fixed error
// taxonomy and computes retry delays from a declarative policy table.
// The table is data, not code: status-code sets, keyword sets, retry
// budgets and delay schedules are all tunable without touching call sites.
package network

import (
	"fmt"
	"strings"
)

// ErrorType is the classified category of a failed network operation.
type ErrorType string

const (
	TypeOffline    ErrorType = "offline"
	TypeTimeout    ErrorType = "timeout"
	TypeRateLimit  ErrorType = "rate_limit"
	TypeProxy      ErrorType = "proxy_error"
	TypeCloudflare ErrorType = "cloudflare_error"
	TypeServer     ErrorType = "server_error"
	TypeAuth       ErrorType = "auth_error"
	TypeUnknown    ErrorType = "unknown"
)

// Error is a classified network error. It is derived per failed call and
// never persisted.
type Error struct {
	Type       ErrorType
	Message    string // user-presentable message from the rule table
	Retryable  bool
	StatusCode int // zero when the failure never produced a response
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Type, e.Cause)
	}
	return string(e.Type)
}

// Unwrap returns the original transport error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPError is the raw transport-level failure produced by a request
// attempt: a non-2xx status plus whatever body the server returned.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// Classify maps err to its error category using the policy's ordered rule
// table. The first rule whose status-code set contains the observed
// status, or whose keyword set matches the error text, wins. When no rule
// matches and the client is offline, the failure classifies as offline;
// otherwise it is unknown and not retryable.
func (p *Policy) Classify(err error, online bool) *Error {
	if err == nil {
		return &Error{Type: TypeUnknown, Message: p.message(TypeUnknown), Retryable: false}
	}

	status := 0
	text := err.Error()
	if httpErr, ok := asHTTPError(err); ok {
		status = httpErr.StatusCode
		text = text + " " + httpErr.Body
	}
	lower := strings.ToLower(text)

	for _, rule := range p.rules {
		if !rule.Enabled {
			continue
		}
		if matchesStatus(rule, status) || matchesKeyword(rule, lower) {
			return &Error{
				Type:       rule.Type,
				Message:    rule.Message,
				Retryable:  rule.MaxRetries > 0,
				StatusCode: status,
				Cause:      err,
			}
		}
	}

	if !online {
		return &Error{
			Type:       TypeOffline,
			Message:    p.message(TypeOffline),
			Retryable:  p.MaxRetries(TypeOffline) > 0,
			StatusCode: status,
			Cause:      err,
		}
	}

	return &Error{
		Type:       TypeUnknown,
		Message:    p.message(TypeUnknown),
		Retryable:  false,
		StatusCode: status,
		Cause:      err,
	}
}

// Offline builds the classified error used when a call is refused before
// any network attempt because the device reports no connectivity. Both
// the fast-fail path and the per-attempt check produce this same shape.
func (p *Policy) Offline() *Error {
	return &Error{
		Type:      TypeOffline,
		Message:   p.message(TypeOffline),
		Retryable: p.MaxRetries(TypeOffline) > 0,
	}
}

func matchesStatus(rule Rule, status int) bool {
	if status == 0 {
		return false
	}
	for _, s := range rule.StatusCodes {
		if s == status {
			return true
		}
	}
	return false
}

func matchesKeyword(rule Rule, lowerText string) bool {
	for _, kw := range rule.Keywords {
		if kw != "" && strings.Contains(lowerText, kw) {
			return true
		}
	}
	return false
}

func asHTTPError(err error) (*HTTPError, bool) {
	for err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			return httpErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

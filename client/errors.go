package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/go-auth-client/authmodel"
)

// Error kinds surfaced to callers, matched with errors.Is. ErrSessionExpired
// wraps the reason the refresh failed, which may itself match another kind.
var (
	// ErrNetworkFailure means the request got no response at all
	ErrNetworkFailure = errors.New("network failure")
	// ErrAuthenticationRejected means the issuance or refresh endpoint refused the credentials
	ErrAuthenticationRejected = errors.New("authentication rejected")
	// ErrSessionExpired means a request failed authentication, the refresh failed too,
	// and the session has been cleared
	ErrSessionExpired = errors.New("session expired")
	// ErrValidationFailure means the server rejected the request fields
	ErrValidationFailure = errors.New("validation failure")
	// ErrRequestFailed covers every other non-2xx response
	ErrRequestFailed = errors.New("request failed")
	// ErrNoRefreshToken means a refresh was needed but no refresh token is persisted
	ErrNoRefreshToken = errors.New("no refresh token")
)

// maxErrorBody bounds how much of an error response is kept
const maxErrorBody = 64 << 10

// endpointKind decides how an error response is classified
type endpointKind int

const (
	kindGeneric endpointKind = iota
	kindIssuance
	kindRefresh
)

// APIError is a non-2xx response decoded from the server error body.
// It unwraps to one of the error kinds above.
type APIError struct {
	StatusCode int                 // HTTP status of the response
	Detail     string              // "detail" message, if any
	Code       string              // "code" value, if any
	Fields     map[string][]string // Field name to messages; non_field_errors included
	Body       []byte              // Raw body, truncated to 64KiB
	kind       error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: status %d", e.kind, e.StatusCode)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "; %s: %s", name, strings.Join(e.Fields[name], " "))
		}
	}
	return b.String()
}

// Unwrap returns the error kind
func (e *APIError) Unwrap() error {
	return e.kind
}

// FieldError returns the first message for field, or an empty string
func (e *APIError) FieldError(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func newAPIError(resp *http.Response, kind endpointKind) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Fields:     make(map[string][]string),
	}
	parseErrorBody(apiErr, body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized && kind != kindGeneric:
		apiErr.kind = ErrAuthenticationRejected
	case resp.StatusCode == http.StatusBadRequest:
		apiErr.kind = ErrValidationFailure
	default:
		apiErr.kind = ErrRequestFailed
	}
	return apiErr
}

// parseErrorBody reads a Django REST framework style error object:
// {"detail": "...", "code": "..."} or {"field": ["msg", ...], "other": "msg"}
func parseErrorBody(apiErr *APIError, body []byte) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return
	}
	for key, raw := range obj {
		switch key {
		case authmodel.DetailKey:
			_ = json.Unmarshal(raw, &apiErr.Detail)
		case authmodel.CodeKey:
			_ = json.Unmarshal(raw, &apiErr.Code)
		default:
			if msgs := messages(raw); len(msgs) > 0 {
				apiErr.Fields[key] = msgs
			}
		}
	}
}

func messages(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var anyList []any
	if err := json.Unmarshal(raw, &anyList); err == nil {
		out := make([]string, 0, len(anyList))
		for _, v := range anyList {
			out = append(out, fmt.Sprint(v))
		}
		return out
	}
	return []string{string(raw)}
}

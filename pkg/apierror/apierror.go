// Package apierror defines the failure taxonomy shared by every remote call:
// transport failures are normalised into an *Error carrying a Kind, the HTTP
// status (when one was received) and a per-field message map, so state
// transitions never have to look at raw transport errors.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Kind classifies a failed remote call.
type Kind string

const (
	// KindNetwork means no response reached the client.
	KindNetwork Kind = "network"
	// KindValidation means the server rejected the payload (400/422 and other
	// client errors), usually with per-field messages.
	KindValidation Kind = "validation"
	// KindNotFound means the resource does not exist (404).
	KindNotFound Kind = "not_found"
	// KindServer means the server failed (5xx).
	KindServer Kind = "server"
	// KindAuth means the request was not authenticated or authorised (401/403).
	KindAuth Kind = "auth"
)

const (
	textCodeNetwork    = "SETTINGS_NETWORK_ERROR"
	textCodeValidation = "SETTINGS_VALIDATION_ERROR"
	textCodeNotFound   = "SETTINGS_NOT_FOUND"
	textCodeServer     = "SETTINGS_SERVER_ERROR"
	textCodeAuth       = "SETTINGS_AUTH_ERROR"
)

// Error is the normalised failure value returned by gateways and resources.
type Error struct {
	Kind        Kind
	Status      int
	Message     string
	FieldErrors FieldErrors
	// Err holds the go-errors value carrying the category that matches Kind,
	// wrapping the original cause when there is one.
	Err error
}

// New builds an Error of kind, wrapping cause (which may be nil).
func New(kind Kind, status int, message string, cause error) *Error {
	if message == "" {
		message = defaultMessage(kind, status)
	}
	if cause == nil {
		cause = errors.New(message)
	}
	return &Error{
		Kind:    kind,
		Status:  status,
		Message: message,
		Err:     goerrors.Wrap(cause, categoryFor(kind), message).WithTextCode(textCodeFor(kind)),
	}
}

// Network wraps a transport failure where no response was received.
func Network(cause error) *Error {
	return New(KindNetwork, 0, "", cause)
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status > 0 {
		return fmt.Sprintf("apierror: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("apierror: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithFieldErrors returns a copy of e carrying fields.
func (e *Error) WithFieldErrors(fields FieldErrors) *Error {
	if e == nil {
		return nil
	}
	out := *e
	out.FieldErrors = fields.Clone()
	return &out
}

// HasFieldErrors reports whether the failure is scoped to specific fields.
func (e *Error) HasFieldErrors() bool {
	return e != nil && len(e.FieldErrors) > 0
}

// FromResponse classifies a non-2xx response. Validation bodies are unpacked
// into FieldErrors.
func FromResponse(status int, body []byte) *Error {
	var kind Kind
	switch {
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status >= http.StatusInternalServerError:
		kind = KindServer
	case status >= http.StatusBadRequest:
		kind = KindValidation
	default:
		kind = KindServer
	}

	payload := decodeBody(body)
	err := New(kind, status, summaryMessage(payload), nil)
	if kind == KindValidation {
		err.FieldErrors = UnpackFieldErrors(payload)
	}
	return err
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// Is reports whether err is an *Error of kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FieldErrorsOf returns the field errors carried by err, if any.
func FieldErrorsOf(err error) FieldErrors {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.FieldErrors.Clone()
	}
	return nil
}

// FieldErrors maps a client-facing field name to its messages.
type FieldErrors map[string][]string

// Clone returns a deep copy of f.
func (f FieldErrors) Clone() FieldErrors {
	if f == nil {
		return nil
	}
	out := make(FieldErrors, len(f))
	for field, messages := range f {
		out[field] = append([]string(nil), messages...)
	}
	return out
}

// Merge returns a new map holding f overlaid with other.
func (f FieldErrors) Merge(other FieldErrors) FieldErrors {
	if len(f) == 0 && len(other) == 0 {
		return nil
	}
	out := f.Clone()
	if out == nil {
		out = FieldErrors{}
	}
	for field, messages := range other {
		out[field] = append([]string(nil), messages...)
	}
	return out
}

// FanOut copies the messages reported for source onto every target field and
// removes source. Used when one server key backs several client fields.
func (f FieldErrors) FanOut(source string, targets ...string) FieldErrors {
	messages, ok := f[source]
	if !ok {
		return f.Clone()
	}
	out := f.Clone()
	delete(out, source)
	for _, target := range targets {
		out[target] = append([]string(nil), messages...)
	}
	return out
}

// Messages flattens each field's messages into a single display string.
func (f FieldErrors) Messages() map[string]string {
	if len(f) == 0 {
		return nil
	}
	out := make(map[string]string, len(f))
	for field, messages := range f {
		out[field] = strings.Join(messages, " ")
	}
	return out
}

// Fields returns the field names in sorted order.
func (f FieldErrors) Fields() []string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// UnpackFieldErrors extracts per-field messages from a decoded error body.
// It understands {"field_errors": {field: {"user_message": ...}}} as well as
// plain {field: ["message", ...]} bodies.
func UnpackFieldErrors(payload map[string]any) FieldErrors {
	if payload == nil {
		return nil
	}
	source := payload
	if nested, ok := payload["field_errors"].(map[string]any); ok {
		source = nested
	} else if !looksLikeFieldMap(payload) {
		return nil
	}

	out := FieldErrors{}
	for field, raw := range source {
		if messages := messagesFrom(raw); len(messages) > 0 {
			out[field] = messages
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func messagesFrom(raw any) []string {
	switch typed := raw.(type) {
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	case map[string]any:
		for _, key := range []string{"user_message", "developer_message", "message", "detail"} {
			if msg, ok := typed[key].(string); ok && msg != "" {
				return []string{msg}
			}
		}
		return nil
	case []any:
		var out []string
		for _, item := range typed {
			out = append(out, messagesFrom(item)...)
		}
		return out
	default:
		return nil
	}
}

func looksLikeFieldMap(payload map[string]any) bool {
	if len(payload) == 0 {
		return false
	}
	for key, value := range payload {
		if key == "detail" || key == "developer_message" || key == "user_message" || key == "error_code" {
			return false
		}
		if _, ok := value.([]any); !ok {
			return false
		}
	}
	return true
}

func decodeBody(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}

func summaryMessage(payload map[string]any) string {
	for _, key := range []string{"user_message", "developer_message", "detail", "error"} {
		if msg, ok := payload[key].(string); ok && msg != "" {
			return msg
		}
	}
	return ""
}

func defaultMessage(kind Kind, status int) string {
	switch kind {
	case KindNetwork:
		return "no response received"
	case KindNotFound:
		return "resource not found"
	case KindAuth:
		return "request not authorised"
	case KindValidation:
		return "request rejected"
	case KindServer:
		if status > 0 {
			return http.StatusText(status)
		}
		return "server error"
	default:
		return "request failed"
	}
}

func categoryFor(kind Kind) goerrors.Category {
	switch kind {
	case KindValidation:
		return goerrors.CategoryValidation
	case KindNotFound:
		return goerrors.CategoryNotFound
	case KindAuth:
		return goerrors.CategoryAuth
	default:
		return goerrors.CategoryExternal
	}
}

func textCodeFor(kind Kind) string {
	switch kind {
	case KindNetwork:
		return textCodeNetwork
	case KindValidation:
		return textCodeValidation
	case KindNotFound:
		return textCodeNotFound
	case KindAuth:
		return textCodeAuth
	default:
		return textCodeServer
	}
}

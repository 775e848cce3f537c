package transport

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcrud/pkg/model"
)

// Op names the transport operation that failed.
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ErrNotFound matches an *Error whose response status was 404.
var ErrNotFound = errors.New("transport: record not found")

// Error reports a non-2xx response or a network fault. Message is the
// user-facing summary; Fields and Form carry any server-provided details.
type Error struct {
	Op      Op
	Status  int
	Message string
	Fields  map[string][]string
	Form    []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Status > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e != nil && e.Status == http.StatusNotFound
}

// FieldErrors returns the first message per field, suitable for a form.
func (e *Error) FieldErrors() map[string]string {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Fields))
	for name, messages := range e.Fields {
		if len(messages) > 0 {
			out[name] = messages[0]
		}
	}
	return out
}

// FailureMessage returns the default summary for op on schema's collection,
// e.g. "Failed to fetch users" or "Failed to create user".
func FailureMessage(schema model.Schema, op Op) string {
	singular := model.Noun(schema.SingularName())
	switch op {
	case OpList:
		return "Failed to fetch " + model.Noun(schema.PluralName())
	case OpGet:
		return "Failed to fetch " + singular
	case OpCreate:
		return "Failed to create " + singular
	case OpUpdate:
		return "Failed to update " + singular
	case OpDelete:
		return "Failed to delete " + singular
	default:
		return "Request failed"
	}
}

// ErrorMapping splits a server error payload into field and form messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapErrorPayload normalises server error paths ("/body/email",
// "data.attributes.email", "$.email") onto schema field names. Paths that do
// not resolve to a field become form-level messages so nothing is lost.
func MapErrorPayload(schema model.Schema, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, rawPath := range keys {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		name, ok := resolveField(rawPath, schema)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = normalizeMessages(append(mapping.Fields[name], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func resolveField(raw string, schema model.Schema) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := stripNumericSegments(dropWrapperSegments(parsePathSegments(raw)))
	for _, segment := range segments {
		if schema.Has(segment) {
			return segment, true
		}
	}
	return "", false
}

func normalizeMessages(messages []string) []string {
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
}

func dropWrapperSegments(segments []string) []string {
	for len(segments) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(segments[0])]; !ok {
			break
		}
		segments = segments[1:]
	}
	return segments
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}

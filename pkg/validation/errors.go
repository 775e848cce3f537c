package validation

import (
	"errors"
	"sort"
)

// Rule identifiers reported on FieldError.
const (
	RuleRequired  = "required"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RuleMin       = "min"
	RuleMax       = "max"
	RulePattern   = "pattern"
	RuleMaxDate   = "maxDate"
	RuleMinDate   = "minDate"
	RuleCustom    = "custom"
	RulePredicate = "predicate"
)

// FieldError describes the first rule a value failed.
type FieldError struct {
	Rule    string
	Message string
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// MessageOf returns the user-facing message carried by err, or the empty
// string when err is nil.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Message
	}
	return err.Error()
}

// Errors maps field names to messages. A field without an entry is valid.
type Errors map[string]string

// Empty reports whether no field failed.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Fields returns the failing field names sorted alphabetically.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	if e == nil {
		return Errors{}
	}
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

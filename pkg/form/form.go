// Package form implements the edit-surface state machine: field values,
// per-field errors, touched flags and the submitting phase.
//
// Validation is lazy: a field is validated on blur, on change once touched,
// and on submit, which touches every field. Every transition publishes a new
// Snapshot; snapshots already handed out are never modified.
package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/validation"
)

// Phase is the form-level state.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
)

var (
	// ErrSubmitting is returned by Submit while a previous submission is
	// still running.
	ErrSubmitting = errors.New("form: submission already in progress")
	// ErrUnknownField is returned for field names the schema does not declare.
	ErrUnknownField = errors.New("form: unknown field")
)

// InvalidError is returned by Submit when at least one field fails
// validation. The submit function is not called.
type InvalidError struct {
	Errors validation.Errors
}

func (e *InvalidError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "form: invalid"
	}
	return "form: invalid fields: " + strings.Join(e.Errors.Fields(), ", ")
}

// Snapshot is an immutable view of the form. Callers must not modify the
// maps it carries.
type Snapshot struct {
	Values  map[string]string
	Errors  validation.Errors
	Touched map[string]bool
	Phase   Phase
}

// Value returns the current value of name.
func (s Snapshot) Value(name string) string {
	return s.Values[name]
}

// VisibleError returns the error for name only once the field is touched.
func (s Snapshot) VisibleError(name string) string {
	if !s.Touched[name] {
		return ""
	}
	return s.Errors[name]
}

// Valid reports whether no field currently carries an error.
func (s Snapshot) Valid() bool {
	return len(s.Errors) == 0
}

// SubmitFunc persists the validated values.
type SubmitFunc func(ctx context.Context, values map[string]string) error

// Option customises a Form.
type Option func(*Form)

// WithEngine sets the validation engine. The package default is used
// otherwise.
func WithEngine(engine *validation.Engine) Option {
	return func(f *Form) {
		if engine != nil {
			f.engine = engine
		}
	}
}

// Form holds the state of one edit surface. It is safe for concurrent use.
type Form struct {
	schema model.Schema
	engine *validation.Engine

	mu    sync.Mutex
	state Snapshot
}

// New seeds a form from the schema defaults overlaid with initial. Keys in
// initial that the schema does not declare are dropped.
func New(schema model.Schema, initial map[string]string, opts ...Option) *Form {
	values := schema.InitialValues()
	for name, value := range initial {
		if _, ok := values[name]; ok {
			values[name] = value
		}
	}

	f := &Form{
		schema: schema,
		engine: validation.Default(),
		state: Snapshot{
			Values:  values,
			Errors:  validation.Errors{},
			Touched: map[string]bool{},
			Phase:   PhaseEditing,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Schema returns the schema the form was built from.
func (f *Form) Schema() model.Schema {
	return f.schema
}

// Snapshot returns the current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// VisibleError returns the error for name when the field is touched.
func (f *Form) VisibleError(name string) string {
	return f.Snapshot().VisibleError(name)
}

// Change records a new value. A touched field is revalidated immediately; an
// untouched field keeps whatever error it had.
func (f *Form) Change(name, value string) (Snapshot, error) {
	field, ok := f.schema.Field(name)
	if !ok {
		return f.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.state
	next.Values = withValue(f.state.Values, name, value)
	if f.state.Touched[name] {
		next.Errors = withError(f.state.Errors, name, f.validate(field, value))
	}
	f.state = next
	return next, nil
}

// Blur marks name touched and revalidates it.
func (f *Form) Blur(name string) (Snapshot, error) {
	field, ok := f.schema.Field(name)
	if !ok {
		return f.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.state
	next.Touched = withTouched(f.state.Touched, name)
	next.Errors = withError(f.state.Errors, name, f.validate(field, f.state.Values[name]))
	f.state = next
	return next, nil
}

// Attempt touches every field and validates the whole form. It returns a copy
// of the values, the error mapping and whether the form is valid.
func (f *Form) Attempt() (map[string]string, validation.Errors, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, errs := f.attemptLocked()
	return values, errs, errs.Empty()
}

func (f *Form) attemptLocked() (map[string]string, validation.Errors) {
	touched := make(map[string]bool, len(f.schema.Fields))
	for name, v := range f.state.Touched {
		touched[name] = v
	}
	for _, field := range f.schema.Fields {
		touched[field.Name] = true
	}

	errs := f.engine.ValidateForm(f.state.Values, f.schema.Fields)
	next := f.state
	next.Touched = touched
	next.Errors = errs
	f.state = next
	return copyValues(f.state.Values), errs.Clone()
}

// Submit runs Attempt and, when the form is valid, calls fn exactly once with
// the current values while the phase is submitting. Invalid forms return an
// *InvalidError without calling fn. A Submit issued while another is running
// returns ErrSubmitting and changes nothing.
func (f *Form) Submit(ctx context.Context, fn SubmitFunc) error {
	if ctx == nil {
		return errors.New("form: context is required")
	}
	if fn == nil {
		return errors.New("form: submit function is required")
	}

	f.mu.Lock()
	if f.state.Phase == PhaseSubmitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	values, errs := f.attemptLocked()
	if !errs.Empty() {
		f.mu.Unlock()
		return &InvalidError{Errors: errs}
	}
	f.setPhaseLocked(PhaseSubmitting)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.setPhaseLocked(PhaseEditing)
		f.mu.Unlock()
	}()
	return fn(ctx, values)
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	return f.Snapshot().Phase == PhaseSubmitting
}

// SetErrors replaces the errors of the named fields and marks them touched,
// so server-side or cross-record errors become visible. Names outside the
// schema are ignored. An empty message clears the field's error.
func (f *Form) SetErrors(errs map[string]string) Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.state
	names := make([]string, 0, len(errs))
	for name := range errs {
		if f.schema.Has(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		next.Errors = withError(next.Errors, name, errs[name])
		next.Touched = withTouched(next.Touched, name)
	}
	f.state = next
	return next
}

func (f *Form) setPhaseLocked(phase Phase) {
	next := f.state
	next.Phase = phase
	f.state = next
}

func (f *Form) validate(field model.Field, value string) string {
	return validation.MessageOf(f.engine.ValidateField(value, field.Rules, field.Required))
}

func withValue(values map[string]string, name, value string) map[string]string {
	out := copyValues(values)
	out[name] = value
	return out
}

func withTouched(touched map[string]bool, name string) map[string]bool {
	out := make(map[string]bool, len(touched)+1)
	for k, v := range touched {
		out[k] = v
	}
	out[name] = true
	return out
}

func withError(errs validation.Errors, name, message string) validation.Errors {
	out := errs.Clone()
	if message == "" {
		delete(out, name)
	} else {
		out[name] = message
	}
	return out
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formcrud/pkg/model"
)

// RequiredMessage is reported for a required field left blank.
const RequiredMessage = "This field is required"

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to resolve the "today" date bound.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRegistry sets the registry consulted for Rules.Custom predicates.
func WithRegistry(reg *Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// Engine evaluates rule bundles. The zero value is not usable; call New.
type Engine struct {
	now      func() time.Time
	registry *Registry

	mu      sync.RWMutex
	regexes map[string]*regexp.Regexp
}

// New constructs an Engine using the system clock and an empty registry
// unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:      time.Now,
		registry: NewRegistry(),
		regexes:  make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Registry exposes the engine's predicate registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

var defaultEngine = New()

// Default returns the engine behind the package-level helpers.
func Default() *Engine {
	return defaultEngine
}

// ValidateField validates value with the default engine.
func ValidateField(value string, rules *model.Rules, required bool) error {
	return defaultEngine.ValidateField(value, rules, required)
}

// ValidateForm validates values against fields with the default engine.
func ValidateForm(values map[string]string, fields []model.Field) Errors {
	return defaultEngine.ValidateForm(values, fields)
}

// ValidateField returns a *FieldError for the first rule value fails, or nil.
// Blank optional values pass without consulting any other rule.
func (e *Engine) ValidateField(value string, rules *model.Rules, required bool) error {
	blank := strings.TrimSpace(value) == ""
	if required && blank {
		return &FieldError{Rule: RuleRequired, Message: RequiredMessage}
	}
	if blank || rules == nil {
		return nil
	}

	checks := []func(string, *model.Rules) *FieldError{
		checkLength,
		checkRange,
		e.checkPattern,
		e.checkDates,
		e.checkCustom,
		checkPredicate,
	}
	for _, check := range checks {
		if err := check(value, rules); err != nil {
			return err
		}
	}
	return nil
}

// ValidateForm validates every field, treating a missing value as blank. Only
// failing fields appear in the result.
func (e *Engine) ValidateForm(values map[string]string, fields []model.Field) Errors {
	errs := make(Errors)
	for _, field := range fields {
		if err := e.ValidateField(values[field.Name], field.Rules, field.Required); err != nil {
			errs[field.Name] = MessageOf(err)
		}
	}
	return errs
}

// ValidateSchemaField validates a single named field of schema.
func (e *Engine) ValidateSchemaField(schema model.Schema, name, value string) error {
	field, ok := schema.Field(name)
	if !ok {
		return nil
	}
	return e.ValidateField(value, field.Rules, field.Required)
}

func checkLength(value string, rules *model.Rules) *FieldError {
	length := utf8.RuneCountInString(value)
	if rules.MinLength != nil && length < *rules.MinLength {
		return &FieldError{Rule: RuleMinLength, Message: fmt.Sprintf("Must be at least %d characters", *rules.MinLength)}
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return &FieldError{Rule: RuleMaxLength, Message: fmt.Sprintf("Must be no more than %d characters", *rules.MaxLength)}
	}
	return nil
}

// decimalNumber admits plain decimal notation only; ParseFloat alone would
// also take inf, nan and hex floats.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func checkRange(value string, rules *model.Rules) *FieldError {
	if rules.Min == nil && rules.Max == nil {
		return nil
	}
	value = strings.TrimSpace(value)
	valid := decimalNumber.MatchString(value)
	var number float64
	if valid {
		var err error
		number, err = strconv.ParseFloat(value, 64)
		valid = err == nil
	}

	if rules.Min != nil && (!valid || number < *rules.Min) {
		return &FieldError{Rule: RuleMin, Message: "Must be at least " + formatBound(*rules.Min)}
	}
	if rules.Max != nil && (!valid || number > *rules.Max) {
		return &FieldError{Rule: RuleMax, Message: "Must be no more than " + formatBound(*rules.Max)}
	}
	return nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (e *Engine) checkPattern(value string, rules *model.Rules) *FieldError {
	switch {
	case rules.Pattern != "":
		named, ok := namedPatterns[rules.Pattern]
		if !ok {
			return &FieldError{Rule: RulePattern, Message: InvalidFormatMessage}
		}
		if !named.expr.MatchString(value) {
			return &FieldError{Rule: RulePattern, Message: named.message}
		}
	case rules.Regex != "":
		expr, err := e.compile(rules.Regex)
		if err != nil || !expr.MatchString(value) {
			return &FieldError{Rule: RulePattern, Message: InvalidFormatMessage}
		}
	}
	return nil
}

func (e *Engine) compile(source string) (*regexp.Regexp, error) {
	e.mu.RLock()
	expr, ok := e.regexes[source]
	e.mu.RUnlock()
	if ok {
		return expr, nil
	}

	expr, err := regexp.Compile(source)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.regexes[source] = expr
	e.mu.Unlock()
	return expr, nil
}

// Dates are compared as ISO strings, which orders correctly for YYYY-MM-DD.
func (e *Engine) checkDates(value string, rules *model.Rules) *FieldError {
	if rules.MaxDate != "" {
		bound := rules.MaxDate
		if bound == model.DateToday {
			bound = e.now().UTC().Format(model.ISODate)
		}
		if value > bound {
			return &FieldError{Rule: RuleMaxDate, Message: "Date must be on or before " + rules.MaxDate}
		}
	}
	if rules.MinDate != "" && value < rules.MinDate {
		return &FieldError{Rule: RuleMinDate, Message: "Date must be on or after " + rules.MinDate}
	}
	return nil
}

func (e *Engine) checkCustom(value string, rules *model.Rules) *FieldError {
	if rules.Custom == "" {
		return nil
	}
	fn, ok := e.registry.Lookup(rules.Custom)
	if !ok {
		return &FieldError{Rule: RuleCustom, Message: fmt.Sprintf("Unknown validator %q", rules.Custom)}
	}
	return asFieldError(RuleCustom, fn(value))
}

func checkPredicate(value string, rules *model.Rules) *FieldError {
	if rules.Predicate == nil {
		return nil
	}
	return asFieldError(RulePredicate, rules.Predicate(value))
}

func asFieldError(rule string, err error) *FieldError {
	if err == nil {
		return nil
	}
	message := MessageOf(err)
	if message == "" {
		message = InvalidFormatMessage
	}
	return &FieldError{Rule: rule, Message: message}
}

package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ISODate is the layout used for date values and date bounds.
const ISODate = "2006-01-02"

var knownPatterns = map[string]struct{}{
	PatternEmail:        {},
	PatternPhone:        {},
	PatternURL:          {},
	PatternAlphanumeric: {},
	PatternAlpha:        {},
}

var knownKinds = map[FieldKind]struct{}{
	KindText:     {},
	KindEmail:    {},
	KindPhone:    {},
	KindNumber:   {},
	KindDate:     {},
	KindSelect:   {},
	KindTextArea: {},
	KindURL:      {},
}

// IsNamedPattern reports whether name is one of the built-in patterns.
func IsNamedPattern(name string) bool {
	_, ok := knownPatterns[name]
	return ok
}

// InitialValues returns the values a new form starts with: each field's
// declared default, or the empty string.
func (s Schema) InitialValues() map[string]string {
	return InitialValues(s.Fields)
}

// InitialValues derives the seed values for a field list.
func InitialValues(fields []Field) map[string]string {
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		values[field.Name] = field.Default
	}
	return values
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		names = append(names, field.Name)
	}
	return names
}

// Has reports whether the schema declares name.
func (s Schema) Has(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// SingularName returns the display noun for one record, falling back to the
// resource name.
func (s Schema) SingularName() string {
	if s.Singular != "" {
		return s.Singular
	}
	if s.Resource != "" {
		return DefaultLabeler(strings.TrimSuffix(s.Resource, "s"))
	}
	return "Record"
}

// PluralName returns the display noun for the collection.
func (s Schema) PluralName() string {
	if s.Plural != "" {
		return s.Plural
	}
	return s.SingularName() + "s"
}

// Validate checks the schema invariants: unique non-empty names, known kinds
// and patterns, choices present exactly on select fields, consistent bounds and
// references to declared fields. All problems are reported together.
func (s Schema) Validate() error {
	var errs []error
	if len(s.Fields) == 0 {
		errs = append(errs, errors.New("schema: at least one field is required"))
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for idx, field := range s.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("schema: field %d has an empty name", idx))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("schema: duplicate field %q", name))
		}
		seen[name] = struct{}{}

		if err := validateField(field); err != nil {
			errs = append(errs, err)
		}
	}

	if s.UniqueKey != "" {
		if _, ok := seen[s.UniqueKey]; !ok {
			errs = append(errs, fmt.Errorf("schema: unique key %q is not a declared field", s.UniqueKey))
		}
	}
	for _, name := range s.DisplayFields {
		if _, ok := seen[name]; !ok {
			errs = append(errs, fmt.Errorf("schema: display field %q is not a declared field", name))
		}
	}

	return errors.Join(errs...)
}

func validateField(field Field) error {
	var errs []error
	prefix := "schema: field " + field.Name

	if _, ok := knownKinds[field.Kind]; !ok {
		errs = append(errs, fmt.Errorf("%s: unknown kind %q", prefix, field.Kind))
	}

	switch {
	case field.Kind == KindSelect && len(field.Choices) == 0:
		errs = append(errs, fmt.Errorf("%s: select fields require options", prefix))
	case field.Kind != KindSelect && len(field.Choices) > 0:
		errs = append(errs, fmt.Errorf("%s: options are only allowed on select fields", prefix))
	}

	rules := field.Rules
	if rules == nil {
		return errors.Join(errs...)
	}

	if rules.MinLength != nil && *rules.MinLength < 0 {
		errs = append(errs, fmt.Errorf("%s: minLength must not be negative", prefix))
	}
	if rules.MinLength != nil && rules.MaxLength != nil && *rules.MinLength > *rules.MaxLength {
		errs = append(errs, fmt.Errorf("%s: minLength exceeds maxLength", prefix))
	}
	if rules.Min != nil && rules.Max != nil && *rules.Min > *rules.Max {
		errs = append(errs, fmt.Errorf("%s: min exceeds max", prefix))
	}
	if rules.Pattern != "" && !IsNamedPattern(rules.Pattern) {
		errs = append(errs, fmt.Errorf("%s: unknown pattern %q", prefix, rules.Pattern))
	}
	if rules.Pattern != "" && rules.Regex != "" {
		errs = append(errs, fmt.Errorf("%s: pattern and regex are mutually exclusive", prefix))
	}
	if rules.Regex != "" {
		if _, err := regexp.Compile(rules.Regex); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid regex: %w", prefix, err))
		}
	}
	if rules.MaxDate != "" && rules.MaxDate != DateToday {
		if _, err := time.Parse(ISODate, rules.MaxDate); err != nil {
			errs = append(errs, fmt.Errorf("%s: maxDate %q is not a YYYY-MM-DD date", prefix, rules.MaxDate))
		}
	}
	if rules.MinDate != "" {
		if _, err := time.Parse(ISODate, rules.MinDate); err != nil {
			errs = append(errs, fmt.Errorf("%s: minDate %q is not a YYYY-MM-DD date", prefix, rules.MinDate))
		}
	}

	return errors.Join(errs...)
}

// Int returns a pointer to v; convenient for building Rules literals.
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v; convenient for building Rules literals.
func Float(v float64) *float64 {
	return &v
}

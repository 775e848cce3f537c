package model

// FieldKind enumerates the input kinds a schema field can declare. Values match
// the HTML input vocabulary so renderers can use them directly.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindPhone    FieldKind = "tel"
	KindNumber   FieldKind = "number"
	KindDate     FieldKind = "date"
	KindSelect   FieldKind = "select"
	KindTextArea FieldKind = "textarea"
	KindURL      FieldKind = "url"
)

// Named validation patterns accepted by Rules.Pattern.
const (
	PatternEmail        = "email"
	PatternPhone        = "phone"
	PatternURL          = "url"
	PatternAlphanumeric = "alphanumeric"
	PatternAlpha        = "alpha"
)

// DateToday is the MaxDate sentinel resolved to the current date when a value
// is validated.
const DateToday = "today"

// DefaultTextAreaRows is used by renderers when a textarea field omits Rows.
const DefaultTextAreaRows = 4

// Rules bundles the optional validation constraints for a field. Pointer
// fields distinguish "unset" from a zero bound. Pattern names one of the
// built-in patterns while Regex carries a custom expression; Custom references
// a predicate registered with the validation engine. Predicate is the Go-only
// escape hatch and never round-trips through schema files.
type Rules struct {
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Regex     string   `json:"regex,omitempty" yaml:"regex,omitempty"`
	MaxDate   string   `json:"maxDate,omitempty" yaml:"maxDate,omitempty"`
	MinDate   string   `json:"minDate,omitempty" yaml:"minDate,omitempty"`
	Custom    string   `json:"custom,omitempty" yaml:"custom,omitempty"`

	Predicate func(value string) error `json:"-" yaml:"-"`
}

// Clone returns a copy that shares no bounds with r. Nil stays nil.
func (r *Rules) Clone() *Rules {
	if r == nil {
		return nil
	}
	out := *r
	if r.MinLength != nil {
		out.MinLength = Int(*r.MinLength)
	}
	if r.MaxLength != nil {
		out.MaxLength = Int(*r.MaxLength)
	}
	if r.Min != nil {
		out.Min = Float(*r.Min)
	}
	if r.Max != nil {
		out.Max = Float(*r.Max)
	}
	return &out
}

// Choice is one selectable option of a select field.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Field describes one editable attribute of a record.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label" yaml:"label"`
	Kind        FieldKind `json:"kind" yaml:"kind"`
	Required    bool      `json:"required" yaml:"required"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Help        string    `json:"help,omitempty" yaml:"help,omitempty"`
	Default     string    `json:"default,omitempty" yaml:"default,omitempty"`
	Rows        int       `json:"rows,omitempty" yaml:"rows,omitempty"`
	Disabled    bool      `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Rules       *Rules    `json:"validation,omitempty" yaml:"validation,omitempty"`
	Choices     []Choice  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Schema is the ordered declaration of fields describing one record type,
// plus the collection-level settings the store and orchestrator need.
type Schema struct {
	Resource      string   `json:"resource" yaml:"resource"`
	Singular      string   `json:"singular,omitempty" yaml:"singular,omitempty"`
	Plural        string   `json:"plural,omitempty" yaml:"plural,omitempty"`
	UniqueKey     string   `json:"uniqueKey,omitempty" yaml:"uniqueKey,omitempty"`
	DisplayFields []string `json:"displayFields,omitempty" yaml:"displayFields,omitempty"`
	Fields        []Field  `json:"fields" yaml:"fields"`
}

package openapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formcrud/pkg/model"
)

const extensionPrefix = "x-formcrud-"

// longTextThreshold turns string properties with a larger maxLength into
// textareas when no kind is given.
const longTextThreshold = 200

// ImportOptions tunes Import.
type ImportOptions struct {
	// Resource overrides the REST collection name.
	Resource string
	// Validate runs kin-openapi document validation before conversion.
	Validate bool
}

// Components lists the component schema names of a document.
func Components(ctx context.Context, data []byte) ([]string, error) {
	doc, err := parse(ctx, data, false)
	if err != nil {
		return nil, err
	}
	if doc.Components == nil {
		return nil, nil
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Import converts the component schema called component into a field schema.
// The result has defaults applied and is validated.
func Import(ctx context.Context, data []byte, component string, opts ImportOptions) (model.Schema, error) {
	doc, err := parse(ctx, data, opts.Validate)
	if err != nil {
		return model.Schema{}, err
	}
	if doc.Components == nil {
		return model.Schema{}, errors.New("openapi: document has no components")
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return model.Schema{}, fmt.Errorf("openapi: component schema %q not found", component)
	}

	schema, err := convert(component, ref.Value)
	if err != nil {
		return model.Schema{}, err
	}
	if opts.Resource != "" {
		schema.Resource = opts.Resource
	}

	schema = model.ApplyDefaults(schema)
	if err := schema.Validate(); err != nil {
		return model.Schema{}, fmt.Errorf("openapi: component %s: %w", component, err)
	}
	return schema, nil
}

// ImportSource loads src with loader and imports component.
func ImportSource(ctx context.Context, loader *Loader, src Source, component string, opts ImportOptions) (model.Schema, error) {
	if loader == nil {
		loader = NewLoader()
	}
	data, err := loader.Load(ctx, src)
	if err != nil {
		return model.Schema{}, err
	}
	return Import(ctx, data, component, opts)
}

func parse(ctx context.Context, data []byte, validate bool) (*openapi3.T, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return doc, nil
}

type orderedField struct {
	field model.Field
	order float64
}

func convert(component string, src *openapi3.Schema) (model.Schema, error) {
	schema := model.Schema{
		Resource: extString(src.Extensions, "resource"),
		Singular: src.Title,
	}
	if schema.Resource == "" {
		schema.Resource = strings.ToLower(component) + "s"
	}
	if schema.Singular == "" {
		schema.Singular = model.DefaultLabeler(component)
	}
	schema.DisplayFields = extStrings(src.Extensions, "display")

	required := make(map[string]bool, len(src.Required))
	for _, name := range src.Required {
		required[name] = true
	}

	var fields []orderedField
	for name, prop := range src.Properties {
		if prop == nil || prop.Value == nil || name == "id" || prop.Value.ReadOnly {
			continue
		}
		field, err := convertProperty(name, prop.Value, required[name])
		if err != nil {
			return model.Schema{}, err
		}
		order := math.Inf(1)
		if v, ok := extFloat(prop.Value.Extensions, "order"); ok {
			order = v
		}
		if extBool(prop.Value.Extensions, "unique") {
			schema.UniqueKey = name
		}
		fields = append(fields, orderedField{field: field, order: order})
	}
	if len(fields) == 0 {
		return model.Schema{}, fmt.Errorf("openapi: component %s has no editable properties", component)
	}

	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].order != fields[j].order {
			return fields[i].order < fields[j].order
		}
		return fields[i].field.Name < fields[j].field.Name
	})
	for _, f := range fields {
		schema.Fields = append(schema.Fields, f.field)
	}
	return schema, nil
}

func convertProperty(name string, prop *openapi3.Schema, required bool) (model.Field, error) {
	field := model.Field{
		Name:        name,
		Label:       extString(prop.Extensions, "label"),
		Kind:        model.FieldKind(extString(prop.Extensions, "kind")),
		Required:    required,
		Placeholder: extString(prop.Extensions, "placeholder"),
		Help:        prop.Description,
	}
	if field.Label == "" {
		field.Label = prop.Title
	}
	if prop.Default != nil {
		field.Default = scalarString(prop.Default)
	}
	if rows, ok := extFloat(prop.Extensions, "rows"); ok {
		field.Rows = int(rows)
	}

	if prop.Type != nil && (prop.Type.Is(openapi3.TypeObject) || prop.Type.Is(openapi3.TypeArray)) && field.Kind == "" {
		return model.Field{}, fmt.Errorf("openapi: property %s: nested %s values are not supported", name, strings.Join(prop.Type.Slice(), ","))
	}

	for _, value := range prop.Enum {
		text := scalarString(value)
		field.Choices = append(field.Choices, model.Choice{Value: text, Label: model.DefaultLabeler(text)})
	}
	if field.Kind == "" {
		field.Kind = inferKind(prop)
	}

	rules := &model.Rules{}
	set := false
	if prop.MinLength > 0 {
		rules.MinLength = model.Int(int(prop.MinLength))
		set = true
	}
	if prop.MaxLength != nil {
		rules.MaxLength = model.Int(int(*prop.MaxLength))
		set = true
	}
	if prop.Min != nil {
		rules.Min = model.Float(*prop.Min)
		set = true
	}
	if prop.Max != nil {
		rules.Max = model.Float(*prop.Max)
		set = true
	}
	switch named := extString(prop.Extensions, "pattern"); {
	case named != "":
		rules.Pattern = named
		set = true
	case prop.Pattern != "":
		rules.Regex = prop.Pattern
		set = true
	case field.Kind == model.KindEmail:
		rules.Pattern = model.PatternEmail
		set = true
	case field.Kind == model.KindURL:
		rules.Pattern = model.PatternURL
		set = true
	}
	if field.Kind == model.KindDate {
		if v := extString(prop.Extensions, "maxDate"); v != "" {
			rules.MaxDate = v
			set = true
		}
		if v := extString(prop.Extensions, "minDate"); v != "" {
			rules.MinDate = v
			set = true
		}
	}
	if set {
		field.Rules = rules
	}
	return field, nil
}

func inferKind(prop *openapi3.Schema) model.FieldKind {
	if len(prop.Enum) > 0 {
		return model.KindSelect
	}
	switch strings.ToLower(prop.Format) {
	case "email":
		return model.KindEmail
	case "uri", "url":
		return model.KindURL
	case "date":
		return model.KindDate
	case "tel", "phone":
		return model.KindPhone
	case "textarea":
		return model.KindTextArea
	}
	if prop.Type != nil && (prop.Type.Is(openapi3.TypeNumber) || prop.Type.Is(openapi3.TypeInteger)) {
		return model.KindNumber
	}
	if prop.MaxLength != nil && *prop.MaxLength > longTextThreshold {
		return model.KindTextArea
	}
	return model.KindText
}

func extString(ext map[string]any, key string) string {
	if v, ok := ext[extensionPrefix+key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func extStrings(ext map[string]any, key string) []string {
	raw, ok := ext[extensionPrefix+key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func extFloat(ext map[string]any, key string) (float64, bool) {
	switch v := ext[extensionPrefix+key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func extBool(ext map[string]any, key string) bool {
	v, _ := ext[extensionPrefix+key].(bool)
	return v
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

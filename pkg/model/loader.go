package model

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseSchema decodes a schema document. JSON is tried first and YAML second
// so either format can be used regardless of file extension. The result has
// defaults applied and is validated before it is returned.
func ParseSchema(data []byte, source string) (Schema, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Schema{}, fmt.Errorf("schema: %s is empty", source)
	}

	var schema Schema
	jsonErr := json.Unmarshal(data, &schema)
	if jsonErr != nil {
		schema = Schema{}
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return Schema{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML: %w", source, err)
		}
	}

	schema = ApplyDefaults(schema)
	if err := schema.Validate(); err != nil {
		return Schema{}, fmt.Errorf("schema: %s: %w", source, err)
	}
	return schema, nil
}

// LoadFile reads and parses a schema document from disk.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return ParseSchema(data, path)
}

// LoadFS reads and parses a schema document from an fs.FS.
func LoadFS(fsys fs.FS, name string) (Schema, error) {
	if fsys == nil {
		return Schema{}, fmt.Errorf("schema: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: read %s: %w", name, err)
	}
	return ParseSchema(data, name)
}

// ApplyDefaults fills in labels, kinds and collection nouns left empty by the
// schema author. The input is not mutated.
func ApplyDefaults(schema Schema) Schema {
	out := schema
	out.Fields = make([]Field, len(schema.Fields))
	for idx, field := range schema.Fields {
		field.Name = strings.TrimSpace(field.Name)
		if field.Label == "" {
			field.Label = DefaultLabeler(field.Name)
		}
		if field.Kind == "" {
			field.Kind = KindText
		}
		if field.Kind == KindTextArea && field.Rows <= 0 {
			field.Rows = DefaultTextAreaRows
		}
		out.Fields[idx] = field
	}
	out.DisplayFields = append([]string(nil), schema.DisplayFields...)
	if out.Singular == "" {
		out.Singular = schema.SingularName()
	}
	if out.Plural == "" {
		out.Plural = out.PluralName()
	}
	return out
}

// Package record defines the wire model shared by the transport, the store
// and the front-ends: a server-assigned id, one text value per schema field,
// and a side map for attributes the schema does not declare.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcrud/pkg/model"
)

// IDKey is the wire name of the identifier.
const IDKey = "id"

// Record is one persisted entity.
type Record struct {
	ID     string
	Fields map[string]string
	Extra  map[string]any
}

// Value returns the text value of a declared field.
func (r Record) Value(name string) string {
	return r.Fields[name]
}

// Clone returns a deep copy of the field maps. Extra values are copied
// shallowly.
func (r Record) Clone() Record {
	out := Record{ID: r.ID}
	if r.Fields != nil {
		out.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	if r.Extra != nil {
		out.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// DisplayName joins the display fields of schema, falling back to the id.
func (r Record) DisplayName(schema model.Schema) string {
	parts := make([]string, 0, len(schema.DisplayFields))
	for _, name := range schema.DisplayFields {
		if v := strings.TrimSpace(r.Fields[name]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return r.ID
	}
	return strings.Join(parts, " ")
}

// FromValues builds a record body from form values, keeping only declared
// fields. Missing fields are encoded as empty strings.
func FromValues(schema model.Schema, values map[string]string) Record {
	fields := make(map[string]string, len(schema.Fields))
	for _, field := range schema.Fields {
		fields[field.Name] = values[field.Name]
	}
	return Record{Fields: fields}
}

// Encode renders the flat wire object. When includeID is false the id key is
// omitted, as required for create and update bodies. Declared fields take
// precedence over Extra entries with the same key.
func Encode(r Record, includeID bool) ([]byte, error) {
	payload := make(map[string]any, len(r.Fields)+len(r.Extra)+1)
	for k, v := range r.Extra {
		if k == IDKey {
			continue
		}
		payload[k] = v
	}
	for k, v := range r.Fields {
		payload[k] = v
	}
	if includeID && r.ID != "" {
		payload[IDKey] = r.ID
	}
	return json.Marshal(payload)
}

// Decode parses one flat wire object. Keys declared by schema land in Fields
// as text; every other key except the id lands in Extra. Declared fields
// absent from the payload are set to the empty string.
func Decode(schema model.Schema, data []byte) (Record, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return Record{}, err
	}
	return fromObject(schema, raw)
}

// DecodeList parses a JSON array of wire objects, preserving order.
func DecodeList(schema model.Schema, data []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("record: decode list: %w", err)
	}
	out := make([]Record, 0, len(items))
	for idx, item := range items {
		rec, err := Decode(schema, item)
		if err != nil {
			return nil, fmt.Errorf("record: item %d: %w", idx, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	if raw == nil {
		return nil, errors.New("record: decode: expected an object")
	}
	return raw, nil
}

func fromObject(schema model.Schema, raw map[string]any) (Record, error) {
	rec := Record{Fields: make(map[string]string, len(schema.Fields))}

	if id, ok := raw[IDKey]; ok {
		text, err := scalarText(id)
		if err != nil {
			return Record{}, fmt.Errorf("record: id: %w", err)
		}
		rec.ID = text
	}

	for _, field := range schema.Fields {
		value, ok := raw[field.Name]
		if !ok {
			rec.Fields[field.Name] = ""
			continue
		}
		text, err := scalarText(value)
		if err != nil {
			return Record{}, fmt.Errorf("record: field %s: %w", field.Name, err)
		}
		rec.Fields[field.Name] = text
	}

	for key, value := range raw {
		if key == IDKey || schema.Has(key) {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[key] = value
	}
	return rec, nil
}

// scalarText text-encodes JSON scalars. Null becomes the empty string.
func scalarText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("expected a scalar, got %T", value)
	}
}

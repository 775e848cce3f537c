package model

import (
	"embed"
	"io/fs"
	"sync"
)

//go:embed schemas/*.yaml
var embeddedSchemas embed.FS

var (
	userSchemaOnce sync.Once
	userSchema     Schema
)

// EmbeddedFS exposes the bundled schema documents so callers can copy or
// extend them.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedSchemas, "schemas")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}

// DefaultUserSchema returns the bundled "users" schema: first and last name,
// email address and phone number, with the phone number as uniqueness key.
// Each call returns an independent copy.
func DefaultUserSchema() Schema {
	userSchemaOnce.Do(func() {
		schema, err := LoadFS(EmbeddedFS(), "users.yaml")
		if err != nil {
			panic(err)
		}
		userSchema = schema
	})
	return userSchema.Clone()
}

// Clone returns a deep copy of the schema so callers can modify fields without
// affecting shared instances.
func (s Schema) Clone() Schema {
	out := s
	out.DisplayFields = append([]string(nil), s.DisplayFields...)
	out.Fields = make([]Field, len(s.Fields))
	for idx, field := range s.Fields {
		field.Rules = field.Rules.Clone()
		field.Choices = append([]Choice(nil), field.Choices...)
		out.Fields[idx] = field
	}
	return out
}

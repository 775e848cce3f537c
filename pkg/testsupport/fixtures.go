package testsupport

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/record"
)

// MustLoadSchema parses a schema fixture from disk.
func MustLoadSchema(t *testing.T, path string) model.Schema {
	t.Helper()

	schema, err := model.LoadFile(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return schema
}

// UserSchema returns the built-in user schema.
func UserSchema() model.Schema {
	return model.DefaultUserSchema()
}

// User builds a user record. Empty arguments are kept as empty values so
// callers can exercise required-field handling.
func User(id, first, last, email, phone string) record.Record {
	return record.Record{
		ID: id,
		Fields: map[string]string{
			"firstName":   first,
			"lastName":    last,
			"email":       email,
			"phoneNumber": phone,
		},
	}
}

// Users returns two valid user records with distinct phone numbers.
func Users() []record.Record {
	return []record.Record{
		User("1", "Ada", "Lovelace", "ada@example.com", "5551234567"),
		User("2", "Alan", "Turing", "alan@example.com", "5559876543"),
	}
}

// UserValues returns form values for a valid user.
func UserValues(first, last, email, phone string) map[string]string {
	return User("", first, last, email, phone).Fields
}

// CompareRecords returns a diff of two record slices, treating nil and empty
// maps as equal.
func CompareRecords(want, got []record.Record) string {
	return cmp.Diff(want, got, cmpopts.EquateEmpty())
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}

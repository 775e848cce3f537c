package model_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formcrud/pkg/model"
)

const contactsYAML = `
resource: contacts
uniqueKey: email
fields:
  - name: full_name
    required: true
    validation:
      maxLength: 80
  - name: email
    kind: email
    validation:
      pattern: email
  - name: bio
    kind: textarea
`

const contactsJSON = `{
  "resource": "contacts",
  "uniqueKey": "email",
  "fields": [
    {"name": "full_name", "required": true, "validation": {"maxLength": 80}},
    {"name": "email", "kind": "email", "validation": {"pattern": "email"}},
    {"name": "bio", "kind": "textarea"}
  ]
}`

func TestParseSchemaJSONAndYAMLAgree(t *testing.T) {
	fromYAML, err := model.ParseSchema([]byte(contactsYAML), "contacts.yaml")
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	fromJSON, err := model.ParseSchema([]byte(contactsJSON), "contacts.json")
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}

	ignorePredicate := cmpopts.IgnoreFields(model.Rules{}, "Predicate")
	if diff := cmp.Diff(fromJSON, fromYAML, ignorePredicate); diff != "" {
		t.Fatalf("json and yaml schemas differ (-json +yaml):\n%s", diff)
	}
}

func TestParseSchemaAppliesDefaults(t *testing.T) {
	schema, err := model.ParseSchema([]byte(contactsYAML), "contacts.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	name, _ := schema.Field("full_name")
	if name.Label != "Full Name" || name.Kind != model.KindText {
		t.Fatalf("unexpected defaults: %+v", name)
	}
	bio, _ := schema.Field("bio")
	if bio.Rows != model.DefaultTextAreaRows {
		t.Fatalf("expected default rows, got %d", bio.Rows)
	}
	if schema.Singular != "Contact" || schema.Plural != "Contacts" {
		t.Fatalf("unexpected nouns %q/%q", schema.Singular, schema.Plural)
	}
}

func TestParseSchemaRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":       "   ",
		"syntax":      "fields: [",
		"no fields":   "resource: things",
		"bad pattern": "fields:\n  - name: a\n    validation:\n      pattern: zip\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := model.ParseSchema([]byte(doc), name); err == nil {
				t.Fatalf("expected error for %s document", name)
			}
		})
	}
}

func TestLoadFileAndFS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contacts.yaml")
	if err := os.WriteFile(path, []byte(contactsYAML), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fromFile, err := model.LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}

	fsys := fstest.MapFS{"schemas/contacts.json": {Data: []byte(contactsJSON)}}
	fromFS, err := model.LoadFS(fsys, "schemas/contacts.json")
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}

	if diff := cmp.Diff(fromFile.Names(), fromFS.Names()); diff != "" {
		t.Fatalf("field order differs (-file +fs):\n%s", diff)
	}

	if _, err := model.LoadFile(filepath.Join(dir, "missing.yaml")); err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected read error naming the file, got %v", err)
	}
	if _, err := model.LoadFS(nil, "x"); err == nil {
		t.Fatalf("expected error for nil filesystem")
	}
}

func TestEmbeddedFSListsUserSchema(t *testing.T) {
	if _, err := model.LoadFS(model.EmbeddedFS(), "users.yaml"); err != nil {
		t.Fatalf("embedded users schema: %v", err)
	}
}

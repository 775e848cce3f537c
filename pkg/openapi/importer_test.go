package openapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/openapi"
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/contacts.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestImportContact(t *testing.T) {
	schema, err := openapi.Import(context.Background(), readFixture(t), "Contact", openapi.ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if schema.Resource != "contacts" || schema.Singular != "Contact" || schema.UniqueKey != "phone" {
		t.Fatalf("unexpected collection settings: %+v", schema)
	}
	if diff := cmp.Diff([]string{"firstName", "lastName"}, schema.DisplayFields); diff != "" {
		t.Fatalf("display fields mismatch:\n%s", diff)
	}

	wantOrder := []string{"firstName", "lastName", "email", "phone", "age", "code", "notes", "status"}
	if diff := cmp.Diff(wantOrder, schema.Names()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	kinds := map[string]model.FieldKind{}
	for _, f := range schema.Fields {
		kinds[f.Name] = f.Kind
	}
	wantKinds := map[string]model.FieldKind{
		"firstName": model.KindText,
		"lastName":  model.KindText,
		"email":     model.KindEmail,
		"phone":     model.KindPhone,
		"age":       model.KindNumber,
		"code":      model.KindText,
		"notes":     model.KindTextArea,
		"status":    model.KindSelect,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	first, _ := schema.Field("firstName")
	if !first.Required || first.Label != "First Name" || first.Rules.Pattern != model.PatternAlpha || *first.Rules.MinLength != 2 {
		t.Fatalf("unexpected firstName: %+v", first)
	}
	email, _ := schema.Field("email")
	if !email.Required || email.Rules.Pattern != model.PatternEmail {
		t.Fatalf("unexpected email: %+v", email)
	}
	phone, _ := schema.Field("phone")
	if phone.Label != "Mobile" {
		t.Fatalf("label extension ignored: %q", phone.Label)
	}
	age, _ := schema.Field("age")
	if *age.Rules.Min != 18 || *age.Rules.Max != 120 {
		t.Fatalf("unexpected bounds: %+v", age.Rules)
	}
	code, _ := schema.Field("code")
	if code.Rules.Regex != "^[A-Z]{3}$" {
		t.Fatalf("regex not carried: %+v", code.Rules)
	}
	status, _ := schema.Field("status")
	wantChoices := []model.Choice{{Value: "active", Label: "Active"}, {Value: "archived", Label: "Archived"}}
	if diff := cmp.Diff(wantChoices, status.Choices); diff != "" {
		t.Fatalf("choices mismatch:\n%s", diff)
	}
	if status.Default != "active" {
		t.Fatalf("default = %q", status.Default)
	}
	notes, _ := schema.Field("notes")
	if notes.Help != "Free-form notes" || notes.Rows != model.DefaultTextAreaRows {
		t.Fatalf("unexpected notes: %+v", notes)
	}
}

func TestImportRejectsNestedAndMissing(t *testing.T) {
	data := readFixture(t)
	if _, err := openapi.Import(context.Background(), data, "Tag", openapi.ImportOptions{}); err == nil {
		t.Fatalf("expected nested array property to be rejected")
	}
	if _, err := openapi.Import(context.Background(), data, "Missing", openapi.ImportOptions{}); err == nil {
		t.Fatalf("expected missing component error")
	}
}

func TestComponents(t *testing.T) {
	names, err := openapi.Components(context.Background(), readFixture(t))
	if err != nil {
		t.Fatalf("components: %v", err)
	}
	if diff := cmp.Diff([]string{"Contact", "Tag"}, names); diff != "" {
		t.Fatalf("components mismatch:\n%s", diff)
	}
}

func TestLoaderSources(t *testing.T) {
	data := readFixture(t)
	ctx := context.Background()

	loader := openapi.NewLoader(openapi.WithFileSystem(fstest.MapFS{"specs/contacts.yaml": {Data: data}}))
	if _, err := openapi.ImportSource(ctx, loader, openapi.SourceFromFS("specs/contacts.yaml"), "Contact", openapi.ImportOptions{}); err != nil {
		t.Fatalf("fs import: %v", err)
	}
	if _, err := openapi.ImportSource(ctx, loader, openapi.SourceFromFile("testdata/contacts.yaml"), "Contact", openapi.ImportOptions{Resource: "people"}); err != nil {
		t.Fatalf("file import: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	src, err := openapi.SourceFor(srv.URL + "/openapi.yaml")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if src.Kind() != openapi.SourceKindURL {
		t.Fatalf("expected URL source, got %s", src.Kind())
	}
	if _, err := openapi.NewLoader().Load(ctx, src); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}
	httpLoader := openapi.NewLoader(openapi.WithHTTPClient(srv.Client()))
	schema, err := openapi.ImportSource(ctx, httpLoader, src, "Contact", openapi.ImportOptions{})
	if err != nil {
		t.Fatalf("url import: %v", err)
	}
	if len(schema.Fields) != 8 {
		t.Fatalf("expected 8 fields, got %d", len(schema.Fields))
	}
}

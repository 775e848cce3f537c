package transport_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/transport"
)

func TestMapErrorPayloadNormalisesPaths(t *testing.T) {
	payload := map[string][]string{
		"/body/firstName":            {"First name is required"},
		"data.attributes.email":      {" Email invalid ", "Email invalid"},
		"$.phoneNumber":              {"Phone malformed"},
		"request/body/unknown-field": {"Should fall back to form errors"},
		"non_field_errors":           {"Form level error"},
		"lastName[0]":                {"  "},
	}

	mapped := transport.MapErrorPayload(model.DefaultUserSchema(), payload)

	wantFields := map[string][]string{
		"firstName":   {"First name is required"},
		"email":       {"Email invalid"},
		"phoneNumber": {"Phone malformed"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	wantForm := []string{"Form level error", "Should fall back to form errors"}
	if diff := cmp.Diff(wantForm, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFailureMessage(t *testing.T) {
	schema := model.DefaultUserSchema()
	cases := map[transport.Op]string{
		transport.OpList:   "Failed to fetch users",
		transport.OpGet:    "Failed to fetch user",
		transport.OpCreate: "Failed to create user",
		transport.OpUpdate: "Failed to update user",
		transport.OpDelete: "Failed to delete user",
	}
	for op, want := range cases {
		if got := transport.FailureMessage(schema, op); got != want {
			t.Errorf("FailureMessage(%s) = %q, want %q", op, got, want)
		}
	}
}

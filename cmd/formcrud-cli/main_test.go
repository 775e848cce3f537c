package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formcrud/pkg/model"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		old, ok := os.LookupEnv(key)
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
		if ok {
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	unsetEnv(t, "FORMCRUD_CONFIG", "FORMCRUD_API_URL", "FORMCRUD_SCHEMA", "FORMCRUD_LOG_LEVEL", "FORMCRUD_LOG_FORMAT")
	return execCLI(args...)
}

func execCLI(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr, func(int) {})
	return stdout.String(), err
}

func TestLintBuiltInSchema(t *testing.T) {
	out, err := runCLI(t, "lint")
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Fatalf("expected ok line, got %q", out)
	}
}

func TestBlankConfigEnvIsIgnored(t *testing.T) {
	unsetEnv(t, "FORMCRUD_API_URL", "FORMCRUD_SCHEMA", "FORMCRUD_LOG_LEVEL", "FORMCRUD_LOG_FORMAT")
	t.Setenv("FORMCRUD_CONFIG", "")

	out, err := execCLI("lint")
	if err != nil {
		t.Fatalf("lint with blank FORMCRUD_CONFIG: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Fatalf("expected ok line, got %q", out)
	}
}

func TestLintReportsEveryIssue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	doc := `
resource: things
uniqueKey: missing
fields:
  - name: title
    validation:
      pattern: nonsense
      minLength: 5
      maxLength: 2
  - name: title
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := runCLI(t, "lint", path)
	if !errors.Is(err, errLint) {
		t.Fatalf("expected errLint, got %v", err)
	}
	for _, fragment := range []string{"duplicate", "missing"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("expected %q in output:\n%s", fragment, out)
		}
	}
}

func TestImportOpenAPI(t *testing.T) {
	fixture := filepath.Join("..", "..", "pkg", "openapi", "testdata", "contacts.yaml")
	target := filepath.Join(t.TempDir(), "contacts.yaml")

	if _, err := runCLI(t, "import-openapi", fixture, "--component", "Contact", "-o", target); err != nil {
		t.Fatalf("import: %v", err)
	}
	schema, err := model.LoadFile(target)
	if err != nil {
		t.Fatalf("load imported schema: %v", err)
	}
	if schema.Resource != "contacts" || !schema.Has("email") {
		t.Fatalf("unexpected schema: %+v", schema)
	}
}

func TestImportOpenAPIListsComponents(t *testing.T) {
	fixture := filepath.Join("..", "..", "pkg", "openapi", "testdata", "contacts.yaml")
	out, err := runCLI(t, "import-openapi", fixture, "--list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Contact") {
		t.Fatalf("expected Contact in %q", out)
	}
}

func TestRenderOfflineForm(t *testing.T) {
	out, err := runCLI(t, "render", "--offline", "--view", "form")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, fragment := range []string{`class="formcrud-form"`, "Add New User", "First Name"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("expected %q in output", fragment)
		}
	}
}

func TestRenderEditRequiresKnownRecord(t *testing.T) {
	if _, err := runCLI(t, "render", "--offline", "--edit", "42"); err == nil {
		t.Fatalf("expected error for unknown record")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	if _, err := runCLI(t, "--api-url", "not a url", "lint"); err == nil {
		t.Fatalf("expected invalid api url to be rejected")
	}
}

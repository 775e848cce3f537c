package vanilla

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formcrud/pkg/form"
	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/record"
	"github.com/goliatone/go-formcrud/pkg/store"
)

func contactSchema() model.Schema {
	return model.ApplyDefaults(model.Schema{
		Resource: "contacts",
		Fields: []model.Field{
			{Name: "name", Kind: model.KindText, Required: true, Placeholder: "Jane"},
			{Name: "status", Kind: model.KindSelect, Choices: []model.Choice{
				{Value: "active", Label: "Active"},
				{Value: "archived", Label: "Archived"},
			}},
			{Name: "notes", Kind: model.KindTextArea, Help: `Plain <b>text</b> only<script>alert(1)</script>`},
		},
	})
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func mustContain(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Errorf("expected output to contain %q\n%s", fragment, html)
		}
	}
}

func mustNotContain(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(html, fragment) {
			t.Errorf("expected output not to contain %q\n%s", fragment, html)
		}
	}
}

func TestRenderFormShowsErrorsOnlyForTouchedFields(t *testing.T) {
	schema := model.DefaultUserSchema()
	f := form.New(schema, nil)
	snap, err := f.Blur("firstName")
	if err != nil {
		t.Fatalf("blur: %v", err)
	}

	out, err := newRenderer(t).RenderForm(schema, snap, FormOptions{Title: "Add New User", SubmitLabel: "Create"})
	if err != nil {
		t.Fatalf("render form: %v", err)
	}
	html := string(out)

	mustContain(t, html,
		`<h2 class="formcrud-form__title">Add New User</h2>`,
		`id="field-firstName"`,
		`aria-invalid="true" aria-describedby="field-firstName-error"`,
		`<span id="field-firstName-error" class="form-error" role="alert">This field is required</span>`,
		`type="email"`,
		`type="tel"`,
		`>Create</button>`,
	)
	mustNotContain(t, html, "field-email-error", "Saving...")
	if got := strings.Count(html, `role="alert"`); got != 1 {
		t.Fatalf("expected exactly one visible error, got %d", got)
	}
}

func TestRenderFormBusyDisablesSubmit(t *testing.T) {
	schema := contactSchema()
	snap := form.New(schema, nil).Snapshot()

	out, err := newRenderer(t).RenderForm(schema, snap, FormOptions{SubmitLabel: "Update", Busy: true, CancelLabel: "Cancel"})
	if err != nil {
		t.Fatalf("render form: %v", err)
	}
	html := string(out)
	mustContain(t, html, `disabled aria-busy="true">Saving...</button>`, `data-action="cancel" disabled>Cancel</button>`)
	mustNotContain(t, html, ">Update</button>")
}

func TestRenderFormFieldKinds(t *testing.T) {
	schema := contactSchema()
	snap := form.New(schema, map[string]string{"name": `<b>"Ann"</b>`, "status": "archived"}).Snapshot()

	out, err := newRenderer(t).RenderForm(schema, snap, FormOptions{Action: "/contacts", Method: "POST"})
	if err != nil {
		t.Fatalf("render form: %v", err)
	}
	html := string(out)
	mustContain(t, html,
		`method="post" action="/contacts"`,
		`placeholder="Jane"`,
		`value="&lt;b&gt;&quot;Ann&quot;&lt;/b&gt;"`,
		`<option value="">Select Status</option>`,
		`<option value="archived" selected>Archived</option>`,
		`<option value="active">Active</option>`,
		`rows="4"`,
		`<p class="form-help">Plain <b>text</b> only</p>`,
		`<span class="form-required">*</span>`,
		`>Save</button>`,
	)
	mustNotContain(t, html, "<script>", "alert(1)")
}

func TestRenderListStates(t *testing.T) {
	schema := contactSchema()
	r := newRenderer(t)

	loading, err := r.RenderList(schema, store.State{Loading: true})
	if err != nil {
		t.Fatalf("render loading: %v", err)
	}
	mustContain(t, string(loading), "Loading contacts...")
	mustNotContain(t, string(loading), "<table")

	empty, err := r.RenderList(schema, store.State{Err: "Failed to fetch contacts"})
	if err != nil {
		t.Fatalf("render empty: %v", err)
	}
	mustContain(t, string(empty),
		"No contacts yet",
		`Click "Add Contact" to create your first contact`,
		`<div class="formcrud-list__error" role="alert">Failed to fetch contacts</div>`,
	)
}

func TestRenderListRows(t *testing.T) {
	schema := contactSchema()
	state := store.State{Records: []record.Record{
		{ID: "1", Fields: map[string]string{"name": "Ann", "status": "active", "notes": ""}},
		{ID: "2", Fields: map[string]string{"name": "Bob & Co"}},
	}}

	out, err := newRenderer(t).RenderList(schema, state)
	if err != nil {
		t.Fatalf("render list: %v", err)
	}
	html := string(out)
	mustContain(t, html,
		"<th>Name</th>",
		"<th>Status</th>",
		"<th>Notes</th>",
		`<tr data-id="1">`,
		`<td data-label="Status">Active</td>`,
		`<td data-label="Notes">-</td>`,
		`<td data-label="Name">Bob &amp; Co</td>`,
		`data-action="delete" data-id="2" title="Delete contact"`,
	)
	if got := strings.Count(html, `<td data-label="Notes">-</td>`); got != 2 {
		t.Fatalf("expected two dashed notes cells, got %d", got)
	}
}

func TestRenderPageEmbedsStylesheetAndForm(t *testing.T) {
	schema := contactSchema()
	snap := form.New(schema, nil).Snapshot()

	out, err := newRenderer(t).RenderPage(schema, store.State{}, &snap, FormOptions{SubmitLabel: "Create"})
	if err != nil {
		t.Fatalf("render page: %v", err)
	}
	html := string(out)
	mustContain(t, html, "<title>Contacts</title>", ".formcrud-form {", `<div class="formcrud-page__form"><form`, "No contacts yet")

	bare, err := newRenderer(t).RenderPage(schema, store.State{}, nil, FormOptions{})
	if err != nil {
		t.Fatalf("render bare page: %v", err)
	}
	mustNotContain(t, string(bare), `<div class="formcrud-page__form">`)
}

func TestWithTemplatesFSOverridesBundle(t *testing.T) {
	files := fstest.MapFS{
		"templates/list.tmpl": {Data: []byte(`{{ list.singular }}:{% for row in list.rows %}{{ row.id }};{% endfor %}`)},
	}
	r, err := New(WithTemplatesFS(files), WithStylesheet(""))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.RenderList(contactSchema(), store.State{Records: []record.Record{{ID: "a"}, {ID: "b"}}})
	if err != nil {
		t.Fatalf("render list: %v", err)
	}
	if got := string(out); got != "Contact:a;b;" {
		t.Fatalf("unexpected output %q", got)
	}

	if _, err := r.RenderForm(contactSchema(), form.Snapshot{}, FormOptions{}); err == nil {
		t.Fatalf("expected missing form template to fail")
	}
}

func TestAssetsFSServesStylesheet(t *testing.T) {
	if defaultStylesheet() == "" {
		t.Fatalf("expected embedded stylesheet")
	}
	if _, err := AssetsFS().Open(StylesheetName); err != nil {
		t.Fatalf("open stylesheet: %v", err)
	}
}

package vanilla

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-formcrud/pkg/form"
	"github.com/goliatone/go-formcrud/pkg/model"
	rendertemplate "github.com/goliatone/go-formcrud/pkg/render/template"
	gotemplate "github.com/goliatone/go-formcrud/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formcrud/pkg/store"
)

const (
	formTemplate = "templates/form.tmpl"
	listTemplate = "templates/list.tmpl"
	pageTemplate = "templates/page.tmpl"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	stylesheet       *string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The bundle
// must provide templates/form.tmpl, templates/list.tmpl and templates/page.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithStylesheet replaces the CSS inlined by RenderPage. An empty string
// disables the inline stylesheet.
func WithStylesheet(css string) Option {
	return func(cfg *config) {
		cfg.stylesheet = &css
	}
}

// FormOptions carries the presentation state of the edit surface that is not
// part of the form snapshot.
type FormOptions struct {
	Title       string
	SubmitLabel string
	CancelLabel string
	// Busy disables the submit control and relabels it "Saving...".
	Busy   bool
	Action string
	Method string
	// Error is a form-level message shown above the fields.
	Error string
}

// Renderer produces HTML for the record form and the record list.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	stylesheet string
}

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	stylesheet := defaultStylesheet()
	if cfg.stylesheet != nil {
		stylesheet = *cfg.stylesheet
	}

	return &Renderer{templates: renderer, stylesheet: stylesheet}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// RenderForm renders the edit surface for snap. Field errors are only shown
// for touched fields.
func (r *Renderer) RenderForm(schema model.Schema, snap form.Snapshot, opts FormOptions) ([]byte, error) {
	out, err := r.render(formTemplate, map[string]any{"form": formView(schema, snap, opts)})
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// RenderList renders the record table, or the loading or empty state.
func (r *Renderer) RenderList(schema model.Schema, state store.State) ([]byte, error) {
	out, err := r.render(listTemplate, map[string]any{"list": listView(schema, state)})
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// RenderPage renders a standalone document holding the list and, when snap
// is non-nil, the edit surface above it.
func (r *Renderer) RenderPage(schema model.Schema, state store.State, snap *form.Snapshot, opts FormOptions) ([]byte, error) {
	list, err := r.RenderList(schema, state)
	if err != nil {
		return nil, err
	}
	page := map[string]any{
		"title":      schema.PluralName(),
		"stylesheet": r.stylesheet,
		"list":       string(list),
	}
	if snap != nil {
		formHTML, err := r.RenderForm(schema, *snap, opts)
		if err != nil {
			return nil, err
		}
		page["form"] = string(formHTML)
	}

	out, err := r.render(pageTemplate, map[string]any{"page": page})
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (r *Renderer) render(name string, data map[string]any) (string, error) {
	if r == nil || r.templates == nil {
		return "", fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	out, err := r.templates.RenderTemplate(name, data)
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render %s: %w", strings.TrimPrefix(name, "templates/"), err)
	}
	return out, nil
}

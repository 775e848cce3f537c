package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcrud"
	"github.com/goliatone/go-formcrud/pkg/form"
	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/openapi"
	"github.com/goliatone/go-formcrud/pkg/record"
	"github.com/goliatone/go-formcrud/pkg/renderers/tui"
	"github.com/goliatone/go-formcrud/pkg/renderers/vanilla"
	"github.com/goliatone/go-formcrud/pkg/store"
	"github.com/goliatone/go-formcrud/pkg/validation"
)

// ManageCmd runs the interactive terminal manager.
type ManageCmd struct{}

func (c *ManageCmd) Run(rt *runtime) error {
	front := tui.New(
		tui.WithPromptDriver(tui.NewSurveyDriver(rt.stdout)),
		tui.WithLogger(rt.logger.WithPrefix("tui")),
	)
	app, err := rt.app(formcrud.Config{
		Notifier:  front.Notifier(),
		Confirmer: front.Confirmer(),
	})
	if err != nil {
		return err
	}
	return front.Run(rt.ctx, app.Orchestrator)
}

// ListCmd prints the collection as a table or as JSON.
type ListCmd struct {
	JSON bool `help:"Print the records as a JSON array."`
}

func (c *ListCmd) Run(rt *runtime) error {
	app, err := rt.app(formcrud.Config{})
	if err != nil {
		return err
	}
	if err := app.Store.Load(rt.ctx); err != nil {
		return err
	}
	state := app.Store.Snapshot()

	if !c.JSON {
		fmt.Fprintln(rt.stdout, tui.RenderState(app.Schema, state, tui.DefaultTheme()))
		return nil
	}
	items := make([]json.RawMessage, 0, len(state.Records))
	for _, rec := range state.Records {
		body, err := record.Encode(rec, true)
		if err != nil {
			return err
		}
		items = append(items, body)
	}
	enc := json.NewEncoder(rt.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// RenderCmd writes HTML for the form, the list or a full page.
type RenderCmd struct {
	View      string `enum:"form,list,page" default:"page" help:"What to render (form, list, page)."`
	Edit      string `help:"Seed the form with the record with this id."`
	Offline   bool   `help:"Do not contact the API; render an empty collection."`
	Templates string `type:"existingdir" help:"Directory of templates overriding the built-in ones."`
	Output    string `short:"o" type:"path" help:"Output file (stdout if empty)."`
}

func (c *RenderCmd) Run(rt *runtime) error {
	schema, err := rt.schema()
	if err != nil {
		return err
	}

	var state store.State
	if !c.Offline {
		app, err := rt.app(formcrud.Config{})
		if err != nil {
			return err
		}
		if err := app.Store.Load(rt.ctx); err != nil {
			return err
		}
		state = app.Store.Snapshot()
	}

	var opts []vanilla.Option
	if c.Templates != "" {
		opts = append(opts, vanilla.WithTemplatesDir(c.Templates))
	}
	renderer, err := vanilla.New(opts...)
	if err != nil {
		return err
	}

	formOpts := vanilla.FormOptions{
		Title:       "Add New " + schema.SingularName(),
		SubmitLabel: "Create",
	}
	initial := map[string]string(nil)
	if c.Edit != "" {
		rec, ok := state.Find(c.Edit)
		if !ok {
			return fmt.Errorf("render: %s %q not found", model.Noun(schema.SingularName()), c.Edit)
		}
		initial = rec.Fields
		formOpts.Title = "Edit " + schema.SingularName()
		formOpts.SubmitLabel = "Update"
	}
	snap := form.New(schema, initial).Snapshot()

	var html []byte
	switch c.View {
	case "form":
		html, err = renderer.RenderForm(schema, snap, formOpts)
	case "list":
		html, err = renderer.RenderList(schema, state)
	default:
		html, err = renderer.RenderPage(schema, state, &snap, formOpts)
	}
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err = rt.stdout.Write(html)
		return err
	}
	if err := os.WriteFile(c.Output, html, 0o644); err != nil {
		return fmt.Errorf("render: write %s: %w", c.Output, err)
	}
	rt.logger.Info("wrote html", "path", c.Output, "bytes", len(html))
	return nil
}

// LintCmd checks schema documents. Without paths it checks the configured
// schema.
type LintCmd struct {
	Paths []string `arg:"" optional:"" type:"path" help:"Schema files to check."`
	JSON  bool     `help:"Print results as JSON."`
}

// errLint signals that at least one schema had issues.
var errLint = errors.New("lint: schema issues found")

func (c *LintCmd) Run(rt *runtime) error {
	paths := c.Paths
	if len(paths) == 0 {
		paths = []string{rt.cfg.Schema}
	}
	reg := validation.Default().Registry()

	results := make(map[string]validation.SchemaValidationResult, len(paths))
	failed := false
	for _, path := range paths {
		name := path
		if name == "" {
			name = "(built-in users schema)"
		}
		result := lintFile(path, reg)
		results[name] = result
		if !result.Valid {
			failed = true
		}
		if c.JSON {
			continue
		}
		if result.Valid {
			fmt.Fprintf(rt.stdout, "%s: ok\n", name)
			continue
		}
		for _, issue := range result.Issues {
			if issue.Field != "" {
				fmt.Fprintf(rt.stdout, "%s: %s -> %s\n", name, issue.Field, issue.Message)
			} else {
				fmt.Fprintf(rt.stdout, "%s: %s\n", name, issue.Message)
			}
		}
	}

	if c.JSON {
		enc := json.NewEncoder(rt.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	}
	if failed {
		return errLint
	}
	return nil
}

// lintFile reads path without the loader's validation so every issue is
// reported, not just the first failing document.
func lintFile(path string, reg *validation.Registry) validation.SchemaValidationResult {
	if path == "" {
		return validation.LintSchema(model.DefaultUserSchema(), reg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return validation.SchemaValidationResult{Issues: []validation.SchemaIssue{{Message: err.Error()}}}
	}
	var schema model.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		schema = model.Schema{}
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return validation.SchemaValidationResult{Issues: []validation.SchemaIssue{{Message: "invalid JSON or YAML: " + err.Error()}}}
		}
	}
	return validation.LintSchema(model.ApplyDefaults(schema), reg)
}

// ImportCmd converts an OpenAPI component schema.
type ImportCmd struct {
	Source    string `arg:"" help:"OpenAPI document path or URL."`
	Component string `help:"Component schema to convert."`
	Resource  string `help:"REST collection name (defaults to the component name)."`
	List      bool   `help:"List component schemas and exit."`
	Validate  bool   `help:"Validate the OpenAPI document before converting."`
	Output    string `short:"o" type:"path" help:"Output file (stdout if empty)."`
}

func (c *ImportCmd) Run(rt *runtime) error {
	src, err := openapi.SourceFor(strings.TrimSpace(c.Source))
	if err != nil {
		return err
	}
	loader := openapi.NewLoader(openapi.WithHTTPFallback(rt.cfg.API.Timeout))
	data, err := loader.Load(rt.ctx, src)
	if err != nil {
		return err
	}

	if c.List || c.Component == "" {
		names, err := openapi.Components(rt.ctx, data)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(rt.stdout, name)
		}
		if !c.List {
			return errors.New("import-openapi: --component is required")
		}
		return nil
	}

	schema, err := openapi.Import(rt.ctx, data, c.Component, openapi.ImportOptions{
		Resource: c.Resource,
		Validate: c.Validate,
	})
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(schema)
	if err != nil {
		return fmt.Errorf("import-openapi: encode: %w", err)
	}

	if c.Output == "" {
		_, err = rt.stdout.Write(out)
		return err
	}
	if err := os.WriteFile(c.Output, out, 0o644); err != nil {
		return fmt.Errorf("import-openapi: write %s: %w", c.Output, err)
	}
	rt.logger.Info("wrote schema", "component", c.Component, "path", c.Output, "fields", len(schema.Fields))
	return nil
}

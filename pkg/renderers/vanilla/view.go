package vanilla

import (
	"strings"

	"github.com/goliatone/go-formcrud/pkg/form"
	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/store"
)

func fieldID(name string) string {
	return "field-" + name
}

func formView(schema model.Schema, snap form.Snapshot, opts FormOptions) map[string]any {
	method := strings.ToLower(strings.TrimSpace(opts.Method))
	if method == "" {
		method = "post"
	}
	submit := opts.SubmitLabel
	if submit == "" {
		submit = "Save"
	}

	fields := make([]map[string]any, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		fields = append(fields, fieldView(field, snap))
	}

	return map[string]any{
		"resource":    schema.Resource,
		"title":       opts.Title,
		"submitLabel": submit,
		"cancelLabel": opts.CancelLabel,
		"busy":        opts.Busy,
		"action":      opts.Action,
		"method":      method,
		"error":       opts.Error,
		"fields":      fields,
	}
}

func fieldView(field model.Field, snap form.Snapshot) map[string]any {
	id := fieldID(field.Name)
	value := snap.Value(field.Name)
	view := map[string]any{
		"name":        field.Name,
		"id":          id,
		"errorId":     id + "-error",
		"label":       field.Label,
		"kind":        string(field.Kind),
		"required":    field.Required,
		"disabled":    field.Disabled,
		"placeholder": field.Placeholder,
		"value":       value,
		"error":       snap.VisibleError(field.Name),
		"help":        sanitizeHelp(field.Help),
	}

	switch field.Kind {
	case model.KindTextArea:
		rows := field.Rows
		if rows <= 0 {
			rows = model.DefaultTextAreaRows
		}
		view["rows"] = rows
	case model.KindSelect:
		choices := make([]map[string]any, 0, len(field.Choices))
		for _, choice := range field.Choices {
			choices = append(choices, map[string]any{
				"value":    choice.Value,
				"label":    choice.Label,
				"selected": choice.Value == value,
			})
		}
		view["choices"] = choices
	}
	return view
}

func listView(schema model.Schema, state store.State) map[string]any {
	headers := make([]string, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		headers = append(headers, field.Label)
	}

	rows := make([]map[string]any, 0, len(state.Records))
	for _, rec := range state.Records {
		cells := make([]map[string]any, 0, len(schema.Fields))
		for _, field := range schema.Fields {
			cells = append(cells, map[string]any{
				"label": field.Label,
				"value": displayValue(field, rec.Value(field.Name)),
			})
		}
		rows = append(rows, map[string]any{"id": rec.ID, "cells": cells})
	}

	return map[string]any{
		"resource":     schema.Resource,
		"singular":     schema.SingularName(),
		"singularNoun": model.Noun(schema.SingularName()),
		"pluralNoun":   model.Noun(schema.PluralName()),
		"loading":      state.Loading,
		"empty":        len(rows) == 0,
		"error":        state.Err,
		"headers":      headers,
		"rows":         rows,
	}
}

// displayValue shows the choice label for select values the schema knows.
func displayValue(field model.Field, value string) string {
	if field.Kind != model.KindSelect {
		return value
	}
	for _, choice := range field.Choices {
		if choice.Value == value {
			return choice.Label
		}
	}
	return value
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/store"
)

// RenderState formats a store snapshot for the terminal: the record table,
// or the loading and empty states. A recorded error is appended.
func RenderState(schema model.Schema, st store.State, theme Theme) string {
	var b strings.Builder
	switch {
	case st.Loading:
		fmt.Fprintf(&b, "Loading %s...", model.Noun(schema.PluralName()))
	case len(st.Records) == 0:
		fmt.Fprintf(&b, "No %s yet. Choose \"Add %s\" to create your first %s.",
			model.Noun(schema.PluralName()), schema.SingularName(), model.Noun(schema.SingularName()))
	default:
		b.WriteString(recordTable(schema, st, theme))
	}
	if st.Err != "" {
		b.WriteString("\n")
		b.WriteString(theme.Error.Render(theme.ErrorPrefix + st.Err))
	}
	return b.String()
}

func recordTable(schema model.Schema, st store.State, theme Theme) string {
	headers := make([]string, 0, len(schema.Fields)+1)
	headers = append(headers, "#")
	for _, field := range schema.Fields {
		headers = append(headers, field.Label)
	}

	rows := make([][]string, 0, len(st.Records))
	for idx, rec := range st.Records {
		row := make([]string, 0, len(headers))
		row = append(row, fmt.Sprint(idx+1))
		for _, field := range schema.Fields {
			value := rec.Value(field.Name)
			if strings.TrimSpace(value) == "" {
				value = "-"
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(theme.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.String()
}

package template

import (
	"io"
)

// FilterFunc transforms a template value, optionally using a parameter.
type FilterFunc func(input any, param any) (any, error)

// TemplateRenderer renders named templates or inline template strings. When
// writers are supplied the output is also written to each of them.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn FilterFunc) error
	GlobalContext(data any) error
}

package validation

import (
	"strings"

	"github.com/goliatone/go-formcrud/pkg/model"
)

// SchemaIssue is one problem found in a schema document.
type SchemaIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures the outcome of linting a schema.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// LintSchema checks schema invariants and, when reg is non-nil, that every
// Rules.Custom reference names a registered predicate.
func LintSchema(schema model.Schema, reg *Registry) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}

	if err := schema.Validate(); err != nil {
		for _, item := range flatten(err) {
			result.Issues = append(result.Issues, issueFromError(item))
		}
	}
	if reg != nil {
		for _, field := range schema.Fields {
			if field.Rules == nil || field.Rules.Custom == "" {
				continue
			}
			if _, ok := reg.Lookup(field.Rules.Custom); !ok {
				result.Issues = append(result.Issues, SchemaIssue{
					Field:   field.Name,
					Message: "unknown custom validator " + field.Rules.Custom,
				})
			}
		}
	}

	result.Valid = len(result.Issues) == 0
	return result
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, inner := range joined.Unwrap() {
			out = append(out, flatten(inner)...)
		}
		return out
	}
	return []error{err}
}

func issueFromError(err error) SchemaIssue {
	if err == nil {
		return SchemaIssue{Message: "unknown error"}
	}
	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, "schema: ")

	if rest, ok := strings.CutPrefix(msg, "field "); ok {
		if name, detail, found := strings.Cut(rest, ": "); found {
			return SchemaIssue{Field: name, Message: detail}
		}
	}
	return SchemaIssue{Message: msg}
}

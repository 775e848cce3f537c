// Package openapi builds field schemas from OpenAPI 3 component schemas.
// Documents are read from a file, an fs.FS or a URL and parsed with
// kin-openapi; one component becomes one model.Schema.
//
// Property hints use x-formcrud-* extensions: kind, label, placeholder,
// order, pattern (a named pattern), unique, rows. Component-level
// extensions set the resource name (x-formcrud-resource) and the display
// fields (x-formcrud-display).
package openapi

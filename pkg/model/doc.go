// Package model defines the declarative field schema that drives forms,
// validation, list rendering and REST payloads. A Schema is pure data: an
// ordered list of Field descriptors (name, label, kind, required flag,
// validation rules, select options) plus the collection settings used by the
// store (resource name, uniqueness key, display fields). Schemas can be built
// in Go, loaded from JSON/YAML documents, or imported from OpenAPI components
// via pkg/openapi; DefaultUserSchema returns the bundled user schema.
package model

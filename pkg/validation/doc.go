// Package validation applies the rule bundles declared on schema fields to
// text values. Rules run in a fixed order and the first failing rule decides
// the message, so a field never carries more than one error.
//
// The package-level ValidateField and ValidateForm use a shared Engine with
// the system clock and an empty predicate registry. Construct an Engine with
// New when named predicates or a fixed clock are needed.
package validation

// Package orchestrator coordinates one schema-driven CRUD screen: it opens
// edit sessions seeded from defaults or an existing record, routes valid
// submissions to the store, gates deletes behind a confirmation and reports
// every completed or failed mutation through a Notifier.
package orchestrator

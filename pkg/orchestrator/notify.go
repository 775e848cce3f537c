package orchestrator

import (
	"context"
	"fmt"

	"dario.cat/mergo"

	"github.com/goliatone/go-formcrud/pkg/model"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows transient messages (toasts).
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}

// Confirmation describes a confirm dialog.
type Confirmation struct {
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
	Danger       bool
}

// Confirmer asks the operator to accept or decline a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, c Confirmation) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, c Confirmation) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, c Confirmation) (bool, error) {
	return f(ctx, c)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Level, string) {}

// Messages holds the user-facing strings. Zero fields fall back to the
// defaults derived from the schema nouns.
type Messages struct {
	CreateTitle   string
	EditTitle     string
	CreateLabel   string
	UpdateLabel   string
	Created       string
	Updated       string
	SaveFailed    string
	Deleted       string
	DeleteFailed  string
	DeleteTitle   string
	DeletePrompt  string // every "%s" is replaced with the record's display name
	DeleteConfirm string
	DeleteCancel  string
}

// DefaultMessages builds the message set for schema, e.g. "Add New User" and
// "User created successfully!".
func DefaultMessages(schema model.Schema) Messages {
	singular := schema.SingularName()
	noun := model.Noun(singular)
	return Messages{
		CreateTitle:   "Add New " + singular,
		EditTitle:     "Edit " + singular,
		CreateLabel:   "Create",
		UpdateLabel:   "Update",
		Created:       singular + " created successfully!",
		Updated:       singular + " updated successfully!",
		SaveFailed:    "An error occurred. Please try again.",
		Deleted:       singular + " deleted successfully!",
		DeleteFailed:  fmt.Sprintf("Failed to delete %s. Please try again.", noun),
		DeleteTitle:   "Delete " + singular,
		DeletePrompt:  "Are you sure you want to delete %s? This action cannot be undone.",
		DeleteConfirm: "Delete",
		DeleteCancel:  "Cancel",
	}
}

func (m Messages) withDefaults(def Messages) Messages {
	if err := mergo.Merge(&m, def); err != nil {
		return def
	}
	return m
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formcrud/pkg/form"
	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/record"
	"github.com/goliatone/go-formcrud/pkg/store"
	"github.com/goliatone/go-formcrud/pkg/transport"
	"github.com/goliatone/go-formcrud/pkg/validation"
)

var (
	// ErrBusy is returned by Submit while the store is saving.
	ErrBusy = errors.New("orchestrator: a save is already in progress")
	// ErrNoSession is returned by Submit when no edit session is open.
	ErrNoSession = errors.New("orchestrator: no open session")
	// ErrNotFound is returned for ids the store does not hold.
	ErrNotFound = errors.New("orchestrator: record not found")
	// ErrDeclined is returned by Delete when the operator declines.
	ErrDeclined = errors.New("orchestrator: delete declined")
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithNotifier sets where toasts go. Notifications are dropped otherwise.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithConfirmer sets the confirm dialog used before deletes. Delete refuses
// to run without one.
func WithConfirmer(c Confirmer) Option {
	return func(o *Orchestrator) {
		o.confirmer = c
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMessages overrides user-facing strings; empty fields keep defaults.
// DeletePrompt may contain "%s" where the record's display name goes.
func WithMessages(m Messages) Option {
	return func(o *Orchestrator) {
		o.messages = m
	}
}

// WithEngine sets the validation engine handed to every session form.
func WithEngine(engine *validation.Engine) Option {
	return func(o *Orchestrator) {
		o.engine = engine
	}
}

// Session is one open edit surface.
type Session struct {
	form        *form.Form
	editingID   string
	title       string
	submitLabel string

	mu     sync.Mutex
	closed bool
}

// Form returns the session's form state machine.
func (s *Session) Form() *form.Form { return s.form }

// EditingID is the id of the record being edited, empty when creating.
func (s *Session) EditingID() string { return s.editingID }

// Editing reports whether the session edits an existing record.
func (s *Session) Editing() bool { return s.editingID != "" }

func (s *Session) Title() string       { return s.title }
func (s *Session) SubmitLabel() string { return s.submitLabel }

// Closed reports whether the session was cancelled or completed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Orchestrator coordinates the store, edit sessions and operator feedback.
type Orchestrator struct {
	schema    model.Schema
	store     *store.Store
	notifier  Notifier
	confirmer Confirmer
	logger    *log.Logger
	messages  Messages
	engine    *validation.Engine

	mu      sync.Mutex
	session *Session
}

// New constructs an Orchestrator for schema backed by st.
func New(schema model.Schema, st *store.Store, options ...Option) *Orchestrator {
	o := &Orchestrator{
		schema:   schema,
		store:    st,
		notifier: discardNotifier{},
		logger:   log.New(io.Discard),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.messages = o.messages.withDefaults(DefaultMessages(schema))
	if o.engine == nil {
		o.engine = validation.Default()
	}
	return o
}

// Schema returns the schema driving the screen.
func (o *Orchestrator) Schema() model.Schema { return o.schema }

// Store returns the backing store.
func (o *Orchestrator) Store() *store.Store { return o.store }

// Messages returns the effective message set.
func (o *Orchestrator) Messages() Messages { return o.messages }

// Refresh reloads the collection. Failures are recorded on the store and
// returned without a notification.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	return o.store.Load(ctx)
}

// Session returns the open session, or nil.
func (o *Orchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// OpenCreate opens a session seeded from the schema defaults, replacing any
// open session.
func (o *Orchestrator) OpenCreate() *Session {
	return o.open(&Session{
		form:        form.New(o.schema, nil, form.WithEngine(o.engine)),
		title:       o.messages.CreateTitle,
		submitLabel: o.messages.CreateLabel,
	})
}

// OpenEdit opens a session seeded from the stored record with id.
func (o *Orchestrator) OpenEdit(id string) (*Session, error) {
	rec, ok := o.store.Snapshot().Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return o.open(&Session{
		form:        form.New(o.schema, rec.Fields, form.WithEngine(o.engine)),
		editingID:   id,
		title:       o.messages.EditTitle,
		submitLabel: o.messages.UpdateLabel,
	}), nil
}

func (o *Orchestrator) open(s *Session) *Session {
	o.mu.Lock()
	prev := o.session
	o.session = s
	o.mu.Unlock()
	if prev != nil {
		prev.close()
	}
	return s
}

// Close cancels the open session. A submission still in flight for it will
// not touch it when it completes.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	s := o.session
	o.session = nil
	o.mu.Unlock()
	if s != nil {
		s.close()
	}
}

func (o *Orchestrator) closeIfCurrent(s *Session) {
	o.mu.Lock()
	if o.session == s {
		o.session = nil
	}
	o.mu.Unlock()
	s.close()
}

// Busy reports whether the submit control should be disabled.
func (o *Orchestrator) Busy() bool {
	return o.store.Snapshot().Saving
}

// Submit validates the open session and persists it, creating or updating
// depending on the session. On success the session closes. Invalid forms
// return *form.InvalidError without any call or notification.
func (o *Orchestrator) Submit(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	s := o.Session()
	if s == nil {
		return ErrNoSession
	}
	if o.Busy() {
		return ErrBusy
	}

	err := s.form.Submit(ctx, func(ctx context.Context, values map[string]string) error {
		input := record.FromValues(o.schema, values)
		if s.Editing() {
			_, err := o.store.Update(ctx, s.editingID, input)
			return err
		}
		_, err := o.store.Create(ctx, input)
		return err
	})

	var (
		invalid *form.InvalidError
		dup     *store.DuplicateError
		terr    *transport.Error
	)
	switch {
	case err == nil:
		if s.Editing() {
			o.notifier.Notify(LevelSuccess, o.messages.Updated)
		} else {
			o.notifier.Notify(LevelSuccess, o.messages.Created)
		}
		o.closeIfCurrent(s)
		return nil
	case errors.As(err, &invalid), errors.Is(err, form.ErrSubmitting):
		return err
	case errors.Is(err, store.ErrStale):
		o.logger.Debug("submit result discarded", "err", err)
		return err
	case errors.As(err, &dup):
		if !s.Closed() {
			s.form.SetErrors(map[string]string{dup.Field: dup.Message})
		}
		o.notifier.Notify(LevelError, dup.Message)
		return err
	case errors.As(err, &terr):
		if !s.Closed() {
			s.form.SetErrors(terr.FieldErrors())
		}
	}
	o.logger.Error("submit failed", "editing", s.editingID, "err", err)
	o.notifier.Notify(LevelError, o.messages.SaveFailed)
	return err
}

// Delete asks for confirmation and then deletes the record with id.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if o.confirmer == nil {
		return errors.New("orchestrator: confirmer is required to delete")
	}
	rec, ok := o.store.Snapshot().Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	confirmed, err := o.confirmer.Confirm(ctx, Confirmation{
		Title:        o.messages.DeleteTitle,
		Message:      strings.ReplaceAll(o.messages.DeletePrompt, "%s", rec.DisplayName(o.schema)),
		ConfirmLabel: o.messages.DeleteConfirm,
		CancelLabel:  o.messages.DeleteCancel,
		Danger:       true,
	})
	if err != nil {
		return fmt.Errorf("orchestrator: confirm delete: %w", err)
	}
	if !confirmed {
		return ErrDeclined
	}

	if err := o.store.Delete(ctx, id); err != nil {
		o.logger.Error("delete failed", "id", id, "err", err)
		o.notifier.Notify(LevelError, o.messages.DeleteFailed)
		return err
	}
	o.notifier.Notify(LevelSuccess, o.messages.Deleted)
	return nil
}

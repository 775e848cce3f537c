package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formcrud/pkg/form"
	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/orchestrator"
)

type menuAction int

const (
	actionList menuAction = iota
	actionAdd
	actionEdit
	actionDelete
	actionReload
	actionQuit
)

// App is the interactive terminal manager for one schema. It drives an
// orchestrator through a PromptDriver and doubles as the orchestrator's
// notifier and confirmer.
type App struct {
	driver PromptDriver
	theme  Theme
	logger *log.Logger
}

// New constructs an App with defaults (survey driver, default theme).
func New(options ...Option) *App {
	a := &App{
		theme:  DefaultTheme(),
		logger: log.New(io.Discard),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	if a.driver == nil {
		a.driver = NewSurveyDriver(nil)
	}
	return a
}

// Name reports the front-end identifier.
func (a *App) Name() string {
	return "tui"
}

// Notifier prints toasts through the driver.
func (a *App) Notifier() orchestrator.Notifier {
	return orchestrator.NotifierFunc(func(level orchestrator.Level, message string) {
		if err := a.driver.Info(context.Background(), a.theme.toast(level, message)); err != nil {
			a.logger.Warn("toast failed", "err", err)
		}
	})
}

// Confirmer asks through the driver; the default answer is no.
func (a *App) Confirmer() orchestrator.Confirmer {
	return orchestrator.ConfirmerFunc(func(ctx context.Context, c orchestrator.Confirmation) (bool, error) {
		message := c.Message
		if c.Title != "" {
			message = c.Title + ": " + c.Message
		}
		return a.driver.Confirm(ctx, ConfirmConfig{Message: message})
	})
}

// Run loads the collection and serves the menu until the operator quits or
// aborts. Only context and driver failures are returned.
func (a *App) Run(ctx context.Context, orch *orchestrator.Orchestrator) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if orch == nil {
		return ErrNoOrchestrator
	}

	schema := orch.Schema()
	if err := orch.Refresh(ctx); err != nil {
		a.logger.Debug("initial load failed", "err", err)
	}
	if err := a.show(ctx, orch); err != nil {
		return err
	}

	plural := model.Noun(schema.PluralName())
	singular := model.Noun(schema.SingularName())
	menu := []string{
		"List " + plural,
		"Add " + singular,
		"Edit " + singular,
		"Delete " + singular,
		"Reload",
		"Quit",
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx, err := a.driver.Select(ctx, SelectConfig{Message: schema.PluralName(), Options: menu})
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		switch menuAction(idx) {
		case actionList:
			err = a.show(ctx, orch)
		case actionAdd:
			err = a.edit(ctx, orch, orch.OpenCreate())
		case actionEdit:
			err = a.editExisting(ctx, orch)
		case actionDelete:
			err = a.deleteExisting(ctx, orch)
		case actionReload:
			if loadErr := orch.Refresh(ctx); loadErr != nil {
				a.logger.Debug("reload failed", "err", loadErr)
			}
			err = a.show(ctx, orch)
		case actionQuit:
			return nil
		default:
			err = a.driver.Info(ctx, a.theme.toast(orchestrator.LevelError, "Unknown choice"))
		}

		if errors.Is(err, ErrAborted) {
			orch.Close()
			continue
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) show(ctx context.Context, orch *orchestrator.Orchestrator) error {
	return a.driver.Info(ctx, RenderState(orch.Schema(), orch.Store().Snapshot(), a.theme))
}

// pickRecord lets the operator choose a record; ok is false when there is
// nothing to choose from.
func (a *App) pickRecord(ctx context.Context, orch *orchestrator.Orchestrator, verb string) (string, bool, error) {
	schema := orch.Schema()
	records := orch.Store().Snapshot().Records
	if len(records) == 0 {
		msg := fmt.Sprintf("No %s to %s", model.Noun(schema.PluralName()), verb)
		return "", false, a.driver.Info(ctx, a.theme.toast(orchestrator.LevelInfo, msg))
	}

	options := make([]string, 0, len(records))
	for idx, rec := range records {
		options = append(options, fmt.Sprintf("%d. %s", idx+1, rec.DisplayName(schema)))
	}
	idx, err := a.driver.Select(ctx, SelectConfig{
		Message: fmt.Sprintf("Which %s?", model.Noun(schema.SingularName())),
		Options: options,
	})
	if err != nil {
		return "", false, err
	}
	if idx < 0 || idx >= len(records) {
		return "", false, nil
	}
	return records[idx].ID, true, nil
}

func (a *App) editExisting(ctx context.Context, orch *orchestrator.Orchestrator) error {
	id, ok, err := a.pickRecord(ctx, orch, "edit")
	if err != nil || !ok {
		return err
	}
	session, err := orch.OpenEdit(id)
	if err != nil {
		return a.driver.Info(ctx, a.theme.toast(orchestrator.LevelError, err.Error()))
	}
	return a.edit(ctx, orch, session)
}

func (a *App) deleteExisting(ctx context.Context, orch *orchestrator.Orchestrator) error {
	id, ok, err := a.pickRecord(ctx, orch, "delete")
	if err != nil || !ok {
		return err
	}
	// failures are already notified by the orchestrator
	if err := orch.Delete(ctx, id); err != nil && !errors.Is(err, orchestrator.ErrDeclined) {
		a.logger.Debug("delete not completed", "id", id, "err", err)
	}
	return nil
}

// edit prompts every field, then submits. Fields that come back with errors
// (local or from the server) are prompted again until the submit succeeds or
// the operator gives up.
func (a *App) edit(ctx context.Context, orch *orchestrator.Orchestrator, session *orchestrator.Session) error {
	if err := a.driver.Info(ctx, a.theme.toast(orchestrator.LevelInfo, session.Title())); err != nil {
		return err
	}

	f := session.Form()
	fields := f.Schema().Fields
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, field := range fields {
			if field.Disabled {
				continue
			}
			if err := a.promptField(ctx, f, field); err != nil {
				return err
			}
		}

		err := orch.Submit(ctx)
		if err == nil || session.Closed() {
			return nil
		}
		if errors.Is(err, orchestrator.ErrBusy) {
			orch.Close()
			return a.driver.Info(ctx, a.theme.toast(orchestrator.LevelError, "Another save is still in progress"))
		}

		// Disabled fields cannot be re-prompted, so an error on one of them
		// falls through to the retry question.
		fields = invalidFields(f)
		if len(fields) > 0 {
			continue
		}
		retry, confirmErr := a.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("%s again?", session.SubmitLabel())})
		if confirmErr != nil {
			return confirmErr
		}
		if !retry {
			orch.Close()
			return nil
		}
	}
}

// promptField asks for one field until it validates. Each answer is applied
// as a change followed by a blur.
func (a *App) promptField(ctx context.Context, f *form.Form, field model.Field) error {
	for {
		current := f.Snapshot().Value(field.Name)
		value, err := a.ask(ctx, field, current)
		if err != nil {
			return err
		}
		if _, err := f.Change(field.Name, value); err != nil {
			return err
		}
		snap, err := f.Blur(field.Name)
		if err != nil {
			return err
		}
		msg := snap.VisibleError(field.Name)
		if msg == "" {
			return nil
		}
		if err := a.driver.Info(ctx, a.theme.toast(orchestrator.LevelError, field.Label+": "+msg)); err != nil {
			return err
		}
	}
}

func (a *App) ask(ctx context.Context, field model.Field, current string) (string, error) {
	label := field.Label
	if field.Required {
		label += " *"
	}
	help := field.Help
	if help == "" {
		help = field.Placeholder
	}

	switch field.Kind {
	case model.KindSelect:
		options := make([]string, 0, len(field.Choices)+1)
		options = append(options, "Select "+field.Label)
		defaultIdx := 0
		for idx, choice := range field.Choices {
			options = append(options, choice.Label)
			if choice.Value == current {
				defaultIdx = idx + 1
			}
		}
		idx, err := a.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         help,
		})
		if err != nil {
			return "", err
		}
		if idx <= 0 || idx > len(field.Choices) {
			return "", nil
		}
		return field.Choices[idx-1].Value, nil
	case model.KindTextArea:
		return a.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: current, Help: help})
	default:
		return a.driver.Input(ctx, InputConfig{Message: label, Default: current, Help: help})
	}
}

// invalidFields lists the editable fields with a visible error.
func invalidFields(f *form.Form) []model.Field {
	snap := f.Snapshot()
	var out []model.Field
	for _, field := range f.Schema().Fields {
		if !field.Disabled && snap.VisibleError(field.Name) != "" {
			out = append(out, field)
		}
	}
	return out
}

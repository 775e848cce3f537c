// Package formcrud wires a schema, a REST transport, the collection store and
// the orchestrator together so applications can start from a single call.
//
// Quick start:
//
//	app, err := formcrud.New(formcrud.Config{BaseURL: "http://localhost:3001/api"})
//	if err != nil { ... }
//	if err := app.Orchestrator.Refresh(ctx); err != nil { ... }
//	session := app.Orchestrator.OpenCreate()
package formcrud

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/orchestrator"
	"github.com/goliatone/go-formcrud/pkg/renderers/vanilla"
	"github.com/goliatone/go-formcrud/pkg/store"
	"github.com/goliatone/go-formcrud/pkg/transport"
	"github.com/goliatone/go-formcrud/pkg/validation"
)

// Schema aliases model.Schema for callers that only import the root package.
type Schema = model.Schema

// Field aliases model.Field.
type Field = model.Field

// Config describes the stack assembled by New.
type Config struct {
	// BaseURL is the API root; the schema resource is appended.
	BaseURL string
	// Schema defaults to the built-in user schema when it has no fields.
	Schema model.Schema
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *log.Logger
	Notifier   orchestrator.Notifier
	Confirmer  orchestrator.Confirmer
	Engine     *validation.Engine
	Messages   orchestrator.Messages
}

// App is an assembled stack.
type App struct {
	Schema       model.Schema
	Client       *transport.Client
	Store        *store.Store
	Orchestrator *orchestrator.Orchestrator
}

// New validates the schema and builds the transport, store and orchestrator.
func New(cfg Config) (*App, error) {
	schema := cfg.Schema
	if len(schema.Fields) == 0 {
		schema = model.DefaultUserSchema()
	}
	schema = model.ApplyDefaults(schema)
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("formcrud: %w", err)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("formcrud: base url is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := transport.NewClient(cfg.BaseURL, schema,
		transport.WithHTTPClient(hc),
		transport.WithLogger(logger.WithPrefix("transport")),
	)
	if err != nil {
		return nil, err
	}

	st := store.New(client,
		store.WithSchema(schema),
		store.WithLogger(logger.WithPrefix("store")),
	)

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger.WithPrefix("orchestrator")),
		orchestrator.WithMessages(cfg.Messages),
	}
	if cfg.Notifier != nil {
		opts = append(opts, orchestrator.WithNotifier(cfg.Notifier))
	}
	if cfg.Confirmer != nil {
		opts = append(opts, orchestrator.WithConfirmer(cfg.Confirmer))
	}
	if cfg.Engine != nil {
		opts = append(opts, orchestrator.WithEngine(cfg.Engine))
	}

	return &App{
		Schema:       schema,
		Client:       client,
		Store:        st,
		Orchestrator: orchestrator.New(schema, st, opts...),
	}, nil
}

// LoadSchema reads a JSON or YAML schema file. An empty path returns the
// built-in user schema.
func LoadSchema(path string) (model.Schema, error) {
	if strings.TrimSpace(path) == "" {
		return model.DefaultUserSchema(), nil
	}
	return model.LoadFile(path)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can copy
// or extend them without importing the renderer package.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the stylesheet used by the HTML renderer.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formcrud.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}

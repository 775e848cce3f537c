// Package devserver is a small REST backend for local development and
// integration tests. It serves one schema-described collection from SQLite,
// validates writes with the same engine as the forms and previews the
// collection as HTML.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/goliatone/go-formcrud/pkg/form"
	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/record"
	"github.com/goliatone/go-formcrud/pkg/renderers/vanilla"
	"github.com/goliatone/go-formcrud/pkg/store"
	"github.com/goliatone/go-formcrud/pkg/validation"
)

const maxBodyBytes = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLatency delays every API response by d.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.latency = d
		}
	}
}

// WithEngine sets the validation engine used for writes.
func WithEngine(engine *validation.Engine) Option {
	return func(s *Server) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithRenderer sets the HTML renderer used by the preview page.
func WithRenderer(r *vanilla.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// Server serves the collection described by its schema.
type Server struct {
	schema   model.Schema
	storage  *Storage
	engine   *validation.Engine
	renderer *vanilla.Renderer
	logger   *log.Logger
	latency  time.Duration

	// mu makes the uniqueness check and the write a single step.
	mu sync.Mutex
}

// New constructs a Server. The schema must name a resource.
func New(schema model.Schema, storage *Storage, opts ...Option) (*Server, error) {
	if schema.Resource == "" {
		return nil, errors.New("devserver: schema resource is required")
	}
	if storage == nil {
		return nil, errors.New("devserver: storage is required")
	}
	s := &Server{
		schema:  schema,
		storage: storage,
		engine:  validation.Default(),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderer == nil {
		r, err := vanilla.New()
		if err != nil {
			return nil, err
		}
		s.renderer = r
	}
	return s, nil
}

// Handler returns the router:
//
//	GET    /healthz
//	GET    /                      HTML preview (?edit=<id> opens the edit form)
//	GET    /assets/*              embedded stylesheet
//	GET    /api/<resource>
//	POST   /api/<resource>
//	GET    /api/<resource>/{id}
//	PUT    /api/<resource>/{id}
//	DELETE /api/<resource>/{id}
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", s.preview)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(vanilla.AssetsFS()))))

	r.Route("/api/"+s.schema.Resource, func(r chi.Router) {
		r.Use(s.delay)
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.get)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.remove)
	})
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "resource", s.schema.Resource)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("devserver: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	recs, err := s.records(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	items := make([]json.RawMessage, 0, len(recs))
	for _, rec := range recs {
		body, err := record.Encode(rec, true)
		if err != nil {
			s.internalError(w, err)
			return
		}
		items = append(items, body)
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeValid(w, r)
	if !ok {
		return
	}
	rec.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkUnique(r.Context(), w, rec, "") {
		return
	}
	body, err := record.Encode(rec, false)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if err := s.storage.Insert(r.Context(), s.schema.Resource, rec.ID, body); err != nil {
		s.internalError(w, err)
		return
	}
	writeRecord(w, http.StatusCreated, rec)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.decodeValid(w, r)
	if !ok {
		return
	}
	rec.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkUnique(r.Context(), w, rec, id) {
		return
	}
	body, err := record.Encode(rec, false)
	if err != nil {
		s.internalError(w, err)
		return
	}
	err = s.storage.Replace(r.Context(), s.schema.Resource, id, body)
	if errors.Is(err, ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.storage.Delete(r.Context(), s.schema.Resource, chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

// decodeValid reads the body and validates every schema field, answering
// 400 or 422 itself when it returns false.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request) (record.Record, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Could not read request body")
		return record.Record{}, false
	}
	rec, err := record.Decode(s.schema, data)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Request body must be a flat JSON object")
		return record.Record{}, false
	}
	if errs := s.engine.ValidateForm(rec.Fields, s.schema.Fields); !errs.Empty() {
		writeFieldErrors(w, http.StatusUnprocessableEntity, "Validation failed", errs)
		return record.Record{}, false
	}
	return rec, true
}

// checkUnique answers 409 when another record already holds rec's unique
// key value. Callers hold s.mu.
func (s *Server) checkUnique(ctx context.Context, w http.ResponseWriter, rec record.Record, excludeID string) bool {
	key := s.schema.UniqueKey
	if key == "" || rec.Value(key) == "" {
		return true
	}
	existing, err := s.records(ctx)
	if err != nil {
		s.internalError(w, err)
		return false
	}
	for _, other := range existing {
		if other.ID != excludeID && other.Value(key) == rec.Value(key) {
			label := key
			if field, ok := s.schema.Field(key); ok {
				label = field.Label
			}
			message := fmt.Sprintf("A %s with this %s already exists",
				model.Noun(s.schema.SingularName()), model.Noun(label))
			writeFieldErrors(w, http.StatusConflict, message, map[string]string{key: message})
			return false
		}
	}
	return true
}

func (s *Server) records(ctx context.Context) ([]record.Record, error) {
	rows, err := s.storage.List(ctx, s.schema.Resource)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := record.Decode(s.schema, row.Body)
		if err != nil {
			return nil, fmt.Errorf("devserver: stored record %s: %w", row.ID, err)
		}
		rec.ID = row.ID
		out = append(out, rec)
	}
	return out, nil
}

func (s *Server) record(ctx context.Context, id string) (record.Record, error) {
	row, err := s.storage.Get(ctx, s.schema.Resource, id)
	if err != nil {
		return record.Record{}, err
	}
	rec, err := record.Decode(s.schema, row.Body)
	if err != nil {
		return record.Record{}, err
	}
	rec.ID = row.ID
	return rec, nil
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	recs, err := s.records(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	state := store.State{Records: recs}

	f := form.New(s.schema, nil, form.WithEngine(s.engine))
	opts := vanilla.FormOptions{
		Title:       "Add New " + s.schema.SingularName(),
		SubmitLabel: "Create",
		Action:      "/api/" + s.schema.Resource,
	}
	if id := r.URL.Query().Get("edit"); id != "" {
		if rec, ok := state.Find(id); ok {
			f = form.New(s.schema, rec.Fields, form.WithEngine(s.engine))
			opts.Title = "Edit " + s.schema.SingularName()
			opts.SubmitLabel = "Update"
			opts.Action = "/api/" + s.schema.Resource + "/" + id
		}
	}
	snap := f.Snapshot()

	page, err := s.renderer.RenderPage(s.schema, state, &snap, opts)
	if err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			t := time.NewTimer(s.latency)
			select {
			case <-t.C:
			case <-r.Context().Done():
				t.Stop()
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "err", err)
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRecord(w http.ResponseWriter, status int, rec record.Record) {
	body, err := record.Encode(rec, true)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, status, json.RawMessage(body))
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeFieldErrors answers {"message": ..., "errors": {"field": ["msg"]}}.
func writeFieldErrors(w http.ResponseWriter, status int, message string, errs map[string]string) {
	fields := make(map[string][]string, len(errs))
	for name, msg := range errs {
		fields[name] = []string{msg}
	}
	writeJSON(w, status, map[string]any{"message": message, "errors": fields})
}

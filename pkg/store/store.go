// Package store keeps the client-side copy of a record collection in sync
// with a transport. Every failure is both recorded in State.Err and returned
// to the caller.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/record"
	"github.com/goliatone/go-formcrud/pkg/transport"
)

var (
	// ErrDuplicate matches *DuplicateError.
	ErrDuplicate = errors.New("store: duplicate value")
	// ErrStale is returned when a response arrives after Reset.
	ErrStale = errors.New("store: response discarded after reset")
)

// DuplicateError reports a uniqueness-key collision detected before any
// transport call.
type DuplicateError struct {
	Field   string
	Value   string
	Message string
}

func (e *DuplicateError) Error() string {
	return e.Message
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// State is an immutable view of the store.
type State struct {
	Records []record.Record
	Loading bool
	Saving  bool
	Err     string
}

// Find returns the record with id.
func (s State) Find(id string) (record.Record, bool) {
	for _, rec := range s.Records {
		if rec.ID == id {
			return rec, true
		}
	}
	return record.Record{}, false
}

// Option customises a Store.
type Option func(*Store)

// WithUniqueKey enforces distinct values of field across records. label is
// used in the duplicate message; the field name is humanised when empty.
func WithUniqueKey(field, label string) Option {
	return func(s *Store) {
		s.uniqueKey = strings.TrimSpace(field)
		s.uniqueLabel = strings.TrimSpace(label)
	}
}

// WithSchema derives the unique key and failure messages from schema.
func WithSchema(schema model.Schema) Option {
	return func(s *Store) {
		s.schema = schema
		if schema.UniqueKey != "" {
			s.uniqueKey = schema.UniqueKey
			if field, ok := schema.Field(schema.UniqueKey); ok {
				s.uniqueLabel = field.Label
			}
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is safe for concurrent use. Mutating calls are not serialised; callers
// that need one-at-a-time semantics should check State.Saving.
type Store struct {
	transport   transport.Transport
	schema      model.Schema
	uniqueKey   string
	uniqueLabel string
	logger      *log.Logger

	mu          sync.Mutex
	state       State
	inFlight    int
	generation  uint64
	reserved    map[string]int
	subscribers map[int]func(State)
	nextSub     int
}

// New constructs a store over t.
func New(t transport.Transport, opts ...Option) *Store {
	s := &Store{
		transport:   t,
		logger:      log.New(io.Discard),
		reserved:    make(map[string]int),
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.uniqueKey != "" && s.uniqueLabel == "" {
		s.uniqueLabel = model.DefaultLabeler(s.uniqueKey)
	}
	return s
}

// Snapshot returns the current state. The records slice must not be
// modified.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every new state. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// UniqueKey returns the field checked for duplicates, if any.
func (s *Store) UniqueKey() string {
	return s.uniqueKey
}

// Load replaces the collection with the transport's listing.
func (s *Store) Load(ctx context.Context) error {
	gen := s.update(func(st *State) {
		st.Loading = true
		st.Err = ""
	})

	records, err := s.transport.List(ctx)
	if err != nil {
		s.logger.Error("load failed", "err", err)
		return s.fail(gen, transport.OpList, err, func(st *State) { st.Loading = false })
	}

	return s.apply(gen, func(st *State) {
		st.Records = append([]record.Record(nil), records...)
		st.Loading = false
	})
}

// Create checks the unique key, then persists input and appends the stored
// record.
func (s *Store) Create(ctx context.Context, input record.Record) (record.Record, error) {
	gen, release, err := s.begin(input, "")
	if err != nil {
		return record.Record{}, err
	}
	defer release()

	created, err := s.transport.Create(ctx, input)
	if err != nil {
		s.logger.Error("create failed", "err", err)
		return record.Record{}, s.fail(gen, transport.OpCreate, err, s.endSaving)
	}

	err = s.apply(gen, func(st *State) {
		next := make([]record.Record, 0, len(st.Records)+1)
		next = append(next, st.Records...)
		st.Records = append(next, created)
		s.endSaving(st)
	})
	if err != nil {
		return record.Record{}, err
	}
	s.logger.Info("record created", "id", created.ID)
	return created, nil
}

// Update checks the unique key against every other record, persists input
// and replaces the record in place. Extra attributes of the stored record are
// sent along unless input carries its own.
func (s *Store) Update(ctx context.Context, id string, input record.Record) (record.Record, error) {
	if input.Extra == nil {
		if existing, ok := s.Snapshot().Find(id); ok && existing.Extra != nil {
			input = input.Clone()
			input.Extra = existing.Clone().Extra
		}
	}
	input.ID = id

	gen, release, err := s.begin(input, id)
	if err != nil {
		return record.Record{}, err
	}
	defer release()

	updated, err := s.transport.Update(ctx, id, input)
	if err != nil {
		s.logger.Error("update failed", "id", id, "err", err)
		return record.Record{}, s.fail(gen, transport.OpUpdate, err, s.endSaving)
	}

	err = s.apply(gen, func(st *State) {
		next := make([]record.Record, len(st.Records))
		for idx, rec := range st.Records {
			if rec.ID == id {
				rec = updated
			}
			next[idx] = rec
		}
		st.Records = next
		s.endSaving(st)
	})
	if err != nil {
		return record.Record{}, err
	}
	s.logger.Info("record updated", "id", id)
	return updated, nil
}

// Delete removes the record with id remotely and locally.
func (s *Store) Delete(ctx context.Context, id string) error {
	gen := s.update(func(st *State) {
		s.inFlight++
		st.Saving = true
		st.Err = ""
	})

	if err := s.transport.Delete(ctx, id); err != nil {
		s.logger.Error("delete failed", "id", id, "err", err)
		return s.fail(gen, transport.OpDelete, err, s.endSaving)
	}

	err := s.apply(gen, func(st *State) {
		next := make([]record.Record, 0, len(st.Records))
		for _, rec := range st.Records {
			if rec.ID != id {
				next = append(next, rec)
			}
		}
		if len(next) != len(st.Records) {
			st.Records = next
		}
		s.endSaving(st)
	})
	if err == nil {
		s.logger.Info("record deleted", "id", id)
	}
	return err
}

// ClearError clears State.Err only.
func (s *Store) ClearError() {
	s.update(func(st *State) { st.Err = "" })
}

// Reset discards all state. Calls in flight keep running but their results
// are not applied and they return ErrStale.
func (s *Store) Reset() {
	s.mu.Lock()
	s.generation++
	s.inFlight = 0
	s.reserved = make(map[string]int)
	s.state = State{}
	next, subs := s.state, s.subscriberList()
	s.mu.Unlock()
	notify(subs, next)
}

// begin performs the uniqueness check and reserves the key value, all under
// one lock so concurrent creates cannot both pass.
func (s *Store) begin(input record.Record, excludeID string) (uint64, func(), error) {
	s.mu.Lock()

	value := ""
	if s.uniqueKey != "" {
		value = strings.TrimSpace(input.Fields[s.uniqueKey])
	}
	if value != "" && s.isTakenLocked(value, excludeID) {
		dup := &DuplicateError{
			Field:   s.uniqueKey,
			Value:   value,
			Message: fmt.Sprintf("A %s with this %s already exists", model.Noun(s.singular()), model.Noun(s.uniqueLabel)),
		}
		next := s.state
		next.Err = dup.Message
		s.state = next
		subs := s.subscriberList()
		s.mu.Unlock()
		notify(subs, next)
		s.logger.Warn("duplicate rejected", "field", s.uniqueKey)
		return 0, func() {}, dup
	}

	gen := s.generation
	if value != "" {
		s.reserved[value]++
	}
	s.inFlight++
	next := s.state
	next.Saving = true
	next.Err = ""
	s.state = next
	subs := s.subscriberList()
	s.mu.Unlock()
	notify(subs, next)

	release := func() {
		if value == "" {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return
		}
		if s.reserved[value]--; s.reserved[value] <= 0 {
			delete(s.reserved, value)
		}
	}
	return gen, release, nil
}

func (s *Store) isTakenLocked(value, excludeID string) bool {
	if s.reserved[value] > 0 {
		return true
	}
	for _, rec := range s.state.Records {
		if rec.ID == excludeID {
			continue
		}
		if strings.TrimSpace(rec.Fields[s.uniqueKey]) == value {
			return true
		}
	}
	return false
}

func (s *Store) singular() string {
	if s.schema.Resource == "" && s.schema.Singular == "" {
		return "record"
	}
	return s.schema.SingularName()
}

func (s *Store) endSaving(st *State) {
	if s.inFlight > 0 {
		s.inFlight--
	}
	st.Saving = s.inFlight > 0
}

// update mutates a copy of the state under lock, publishes it and returns the
// generation the change belongs to.
func (s *Store) update(fn func(*State)) uint64 {
	s.mu.Lock()
	next := s.state
	fn(&next)
	s.state = next
	gen := s.generation
	subs := s.subscriberList()
	s.mu.Unlock()
	notify(subs, next)
	return gen
}

// apply publishes fn's change when gen is still current. Otherwise it returns
// ErrStale and leaves the state alone.
func (s *Store) apply(gen uint64, fn func(*State)) error {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return ErrStale
	}
	next := s.state
	fn(&next)
	s.state = next
	subs := s.subscriberList()
	s.mu.Unlock()
	notify(subs, next)
	return nil
}

func (s *Store) fail(gen uint64, op transport.Op, err error, settle func(*State)) error {
	message := failureMessage(err)
	if message == "" {
		message = transport.FailureMessage(s.schema, op)
	}
	if applyErr := s.apply(gen, func(st *State) {
		settle(st)
		st.Err = message
	}); applyErr != nil {
		return errors.Join(err, applyErr)
	}
	return err
}

func failureMessage(err error) string {
	var terr *transport.Error
	if errors.As(err, &terr) {
		return terr.Message
	}
	return ""
}

func (s *Store) subscriberList() []func(State) {
	if len(s.subscribers) == 0 {
		return nil
	}
	out := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}

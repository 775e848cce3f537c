package testsupport

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/record"
	"github.com/goliatone/go-formcrud/pkg/transport"
)

// MemoryTransport is an in-memory transport.Transport. Ids are assigned
// sequentially after the seeded records. Failures can be scripted per
// operation.
type MemoryTransport struct {
	mu      sync.Mutex
	schema  model.Schema
	records []record.Record
	nextID  int
	calls   map[transport.Op]int
	fail    map[transport.Op]error
	bodies  []record.Record
}

var _ transport.Transport = (*MemoryTransport)(nil)

// NewMemoryTransport seeds the transport with copies of records.
func NewMemoryTransport(schema model.Schema, seed ...record.Record) *MemoryTransport {
	m := &MemoryTransport{
		schema: schema,
		calls:  make(map[transport.Op]int),
		fail:   make(map[transport.Op]error),
	}
	for _, rec := range seed {
		m.records = append(m.records, rec.Clone())
		if n, err := strconv.Atoi(rec.ID); err == nil && n > m.nextID {
			m.nextID = n
		}
	}
	return m
}

// Fail makes every later call of op return err. A nil err clears it.
func (m *MemoryTransport) Fail(op transport.Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Calls reports how many times op was invoked.
func (m *MemoryTransport) Calls(op transport.Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls reports the number of calls across all operations.
func (m *MemoryTransport) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Bodies returns the records received by Create and Update, in order.
func (m *MemoryTransport) Bodies() []record.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]record.Record(nil), m.bodies...)
}

// Records returns the server-side collection.
func (m *MemoryTransport) Records() []record.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]record.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.Clone())
	}
	return out
}

func (m *MemoryTransport) begin(op transport.Op) error {
	m.calls[op]++
	return m.fail[op]
}

func (m *MemoryTransport) List(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(transport.OpList); err != nil {
		return nil, err
	}
	out := make([]record.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (m *MemoryTransport) Get(ctx context.Context, id string) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(transport.OpGet); err != nil {
		return record.Record{}, err
	}
	if idx := m.indexLocked(id); idx >= 0 {
		return m.records[idx].Clone(), nil
	}
	return record.Record{}, m.notFound(transport.OpGet)
}

func (m *MemoryTransport) Create(ctx context.Context, rec record.Record) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, rec.Clone())
	if err := m.begin(transport.OpCreate); err != nil {
		return record.Record{}, err
	}
	m.nextID++
	created := rec.Clone()
	created.ID = strconv.Itoa(m.nextID)
	m.records = append(m.records, created)
	return created.Clone(), nil
}

func (m *MemoryTransport) Update(ctx context.Context, id string, rec record.Record) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, rec.Clone())
	if err := m.begin(transport.OpUpdate); err != nil {
		return record.Record{}, err
	}
	idx := m.indexLocked(id)
	if idx < 0 {
		return record.Record{}, m.notFound(transport.OpUpdate)
	}
	updated := rec.Clone()
	updated.ID = id
	m.records[idx] = updated
	return updated.Clone(), nil
}

func (m *MemoryTransport) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(transport.OpDelete); err != nil {
		return err
	}
	idx := m.indexLocked(id)
	if idx < 0 {
		return m.notFound(transport.OpDelete)
	}
	m.records = append(m.records[:idx:idx], m.records[idx+1:]...)
	return nil
}

func (m *MemoryTransport) indexLocked(id string) int {
	for idx, rec := range m.records {
		if rec.ID == id {
			return idx
		}
	}
	return -1
}

func (m *MemoryTransport) notFound(op transport.Op) error {
	return &transport.Error{
		Op:      op,
		Status:  http.StatusNotFound,
		Message: transport.FailureMessage(m.schema, op),
	}
}

package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/goliatone/go-formcrud/pkg/record"
)

// ReadSeed decodes a json-server style document ({"users": [...], ...}) and
// returns the items stored under resource. A missing key yields no items.
func ReadSeed(r io.Reader, resource string) ([]json.RawMessage, error) {
	var doc map[string][]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("devserver: decode seed: %w", err)
	}
	return doc[resource], nil
}

// ReadSeedFile reads a seed document from disk.
func ReadSeedFile(path, resource string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("devserver: open seed: %w", err)
	}
	defer f.Close()
	return ReadSeed(f, resource)
}

// Seed inserts items when the collection is empty and reports how many were
// stored. Items without an id get a fresh UUID; numeric ids are kept as text.
// Seed data is trusted and not validated.
func (s *Server) Seed(ctx context.Context, items []json.RawMessage) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.storage.Count(ctx, s.schema.Resource)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("seed skipped, collection not empty", "resource", s.schema.Resource, "records", n)
		return 0, nil
	}

	for idx, item := range items {
		rec, err := record.Decode(s.schema, item)
		if err != nil {
			return idx, fmt.Errorf("devserver: seed item %d: %w", idx, err)
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		body, err := record.Encode(rec, false)
		if err != nil {
			return idx, err
		}
		if err := s.storage.Insert(ctx, s.schema.Resource, rec.ID, body); err != nil {
			return idx, err
		}
	}
	s.logger.Info("seeded collection", "resource", s.schema.Resource, "records", len(items))
	return len(items), nil
}

package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for unknown record ids.
var ErrNotFound = errors.New("devserver: record not found")

const createTable = `
CREATE TABLE IF NOT EXISTS records (
	resource TEXT NOT NULL,
	id       TEXT NOT NULL,
	position INTEGER NOT NULL,
	body     TEXT NOT NULL,
	PRIMARY KEY (resource, id)
)`

// Row is one stored record: its id and the JSON body without the id key.
type Row struct {
	ID   string
	Body []byte
}

// Storage keeps records of any resource in a single SQLite table, ordered by
// insertion.
type Storage struct {
	db *sql.DB
}

// OpenStorage opens (and migrates) the SQLite database at dsn.
func OpenStorage(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("devserver: open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("devserver: migrate: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close releases the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// List returns the records of resource in insertion order.
func (s *Storage) List(ctx context.Context, resource string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM records WHERE resource = ? ORDER BY position`, resource)
	if err != nil {
		return nil, fmt.Errorf("devserver: list %s: %w", resource, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row  Row
			body string
		)
		if err := rows.Scan(&row.ID, &body); err != nil {
			return nil, fmt.Errorf("devserver: scan %s: %w", resource, err)
		}
		row.Body = []byte(body)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Get returns one record.
func (s *Storage) Get(ctx context.Context, resource, id string) (Row, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM records WHERE resource = ? AND id = ?`, resource, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, ErrNotFound
	}
	if err != nil {
		return Row{}, fmt.Errorf("devserver: get %s/%s: %w", resource, id, err)
	}
	return Row{ID: id, Body: []byte(body)}, nil
}

// Insert appends a record.
func (s *Storage) Insert(ctx context.Context, resource, id string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO records (resource, id, position, body)
VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM records WHERE resource = ?), ?)`,
		resource, id, resource, string(body))
	if err != nil {
		return fmt.Errorf("devserver: insert %s/%s: %w", resource, id, err)
	}
	return nil
}

// Replace overwrites the body of an existing record, keeping its position.
func (s *Storage) Replace(ctx context.Context, resource, id string, body []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET body = ? WHERE resource = ? AND id = ?`, string(body), resource, id)
	if err != nil {
		return fmt.Errorf("devserver: update %s/%s: %w", resource, id, err)
	}
	return requireAffected(res)
}

// Delete removes a record.
func (s *Storage) Delete(ctx context.Context, resource, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE resource = ? AND id = ?`, resource, id)
	if err != nil {
		return fmt.Errorf("devserver: delete %s/%s: %w", resource, id, err)
	}
	return requireAffected(res)
}

// Count reports how many records resource holds.
func (s *Storage) Count(ctx context.Context, resource string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE resource = ?`, resource).Scan(&n); err != nil {
		return 0, fmt.Errorf("devserver: count %s: %w", resource, err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

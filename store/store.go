package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/structaudit/structaudit/idgen"
	"github.com/structaudit/structaudit/structure"
)

// Schema for the scans table. Applied by Init.
const Schema = `
CREATE TABLE IF NOT EXISTS scans (
	scan_id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	warnings INTEGER NOT NULL,
	result_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_url ON scans(url);
CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at);
`

// Scan is one persisted analysis pass.
type Scan struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	CreatedAt time.Time         `json:"created_at"`
	Errors    int               `json:"errors"`
	Warnings  int               `json:"warnings"`
	Result    *structure.Result `json:"result,omitempty"`
}

// Store persists scans.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator sets a custom scan ID generator.
func WithIDGenerator(gen idgen.Generator) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates a Store backed by the given database.
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:    db,
		newID: idgen.Prefixed("scan_", idgen.Default),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init creates the scans table if it doesn't exist.
func (s *Store) Init() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("store: init: %w", err)
	}
	return nil
}

// SaveScan persists an analysis result for a URL and returns the assigned
// scan ID.
func (s *Store) SaveScan(ctx context.Context, url string, res *structure.Result) (string, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("store: marshal result: %w", err)
	}

	id := s.newID()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scans (scan_id, url, created_at, errors, warnings, result_json)
		VALUES (?,?,?,?,?,?)`,
		id, url, time.Now().Unix(), res.Errors(), res.Warnings(), string(data))
	if err != nil {
		return "", fmt.Errorf("store: save scan: %w", err)
	}
	return id, nil
}

// GetScan loads one scan with its full result, or nil when absent.
func (s *Store) GetScan(ctx context.Context, id string) (*Scan, error) {
	var (
		scan       Scan
		createdAt  int64
		resultJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT scan_id, url, created_at, errors, warnings, result_json
		FROM scans WHERE scan_id = ?`, id).
		Scan(&scan.ID, &scan.URL, &createdAt, &scan.Errors, &scan.Warnings, &resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get scan: %w", err)
	}
	scan.CreatedAt = time.Unix(createdAt, 0).UTC()

	var res structure.Result
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return nil, fmt.Errorf("store: decode result: %w", err)
	}
	scan.Result = &res
	return &scan, nil
}

// ListScans returns the most recent scans (result payloads omitted).
func (s *Store) ListScans(ctx context.Context, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, url, created_at, errors, warnings
		FROM scans ORDER BY created_at DESC, scan_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list scans: %w", err)
	}
	defer rows.Close()

	var out []Scan
	for rows.Next() {
		var (
			scan      Scan
			createdAt int64
		)
		if err := rows.Scan(&scan.ID, &scan.URL, &createdAt, &scan.Errors, &scan.Warnings); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		scan.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, scan)
	}
	return out, rows.Err()
}

// DeleteScan removes one scan. Deleting a missing scan is not an error.
func (s *Store) DeleteScan(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE scan_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete scan: %w", err)
	}
	return nil
}

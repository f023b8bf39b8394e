// Package store persists prediction records to SQLite so they can be listed
// and summarized later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/crimson-sun/vettriage/internal/model"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("store: record not found")

// DefaultLimit caps Recent when the caller passes a non-positive limit.
const DefaultLimit = 50

const schema = `
CREATE TABLE IF NOT EXISTS prediction_history (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	symptoms    TEXT NOT NULL,
	attributes  TEXT NOT NULL,
	animal_type TEXT NOT NULL,
	top_disease TEXT NOT NULL DEFAULT '',
	top_urgency TEXT NOT NULL DEFAULT '',
	error_kind  TEXT NOT NULL DEFAULT '',
	result      TEXT NOT NULL,
	latency_ns  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_prediction_history_created_at
	ON prediction_history (created_at DESC);
`

// Store is a SQLite-backed prediction history. It satisfies output.Output.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn and creates the schema if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("store: dsn required")
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", dsn+sep+"_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	// One writer at a time; WAL lets readers proceed.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts rec, assigning an ID and timestamp when missing, and returns the ID.
func (s *Store) Save(ctx context.Context, rec model.PredictionRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	symptoms, err := json.Marshal(nonNil(rec.Symptoms))
	if err != nil {
		return "", fmt.Errorf("store: encode symptoms: %w", err)
	}
	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		return "", fmt.Errorf("store: encode attributes: %w", err)
	}
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return "", fmt.Errorf("store: encode result: %w", err)
	}

	var disease, urgency, kind string
	if top, ok := rec.Result.Top(); ok {
		disease, urgency = top.Disease, string(top.Urgency)
	}
	if rec.Result.Err != nil {
		kind = string(rec.Result.Err.Kind)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO prediction_history
			(id, created_at, symptoms, attributes, animal_type, top_disease, top_urgency, error_kind, result, latency_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UnixNano(), string(symptoms), string(attrs), rec.Attributes.Species,
		disease, urgency, kind, string(result), int64(rec.Latency),
	)
	if err != nil {
		return "", fmt.Errorf("store: insert %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// Write implements output.Output.
func (s *Store) Write(ctx context.Context, rec model.PredictionRecord) error {
	_, err := s.Save(ctx, rec)
	return err
}

const selectColumns = `SELECT id, created_at, symptoms, attributes, error_kind, result, latency_ns FROM prediction_history`

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (model.PredictionRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PredictionRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]model.PredictionRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query recent: %w", err)
	}
	defer rows.Close()

	recs := []model.PredictionRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate recent: %w", err)
	}
	return recs, nil
}

// Stats summarizes the stored history.
type Stats struct {
	Total     int            `json:"total_predictions"`
	Failed    int            `json:"failed_predictions"`
	ByAnimal  map[string]int `json:"by_animal_type"`
	ByDisease map[string]int `json:"by_top_disease"`
}

// Stats counts predictions overall, per animal type and per top disease.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByAnimal: map[string]int{}, ByDisease: map[string]int{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(error_kind != ''), 0) FROM prediction_history`,
	).Scan(&st.Total, &st.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("store: count: %w", err)
	}
	if err := s.groupCount(ctx, "animal_type", st.ByAnimal); err != nil {
		return Stats{}, err
	}
	if err := s.groupCount(ctx, "top_disease", st.ByDisease); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// groupCount fills dst with row counts grouped by a fixed column name.
func (s *Store) groupCount(ctx context.Context, column string, dst map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM prediction_history WHERE `+column+` != '' GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("store: group by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("store: scan %s: %w", column, err)
		}
		dst[key] = n
	}
	return rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (model.PredictionRecord, error) {
	var (
		rec                             model.PredictionRecord
		created, latency                int64
		symptoms, attrs, kind, resultJS string
	)
	if err := sc.Scan(&rec.ID, &created, &symptoms, &attrs, &kind, &resultJS, &latency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("store: scan: %w", err)
	}
	rec.Timestamp = time.Unix(0, created).UTC()
	rec.Latency = time.Duration(latency)
	if err := json.Unmarshal([]byte(symptoms), &rec.Symptoms); err != nil {
		return rec, fmt.Errorf("store: decode symptoms of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(attrs), &rec.Attributes); err != nil {
		return rec, fmt.Errorf("store: decode attributes of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJS), &rec.Result); err != nil {
		return rec, fmt.Errorf("store: decode result of %s: %w", rec.ID, err)
	}
	// The wire form of Result does not carry the error kind.
	if rec.Result.Err != nil && kind != "" {
		rec.Result.Err.Kind = model.ErrorKind(kind)
	}
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

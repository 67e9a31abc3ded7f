package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// Build statuses in the history store.
const (
	BuildRunning   = "running"
	BuildCompleted = "completed"
	BuildFailed    = "failed"
	BuildSkipped   = "skipped"
)

// BuildRecord is one scenario build attempt.
type BuildRecord struct {
	BuildID   string
	CreatedAt string
	Scenario  string
	Status    string
	Iteration int
	SpecPath  *string
}

// EventRecord is one timeline entry for a build.
type EventRecord struct {
	BuildID  string
	Seq      int
	Ts       string
	Type     string
	Message  string
	DataJSON string
}

// Store provides persistence for builds and their events.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open history database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// NewBuildID returns a fresh build id: UTC timestamp plus a random suffix.
func NewBuildID() (string, error) {
	suffix, err := randomHex(3)
	if err != nil {
		return "", err
	}
	ts := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%s-%s", ts, suffix), nil
}

// StartBuild inserts the build record and a build_started event.
func (s *Store) StartBuild(ctx context.Context, buildID, scenarioName string) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin start build: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO builds(build_id, created_at, scenario, status, iteration, spec_path)
		VALUES(?, ?, ?, ?, 0, NULL)`,
		buildID, createdAt, scenarioName, BuildRunning); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert build: %w", err)
	}
	if err := insertEvent(ctx, tx, buildID, "build_started", "build started", ""); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit start build: %w", err)
	}
	return nil
}

// FinishBuild records the terminal status and an optional closing event.
func (s *Store) FinishBuild(ctx context.Context, buildID, status string, iteration int, specPath *string, event *EventRecord) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin finish build: %w", err)
	}
	if event != nil {
		if err := insertEvent(ctx, tx, buildID, event.Type, event.Message, event.DataJSON); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE builds SET status=?, iteration=?, spec_path=? WHERE build_id=?`,
		status, iteration, nullableStringPtr(specPath), buildID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update build: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish build: %w", err)
	}
	return nil
}

// AddEvent appends one timeline event to a build.
func (s *Store) AddEvent(ctx context.Context, buildID, typ, message, dataJSON string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin add event: %w", err)
	}
	if err := insertEvent(ctx, tx, buildID, typ, message, dataJSON); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add event: %w", err)
	}
	return nil
}

// ListBuilds returns the newest builds first, at most limit of them.
// A non-positive limit returns everything.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	query := `SELECT build_id, created_at, scenario, status, iteration, spec_path
		FROM builds ORDER BY created_at DESC, build_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var b BuildRecord
		var specPath sql.NullString
		if err := rows.Scan(&b.BuildID, &b.CreatedAt, &b.Scenario, &b.Status, &b.Iteration, &specPath); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		if specPath.Valid {
			b.SpecPath = &specPath.String
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Events returns the timeline for one build in sequence order.
func (s *Store) Events(ctx context.Context, buildID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT build_id, seq, ts, type, message, data_json
		FROM build_events WHERE build_id=? ORDER BY seq`, buildID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var e EventRecord
		var message, data sql.NullString
		if err := rows.Scan(&e.BuildID, &e.Seq, &e.Ts, &e.Type, &message, &data); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Message = message.String
		e.DataJSON = data.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func insertEvent(ctx context.Context, tx *sql.Tx, buildID, typ, message, dataJSON string) error {
	seq, err := nextSeq(ctx, tx, buildID)
	if err != nil {
		return err
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `INSERT INTO build_events(build_id, seq, ts, type, message, data_json) VALUES(?, ?, ?, ?, ?, ?)`,
		buildID, seq, ts, typ, nullableString(message), nullableString(dataJSON)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func nextSeq(ctx context.Context, tx *sql.Tx, buildID string) (int, error) {
	var seq int
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM build_events WHERE build_id=?`, buildID)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("read event seq: %w", err)
	}
	return seq + 1, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func randomHex(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

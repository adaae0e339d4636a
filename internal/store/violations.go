// Package store persists violation records in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"compdash/internal/detect"
	"compdash/internal/logging"
)

// Status tracks a violation through its lifecycle.
type Status string

const (
	StatusOpen        Status = "open"
	StatusRemediating Status = "remediating"
	StatusResolved    Status = "resolved"
)

// ErrNotFound is returned when a violation id does not exist.
var ErrNotFound = errors.New("violation not found")

// Violation is one stored detector hit.
type Violation struct {
	ID          string
	EvidenceID  string
	SourceType  string // transaction, application_log, support_chat, message
	SourceID    string
	Framework   detect.Framework
	Clause      string
	Kind        string
	Severity    detect.Severity
	Description string
	Status      Status
	DetectedAt  time.Time
}

// ViolationStore wraps the violations table.
type ViolationStore struct {
	db *sql.DB
}

const violationSchema = `
CREATE TABLE IF NOT EXISTS violations (
	id          TEXT PRIMARY KEY,
	evidence_id TEXT NOT NULL,
	source_type TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	framework   TEXT NOT NULL,
	clause      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'open',
	detected_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_violations_detected ON violations(detected_at DESC);
CREATE INDEX IF NOT EXISTS idx_violations_framework ON violations(framework);
`

// OpenViolationStore opens (creating if needed) the violation database under dataDir.
func OpenViolationStore(dataDir string) (*ViolationStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, "violations.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open violations db: %w", err)
	}
	if _, err := db.Exec(violationSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate violations schema: %w", err)
	}
	logging.Get(logging.CategoryStore).Debug("violation store opened",
		zap.String("dir", dataDir))
	return &ViolationStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *ViolationStore) Close() error { return s.db.Close() }

// Record inserts a violation derived from a finding and returns it with a
// fresh id.
func (s *ViolationStore) Record(ctx context.Context, f detect.Finding, sourceType, sourceID, evidenceID string) (Violation, error) {
	v := Violation{
		ID:          "VIOL_" + uuid.NewString()[:8],
		EvidenceID:  evidenceID,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Framework:   f.Framework,
		Clause:      f.Clause,
		Kind:        f.Kind,
		Severity:    f.Severity,
		Description: fmt.Sprintf("%s detected in %s (%s)", f.Kind, sourceType, f.Match),
		Status:      StatusOpen,
		DetectedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO violations (id, evidence_id, source_type, source_id, framework, clause, kind, severity, description, status, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.EvidenceID, v.SourceType, v.SourceID, string(v.Framework), v.Clause,
		v.Kind, string(v.Severity), v.Description, string(v.Status), v.DetectedAt.UnixMilli())
	if err != nil {
		return Violation{}, fmt.Errorf("failed to insert violation: %w", err)
	}
	return v, nil
}

// List returns violations newest first, optionally filtered by framework
// (empty framework means all), limited to n rows (n <= 0 means no limit).
func (s *ViolationStore) List(ctx context.Context, framework detect.Framework, n int) ([]Violation, error) {
	query := `SELECT id, evidence_id, source_type, source_id, framework, clause, kind, severity, description, status, detected_at
		FROM violations`
	var args []any
	if framework != "" {
		query += ` WHERE framework = ?`
		args = append(args, string(framework))
	}
	query += ` ORDER BY detected_at DESC, id`
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer rows.Close()

	var out []Violation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get returns one violation by id.
func (s *ViolationStore) Get(ctx context.Context, id string) (Violation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, evidence_id, source_type, source_id, framework, clause, kind, severity, description, status, detected_at
		FROM violations WHERE id = ?`, id)
	v, err := scanViolation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Violation{}, ErrNotFound
	}
	return v, err
}

// SetStatus transitions a violation's lifecycle state.
func (s *ViolationStore) SetStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE violations SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update violation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountBySeverity returns open-violation counts keyed by severity.
func (s *ViolationStore) CountBySeverity(ctx context.Context) (map[detect.Severity]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT severity, COUNT(*) FROM violations WHERE status != 'resolved' GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by severity: %w", err)
	}
	defer rows.Close()

	counts := map[detect.Severity]int{}
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, err
		}
		counts[detect.Severity(sev)] = n
	}
	return counts, rows.Err()
}

// CountByFramework returns total and open counts keyed by framework.
func (s *ViolationStore) CountByFramework(ctx context.Context) (map[detect.Framework]FrameworkCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT framework,
		COUNT(*),
		SUM(CASE WHEN status != 'resolved' THEN 1 ELSE 0 END)
		FROM violations GROUP BY framework`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by framework: %w", err)
	}
	defer rows.Close()

	counts := map[detect.Framework]FrameworkCounts{}
	for rows.Next() {
		var fw string
		var c FrameworkCounts
		if err := rows.Scan(&fw, &c.Total, &c.Open); err != nil {
			return nil, err
		}
		counts[detect.Framework(fw)] = c
	}
	return counts, rows.Err()
}

// FrameworkCounts aggregates violations for one regulation.
type FrameworkCounts struct {
	Total int
	Open  int
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanViolation(r rowScanner) (Violation, error) {
	var v Violation
	var fw, sev, status string
	var ms int64
	err := r.Scan(&v.ID, &v.EvidenceID, &v.SourceType, &v.SourceID, &fw, &v.Clause,
		&v.Kind, &sev, &v.Description, &status, &ms)
	if err != nil {
		return Violation{}, err
	}
	v.Framework = detect.Framework(fw)
	v.Severity = detect.Severity(sev)
	v.Status = Status(status)
	v.DetectedAt = time.UnixMilli(ms).UTC()
	return v, nil
}

// Package evidence captures immutable evidence records and links them into a
// SHA-256 hash chain so any tampering with stored records is detectable.
package evidence

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"compdash/internal/logging"
)

// genesisHash anchors the first chain node.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Record is one captured piece of compliance evidence.
type Record struct {
	ID          string
	EventType   string // violation, remediation, scan
	SourceType  string
	SourceID    string
	Payload     string // redacted description of what was observed
	ContentHash string // sha256 of the payload
	CreatedAt   time.Time
}

// ChainNode links one evidence record into the audit chain.
type ChainNode struct {
	Sequence   int64
	EvidenceID string
	NodeHash   string
	PrevHash   string
	CreatedAt  time.Time
}

// VerifyResult reports the outcome of a chain integrity check.
type VerifyResult struct {
	Nodes    int
	Valid    bool
	BrokenAt int64 // sequence of the first bad node, 0 when valid
	Reason   string
}

// Vault stores evidence records and their audit chain.
type Vault struct {
	db *sql.DB
}

const vaultSchema = `
CREATE TABLE IF NOT EXISTS evidence (
	id           TEXT PRIMARY KEY,
	event_type   TEXT NOT NULL,
	source_type  TEXT NOT NULL,
	source_id    TEXT NOT NULL,
	payload      TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_chain (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	evidence_id TEXT NOT NULL REFERENCES evidence(id),
	node_hash   TEXT NOT NULL,
	prev_hash   TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
`

// OpenVault opens (creating if needed) the evidence database under dataDir.
func OpenVault(dataDir string) (*Vault, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, "evidence.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open evidence db: %w", err)
	}
	if _, err := db.Exec(vaultSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate evidence schema: %w", err)
	}
	return &Vault{db: db}, nil
}

// Close releases the underlying database handle.
func (v *Vault) Close() error { return v.db.Close() }

// Hash computes the hex sha256 of data.
func Hash(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// nodeHash derives a chain node hash from its predecessor and the record it
// covers. Any change to the record or its position breaks every later node.
func nodeHash(prevHash string, rec Record, seq int64) string {
	return Hash(fmt.Sprintf("%s|%s|%s|%d", prevHash, rec.ID, rec.ContentHash, seq))
}

// Capture stores a new evidence record and appends it to the audit chain,
// returning the record with its assigned id and hash.
func (v *Vault) Capture(ctx context.Context, eventType, sourceType, sourceID, payload string) (Record, error) {
	rec := Record{
		ID:          "EVID_" + uuid.NewString()[:8],
		EventType:   eventType,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Payload:     payload,
		ContentHash: Hash(payload),
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("failed to begin evidence tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO evidence (id, event_type, source_type, source_id, payload, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EventType, rec.SourceType, rec.SourceID, rec.Payload,
		rec.ContentHash, rec.CreatedAt.UnixMilli()); err != nil {
		return Record{}, fmt.Errorf("failed to insert evidence: %w", err)
	}

	var prevHash string
	var nextSeq int64 = 1
	row := tx.QueryRowContext(ctx, `SELECT seq, node_hash FROM audit_chain ORDER BY seq DESC LIMIT 1`)
	var lastSeq int64
	switch err := row.Scan(&lastSeq, &prevHash); {
	case errors.Is(err, sql.ErrNoRows):
		prevHash = genesisHash
	case err != nil:
		return Record{}, fmt.Errorf("failed to read chain tail: %w", err)
	default:
		nextSeq = lastSeq + 1
	}

	hash := nodeHash(prevHash, rec, nextSeq)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO audit_chain (seq, evidence_id, node_hash, prev_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		nextSeq, rec.ID, hash, prevHash, rec.CreatedAt.UnixMilli()); err != nil {
		return Record{}, fmt.Errorf("failed to append chain node: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("failed to commit evidence: %w", err)
	}

	logging.Get(logging.CategoryEvidence).Debug("evidence captured",
		zap.String("id", rec.ID), zap.Int64("seq", nextSeq))
	return rec, nil
}

// Records returns evidence records newest first, limited to n (n <= 0 means all).
func (v *Vault) Records(ctx context.Context, n int) ([]Record, error) {
	query := `SELECT id, event_type, source_type, source_id, payload, content_hash, created_at
		FROM evidence ORDER BY created_at DESC, id`
	var args []any
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}
	rows, err := v.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var ms int64
		if err := rows.Scan(&rec.ID, &rec.EventType, &rec.SourceType, &rec.SourceID,
			&rec.Payload, &rec.ContentHash, &ms); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Chain returns the audit chain in sequence order.
func (v *Vault) Chain(ctx context.Context) ([]ChainNode, error) {
	rows, err := v.db.QueryContext(ctx, `SELECT seq, evidence_id, node_hash, prev_hash, created_at
		FROM audit_chain ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain: %w", err)
	}
	defer rows.Close()

	var out []ChainNode
	for rows.Next() {
		var node ChainNode
		var ms int64
		if err := rows.Scan(&node.Sequence, &node.EvidenceID, &node.NodeHash, &node.PrevHash, &ms); err != nil {
			return nil, err
		}
		node.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, node)
	}
	return out, rows.Err()
}

// Verify walks the full chain, recomputing every node hash against its stored
// evidence record and checking prev-hash linkage.
func (v *Vault) Verify(ctx context.Context) (VerifyResult, error) {
	nodes, err := v.Chain(ctx)
	if err != nil {
		return VerifyResult{}, err
	}

	prev := genesisHash
	for _, node := range nodes {
		if node.PrevHash != prev {
			return VerifyResult{Nodes: len(nodes), BrokenAt: node.Sequence,
				Reason: "prev hash does not match predecessor"}, nil
		}

		var rec Record
		row := v.db.QueryRowContext(ctx, `SELECT id, content_hash, payload FROM evidence WHERE id = ?`, node.EvidenceID)
		if err := row.Scan(&rec.ID, &rec.ContentHash, &rec.Payload); err != nil {
			return VerifyResult{Nodes: len(nodes), BrokenAt: node.Sequence,
				Reason: "evidence record missing"}, nil
		}
		if Hash(rec.Payload) != rec.ContentHash {
			return VerifyResult{Nodes: len(nodes), BrokenAt: node.Sequence,
				Reason: "evidence payload hash mismatch"}, nil
		}
		if nodeHash(prev, rec, node.Sequence) != node.NodeHash {
			return VerifyResult{Nodes: len(nodes), BrokenAt: node.Sequence,
				Reason: "node hash mismatch"}, nil
		}
		prev = node.NodeHash
	}
	return VerifyResult{Nodes: len(nodes), Valid: true}, nil
}

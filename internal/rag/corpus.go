// Package rag stores the regulation clause corpus and answers retrieval
// queries with keyword scoring. Serves the compliance query page and the
// reasoner's context assembly.
package rag

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"compdash/internal/detect"
)

// Clause is one retrievable regulation fragment.
type Clause struct {
	ID        string
	Framework detect.Framework
	Ref       string // e.g. "PCI-DSS 3.4", "GDPR Art 32"
	Text      string
}

// Result pairs a retrieved clause with its relevance score.
type Result struct {
	Clause Clause
	Score  float64
}

// Corpus wraps the regulation database.
type Corpus struct {
	db *sql.DB
}

const corpusSchema = `
CREATE TABLE IF NOT EXISTS clauses (
	id        TEXT PRIMARY KEY,
	framework TEXT NOT NULL,
	ref       TEXT NOT NULL,
	text      TEXT NOT NULL
);
`

// OpenCorpus opens the regulation database under dataDir, seeding the built-in
// clause set on first open.
func OpenCorpus(dataDir string) (*Corpus, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, "regulations.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open regulations db: %w", err)
	}
	if _, err := db.Exec(corpusSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate regulations schema: %w", err)
	}

	c := &Corpus{db: db}
	if err := c.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the underlying database handle.
func (c *Corpus) Close() error { return c.db.Close() }

func (c *Corpus) seed() error {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM clauses`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count clauses: %w", err)
	}
	if n > 0 {
		return nil
	}
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed tx: %w", err)
	}
	defer tx.Rollback()
	for _, cl := range builtinClauses {
		if _, err := tx.Exec(`INSERT INTO clauses (id, framework, ref, text) VALUES (?, ?, ?, ?)`,
			cl.ID, string(cl.Framework), cl.Ref, cl.Text); err != nil {
			return fmt.Errorf("failed to seed clause %s: %w", cl.ID, err)
		}
	}
	return tx.Commit()
}

// All returns every clause in the corpus.
func (c *Corpus) All(ctx context.Context) ([]Clause, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, framework, ref, text FROM clauses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clauses: %w", err)
	}
	defer rows.Close()

	var out []Clause
	for rows.Next() {
		var cl Clause
		var fw string
		if err := rows.Scan(&cl.ID, &fw, &cl.Ref, &cl.Text); err != nil {
			return nil, err
		}
		cl.Framework = detect.Framework(fw)
		out = append(out, cl)
	}
	return out, rows.Err()
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// stopwords excluded from scoring; keeps short questions from matching everything.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "be": true, "can": true,
	"do": true, "does": true, "for": true, "how": true, "i": true, "in": true,
	"is": true, "it": true, "must": true, "of": true, "or": true, "the": true,
	"to": true, "what": true, "when": true, "where": true, "with": true,
}

func tokenize(s string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(s), -1)
	out := raw[:0]
	for _, tok := range raw {
		if !stopwords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// Search scores every clause against the query by keyword overlap and returns
// the topK best matches with a positive score.
func (c *Corpus) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	clauses, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	qTokens := tokenize(query)
	if len(qTokens) == 0 {
		return nil, nil
	}

	var results []Result
	for _, cl := range clauses {
		text := strings.ToLower(cl.Text + " " + cl.Ref)
		hits := 0
		for _, tok := range qTokens {
			if strings.Contains(text, tok) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		results = append(results, Result{
			Clause: cl,
			Score:  float64(hits) / float64(len(qTokens)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

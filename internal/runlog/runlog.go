// Package runlog persists one record per LLM call to a local SQLite
// database: who was called, how long it took, estimated vs actual token
// usage, retry accounting, and a cost estimate. The client never writes
// here itself — callers hand completed outcomes to a Store.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/piyumiimasha/promptlab-go/internal/client"
)

// Run is one persisted call record. Pointer fields are absent when the
// provider reported no usage or no pricing was available.
type Run struct {
	// Timestamp is when the call completed.
	Timestamp time.Time
	// Backend and Model identify what was called.
	Backend string
	Model   string
	// Technique is the caller-supplied prompt technique label.
	Technique string
	// LatencyMS is the wall-clock latency of the successful attempt.
	LatencyMS int64
	// Estimated token counts (always present).
	InputTokensEst   int
	ContextTokensEst int
	TotalEst         int
	// Actual token counts as reported by the provider, nil when absent.
	PromptTokensActual     *int
	CompletionTokensActual *int
	TotalTokensActual      *int
	// RetryCount and BackoffMSTotal record retry effort.
	RetryCount     int
	BackoffMSTotal int64
	// OverflowHandled is true when pre-flight fitting truncated the call.
	OverflowHandled bool
	// CostUSD is the estimated cost, nil when pricing or actual usage is
	// unavailable.
	CostUSD *float64
	// Notes is free-form caller context.
	Notes string
}

// FromOutcome builds a Run from a completed call, including the cost
// estimate when actual usage and pricing are both available.
func FromOutcome(backend, model, technique string, out *client.CallOutcome, notes string) Run {
	r := Run{
		Timestamp:        time.Now(),
		Backend:          backend,
		Model:            model,
		Technique:        technique,
		LatencyMS:        out.Latency.Milliseconds(),
		InputTokensEst:   out.Usage.InputTokensEst,
		ContextTokensEst: out.Usage.ContextTokensEst,
		TotalEst:         out.Usage.TotalEst,
		RetryCount:       out.Meta.RetryCount,
		BackoffMSTotal:   out.Meta.BackoffTotal.Milliseconds(),
		OverflowHandled:  out.Meta.OverflowHandled,
		Notes:            notes,
	}
	if a := out.Usage.Actual; a != nil {
		prompt, completion, total := a.PromptTokens, a.CompletionTokens, a.TotalTokens
		r.PromptTokensActual = &prompt
		r.CompletionTokensActual = &completion
		r.TotalTokensActual = &total
		if cost, ok := EstimateCost(backend, model, prompt, completion); ok {
			r.CostUSD = &cost
		}
	}
	return r
}

// Store persists and retrieves Run records. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// DefaultDBPath resolves to ~/.promptlab/runs.db, creating the directory
// if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("runlog: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".promptlab")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("runlog: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "runs.db"), nil
}

// Open opens (or creates) a Store at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}
	// Single writer connection avoids SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS runs (
    id                       INTEGER PRIMARY KEY AUTOINCREMENT,
    ts                       INTEGER NOT NULL,  -- Unix timestamp (seconds)
    backend                  TEXT    NOT NULL,
    model                    TEXT    NOT NULL,
    technique                TEXT    NOT NULL DEFAULT '',
    latency_ms               INTEGER NOT NULL,
    input_tokens_est         INTEGER NOT NULL,
    context_tokens_est       INTEGER NOT NULL,
    total_est                INTEGER NOT NULL,
    prompt_tokens_actual     INTEGER,
    completion_tokens_actual INTEGER,
    total_tokens_actual      INTEGER,
    retry_count              INTEGER NOT NULL DEFAULT 0,
    backoff_ms_total         INTEGER NOT NULL DEFAULT 0,
    overflow_handled         INTEGER NOT NULL DEFAULT 0,
    cost_usd                 REAL,
    notes                    TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs (ts);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("runlog: migrate: %w", err)
	}
	return nil
}

// Append persists a single run record.
func (s *Store) Append(ctx context.Context, r Run) error {
	const q = `
INSERT INTO runs (
    ts, backend, model, technique, latency_ms,
    input_tokens_est, context_tokens_est, total_est,
    prompt_tokens_actual, completion_tokens_actual, total_tokens_actual,
    retry_count, backoff_ms_total, overflow_handled, cost_usd, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, q,
		ts.Unix(), r.Backend, r.Model, r.Technique, r.LatencyMS,
		r.InputTokensEst, r.ContextTokensEst, r.TotalEst,
		nullableInt(r.PromptTokensActual), nullableInt(r.CompletionTokensActual), nullableInt(r.TotalTokensActual),
		r.RetryCount, r.BackoffMSTotal, boolInt(r.OverflowHandled),
		nullableFloat(r.CostUSD), r.Notes,
	)
	if err != nil {
		return fmt.Errorf("runlog: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n runs, ordered newest-first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	const q = `
SELECT ts, backend, model, technique, latency_ms,
       input_tokens_est, context_tokens_est, total_est,
       prompt_tokens_actual, completion_tokens_actual, total_tokens_actual,
       retry_count, backoff_ms_total, overflow_handled, cost_usd, notes
FROM   runs
ORDER  BY ts DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("runlog: recent: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ts int64
		var prompt, completion, total sql.NullInt64
		var overflow int
		var cost sql.NullFloat64
		if err := rows.Scan(&ts, &r.Backend, &r.Model, &r.Technique, &r.LatencyMS,
			&r.InputTokensEst, &r.ContextTokensEst, &r.TotalEst,
			&prompt, &completion, &total,
			&r.RetryCount, &r.BackoffMSTotal, &overflow, &cost, &r.Notes,
		); err != nil {
			return nil, fmt.Errorf("runlog: recent scan: %w", err)
		}
		r.Timestamp = time.Unix(ts, 0)
		r.PromptTokensActual = intPtr(prompt)
		r.CompletionTokensActual = intPtr(completion)
		r.TotalTokensActual = intPtr(total)
		r.OverflowHandled = overflow != 0
		if cost.Valid {
			v := cost.Float64
			r.CostUSD = &v
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runlog: recent rows: %w", err)
	}
	return runs, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("runlog: close: %w", err)
	}
	return nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/relist-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS overrides (
	record_id  TEXT PRIMARY KEY,
	tier       TEXT NOT NULL,
	status     TEXT NOT NULL,
	user_name  TEXT NOT NULL DEFAULT '',
	note       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS override_audit (
	id         TEXT PRIMARY KEY,
	seq        INTEGER NOT NULL,
	record_id  TEXT NOT NULL,
	action     TEXT NOT NULL,
	from_tier  TEXT NOT NULL DEFAULT '',
	to_tier    TEXT NOT NULL,
	status     TEXT NOT NULL,
	user_name  TEXT NOT NULL DEFAULT '',
	note       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_runs (
	id              TEXT PRIMARY KEY,
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME NOT NULL,
	total           INTEGER NOT NULL,
	processed       INTEGER NOT NULL,
	cancelled       INTEGER NOT NULL DEFAULT 0,
	config_revision INTEGER NOT NULL,
	preset          TEXT NOT NULL DEFAULT '',
	summary         TEXT
);

CREATE INDEX IF NOT EXISTS idx_override_audit_record ON override_audit(record_id, seq);
CREATE INDEX IF NOT EXISTS idx_batch_runs_started ON batch_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_batch_runs_preset ON batch_runs(preset);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveOverride upserts the override and appends its audit entry in one
// transaction.
func (s *SQLiteStore) SaveOverride(ctx context.Context, o model.Override, entry model.AuditEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin override tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO overrides (record_id, tier, status, user_name, note, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(record_id) DO UPDATE SET
		   tier = excluded.tier,
		   status = excluded.status,
		   user_name = excluded.user_name,
		   note = excluded.note,
		   updated_at = excluded.updated_at`,
		o.RecordID, string(o.Tier), string(o.Status), o.User, o.Note, o.UpdatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert override %s", o.RecordID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO override_audit (id, seq, record_id, action, from_tier, to_tier, status, user_name, note, created_at)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM override_audit WHERE record_id = ?), ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RecordID, entry.RecordID, entry.Action, string(entry.FromTier), string(entry.ToTier),
		string(entry.Status), entry.User, entry.Note, entry.At.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert audit %s", entry.ID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit override")
}

// ListOverrides returns every override ordered by record id.
func (s *SQLiteStore) ListOverrides(ctx context.Context) ([]model.Override, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, tier, status, user_name, note, updated_at FROM overrides ORDER BY record_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list overrides")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Override
	for rows.Next() {
		var o model.Override
		if err := rows.Scan(&o.RecordID, &o.Tier, &o.Status, &o.User, &o.Note, &o.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan override")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate overrides")
}

// ListAudit returns the audit trail of recordID, oldest first.
func (s *SQLiteStore) ListAudit(ctx context.Context, recordID string) ([]model.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, record_id, action, from_tier, to_tier, status, user_name, note, created_at
		 FROM override_audit WHERE record_id = ? ORDER BY seq`,
		recordID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list audit %s", recordID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.RecordID, &e.Action, &e.FromTier, &e.ToTier, &e.Status, &e.User, &e.Note, &e.At); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate audit")
}

// SaveRun records a finished batch run.
func (s *SQLiteStore) SaveRun(ctx context.Context, run model.BatchRun) error {
	var summary sql.NullString
	if run.Summary != nil {
		b, err := json.Marshal(run.Summary)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal summary")
		}
		summary = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batch_runs (id, started_at, finished_at, total, processed, cancelled, config_revision, preset, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Total, run.Processed,
		run.Cancelled, run.ConfigRevision, run.Preset, summary,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

// GetRun returns the run with the given id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.BatchRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, total, processed, cancelled, config_revision, preset, summary
		 FROM batch_runs WHERE id = ?`,
		id,
	)
	return scanRun(row)
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.BatchRun, error) {
	query := `SELECT id, started_at, finished_at, total, processed, cancelled, config_revision, preset, summary FROM batch_runs`
	var args []any
	if filter.Preset != "" {
		query += ` WHERE preset = ?`
		args = append(args, filter.Preset)
	}
	query += ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.BatchRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.BatchRun, error) {
	var r model.BatchRun
	var summary sql.NullString

	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Total, &r.Processed,
		&r.Cancelled, &r.ConfigRevision, &r.Preset, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summary.Valid {
		r.Summary = &model.BatchSummary{}
		if err := json.Unmarshal([]byte(summary.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}

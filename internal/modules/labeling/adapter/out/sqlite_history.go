package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"carepanion/internal/modules/labeling/domain"
	labelingout "carepanion/internal/modules/labeling/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteHistory struct {
	db *sql.DB
}

func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	history := &SQLiteHistory{db: db}
	if err := history.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return history, nil
}

var _ labelingout.History = (*SQLiteHistory)(nil)

func (h *SQLiteHistory) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS label_history (
  label_id INTEGER NOT NULL,
  audio_id INTEGER NOT NULL,
  identity TEXT NOT NULL,
  comfort_level INTEGER NOT NULL,
  clarity INTEGER NOT NULL,
  speaking_rate TEXT NOT NULL,
  perceived_empathy TEXT NOT NULL,
  tx_signature TEXT,
  submitted_at TEXT NOT NULL,
  PRIMARY KEY (identity, audio_id)
);
CREATE INDEX IF NOT EXISTS label_history_identity_time ON label_history (identity, submitted_at);
`
	if _, err := h.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create label_history table: %w", err)
	}
	return nil
}

func (h *SQLiteHistory) Record(ctx context.Context, e domain.HistoryEntry) error {
	const stmt = `
INSERT INTO label_history (label_id, audio_id, identity, comfort_level, clarity, speaking_rate, perceived_empathy, tx_signature, submitted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(identity, audio_id) DO UPDATE SET
  label_id=excluded.label_id,
  comfort_level=excluded.comfort_level,
  clarity=excluded.clarity,
  speaking_rate=excluded.speaking_rate,
  perceived_empathy=excluded.perceived_empathy,
  tx_signature=excluded.tx_signature,
  submitted_at=excluded.submitted_at;
`
	_, err := h.db.ExecContext(ctx, stmt,
		e.LabelID,
		e.AudioID,
		e.IdentityRef,
		e.ComfortLevel,
		e.Clarity,
		string(e.SpeakingRate),
		string(e.PerceivedEmpathy),
		e.TransactionSignature,
		e.SubmittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record label history: %w", err)
	}
	return nil
}

func (h *SQLiteHistory) CountFor(ctx context.Context, identityRef string) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM label_history WHERE identity = ?`, identityRef).Scan(&n); err != nil {
		return 0, fmt.Errorf("count label history: %w", err)
	}
	return n, nil
}

func (h *SQLiteHistory) List(ctx context.Context, identityRef string, limit int) ([]domain.HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx, `
SELECT label_id, audio_id, identity, comfort_level, clarity, speaking_rate, perceived_empathy, COALESCE(tx_signature, ''), submitted_at
FROM label_history
WHERE identity = ?
ORDER BY submitted_at DESC, label_id DESC
LIMIT ?`, identityRef, limit)
	if err != nil {
		return nil, fmt.Errorf("list label history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			e         domain.HistoryEntry
			rate      string
			empathy   string
			submitted string
		)
		if err := rows.Scan(&e.LabelID, &e.AudioID, &e.IdentityRef, &e.ComfortLevel, &e.Clarity, &rate, &empathy, &e.TransactionSignature, &submitted); err != nil {
			return nil, fmt.Errorf("scan label history: %w", err)
		}
		e.SpeakingRate = domain.SpeakingRate(rate)
		e.PerceivedEmpathy = domain.Empathy(empathy)
		at, err := time.Parse(time.RFC3339Nano, submitted)
		if err != nil {
			return nil, fmt.Errorf("parse submitted_at %q: %w", submitted, err)
		}
		e.SubmittedAt = at
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label history: %w", err)
	}
	return out, nil
}

func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"montagego/pkg/db"
	"montagego/pkg/model"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on the application database.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store over an initialized database.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- History ---

func (s *SQLiteStore) SaveEvent(ctx context.Context, ev *model.PlaybackEvent) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO play_history (run_id, type, sequence_index, sequence, path, detail, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, string(ev.Type), ev.SequenceIndex, ev.Sequence, ev.Path, ev.Detail, ev.Timestamp.UnixMilli())
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		ev.ID = id
	}
	return nil
}

// RecentEvents returns the newest events first.
func (s *SQLiteStore) RecentEvents(ctx context.Context, limit int) ([]model.PlaybackEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, type, sequence_index, sequence, path, detail, played_at
		 FROM play_history ORDER BY played_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlaybackEvent
	for rows.Next() {
		var ev model.PlaybackEvent
		var typ string
		var seq, path, detail sql.NullString
		var idx sql.NullInt64
		var playedAt int64
		if err := rows.Scan(&ev.ID, &ev.RunID, &typ, &idx, &seq, &path, &detail, &playedAt); err != nil {
			return nil, err
		}
		ev.Type = model.EventType(typ)
		ev.SequenceIndex = int(idx.Int64)
		ev.Sequence = seq.String
		ev.Path = path.String
		ev.Detail = detail.String
		ev.Timestamp = time.UnixMilli(playedAt)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ClipCounts returns the most shown clips since the given time.
func (s *SQLiteStore) ClipCounts(ctx context.Context, since time.Time, limit int) ([]ClipCount, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, sequence, count(*) AS n, max(played_at)
		 FROM play_history
		 WHERE type = ? AND played_at >= ?
		 GROUP BY path, sequence
		 ORDER BY n DESC, path ASC
		 LIMIT ?`, string(model.EventClipShown), since.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClipCount
	for rows.Next() {
		var c ClipCount
		var seq sql.NullString
		var last int64
		if err := rows.Scan(&c.Path, &seq, &c.Count, &last); err != nil {
			return nil, err
		}
		c.Sequence = seq.String
		c.LastShow = time.UnixMilli(last)
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	return val, err == nil
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

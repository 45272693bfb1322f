package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/calassist/internal/model"
)

// SaveSnapshot stores view as the newest snapshot for source.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, source string, view model.UpcomingView) error {
	if source == "" {
		return fmt.Errorf("source is required")
	}
	events := view.Events
	if events == nil {
		events = []model.NormalizedEvent{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, synced_at, events, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.newID(), source, view.SyncedAt.UTC().Format(time.RFC3339Nano), string(b),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently saved snapshot for source, or
// ErrNotFound.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, source string) (*model.UpcomingView, error) {
	var syncedAt, eventsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT synced_at, events FROM snapshots WHERE source = ?
		 ORDER BY rowid DESC LIMIT 1`, source).Scan(&syncedAt, &eventsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot for %q: %w", source, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	view := &model.UpcomingView{}
	view.SyncedAt, _ = time.Parse(time.RFC3339Nano, syncedAt)
	if err := json.Unmarshal([]byte(eventsJSON), &view.Events); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return view, nil
}

// PruneSnapshots keeps only the newest keep snapshots per source.
func (s *SQLiteStore) PruneSnapshots(ctx context.Context, source string, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE source = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE source = ? ORDER BY rowid DESC LIMIT ?
		)`, source, source, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

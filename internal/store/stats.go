package store

import (
	"context"
	"fmt"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string         `json:"db_path"`
	DBSizeBytes int64          `json:"db_size_bytes"`
	TotalTurns  int            `json:"total_turns"`
	Snapshots   int            `json:"snapshots"`
	Sessions    []SessionStats `json:"sessions"`
}

// SessionStats holds per-session counts.
type SessionStats struct {
	Session   string `json:"session"`
	Turns     int    `json:"turns"`
	UserTurns int    `json:"user_turns"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns`).Scan(&st.TotalTurns); err != nil {
		return nil, fmt.Errorf("count turns: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&st.Snapshots); err != nil {
		return nil, fmt.Errorf("count snapshots: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session, COUNT(*) AS cnt, SUM(CASE WHEN role = 'user' THEN 1 ELSE 0 END) AS users
		FROM turns
		GROUP BY session ORDER BY cnt DESC`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ss SessionStats
		if err := rows.Scan(&ss.Session, &ss.Turns, &ss.UserTurns); err != nil {
			return nil, fmt.Errorf("scan session stats: %w", err)
		}
		st.Sessions = append(st.Sessions, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return st, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/calassist/internal/model"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex // guards entropy
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id          TEXT PRIMARY KEY,
		session     TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		UNIQUE (session, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session_seq ON turns(session, seq);

	CREATE TABLE IF NOT EXISTS snapshots (
		id          TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		synced_at   TEXT NOT NULL,
		events      TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_source ON snapshots(source, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) AppendTurn(ctx context.Context, p AppendParams) (*model.Turn, error) {
	if p.Session == "" {
		return nil, fmt.Errorf("session is required")
	}
	if !model.ValidRoles[p.Role] {
		return nil, fmt.Errorf("invalid role %q", p.Role)
	}

	now := time.Now().UTC()
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM turns WHERE session = ?`, p.Session).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("next seq: %w", err)
	}
	seq++

	_, err = tx.ExecContext(ctx,
		`INSERT INTO turns (id, session, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, p.Session, seq, string(p.Role), p.Content, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Turn{
		ID:        id,
		Role:      p.Role,
		Content:   p.Content,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) History(ctx context.Context, p HistoryParams) ([]model.Turn, error) {
	args := []interface{}{p.Session}

	// Newest first with a limit, then flipped back to chronological order.
	query := `SELECT id, role, content, created_at FROM turns WHERE session = ? ORDER BY seq DESC`
	if p.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, p.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *SQLiteStore) Conversation(ctx context.Context, session string) (model.Conversation, error) {
	turns, err := s.History(ctx, HistoryParams{Session: session})
	if err != nil {
		return model.Conversation{}, err
	}
	return model.NewConversation(session, turns), nil
}

func (s *SQLiteStore) Clear(ctx context.Context, session string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session = ?`, session)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTurn(row scanner) (model.Turn, error) {
	var t model.Turn
	var role, createdAt string

	if err := row.Scan(&t.ID, &role, &t.Content, &createdAt); err != nil {
		return t, err
	}
	t.Role = model.Role(role)
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return t, nil
}

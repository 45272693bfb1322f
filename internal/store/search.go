package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/calassist/internal/model"
)

// SearchParams holds parameters for searching conversation turns.
type SearchParams struct {
	Session string
	Query   string
	Role    model.Role
	Limit   int
}

// SearchResult is a matching turn and the session it belongs to.
type SearchResult struct {
	Session string `json:"session"`
	model.Turn
}

// Search finds turns whose content contains the query substring, newest first.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"content LIKE ?"}
	args := []interface{}{"%" + p.Query + "%"}

	if p.Session != "" {
		where = append(where, "session = ?")
		args = append(args, p.Session)
	}
	if p.Role != "" {
		where = append(where, "role = ?")
		args = append(args, string(p.Role))
	}

	query := fmt.Sprintf(`
		SELECT session, id, role, content, created_at
		FROM turns
		WHERE %s
		ORDER BY rowid DESC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var session string
		var r SearchResult
		t, err := scanTurn(sessionScanner{rows, &session})
		if err != nil {
			return nil, err
		}
		r.Session = session
		r.Turn = t
		results = append(results, r)
	}
	return results, rows.Err()
}

// sessionScanner peels the leading session column off a row so the rest
// can go through scanTurn.
type sessionScanner struct {
	row     scanner
	session *string
}

func (s sessionScanner) Scan(dest ...interface{}) error {
	return s.row.Scan(append([]interface{}{s.session}, dest...)...)
}

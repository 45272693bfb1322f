// Package store persists conversations and calendar snapshots in SQLite.
package store

import (
	"context"

	"github.com/rcliao/calassist/internal/model"
)

// AppendParams holds parameters for storing a turn.
type AppendParams struct {
	Session string
	Role    model.Role
	Content string
}

// HistoryParams holds parameters for reading a conversation.
type HistoryParams struct {
	Session string
	Limit   int // 0 means every turn
}

// Store defines the persistence interface the assistant depends on.
type Store interface {
	// AppendTurn stores a turn at the end of a session. Returns the stored turn.
	AppendTurn(ctx context.Context, p AppendParams) (*model.Turn, error)

	// History returns turns of a session, oldest first. With a Limit, only
	// the newest Limit turns are returned.
	History(ctx context.Context, p HistoryParams) ([]model.Turn, error)

	// Conversation rebuilds the whole session as a Conversation value.
	Conversation(ctx context.Context, session string) (model.Conversation, error)

	// Clear deletes every turn of a session.
	Clear(ctx context.Context, session string) (int64, error)

	// SaveSnapshot records the latest upcoming view for a calendar source.
	SaveSnapshot(ctx context.Context, source string, view model.UpcomingView) error

	// LatestSnapshot returns the most recent view for a calendar source.
	LatestSnapshot(ctx context.Context, source string) (*model.UpcomingView, error)

	// Close closes the store.
	Close() error
}

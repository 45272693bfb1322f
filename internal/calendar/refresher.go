package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rcliao/calassist/internal/log"
	"github.com/rcliao/calassist/internal/model"
	"github.com/rcliao/calassist/internal/remote"
)

// SnapshotSaver persists a freshly selected view.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, source string, view model.UpcomingView) error
}

// Refresher fetches a Source and keeps the most recently completed view.
// When two refreshes overlap, whichever finishes last wins.
type Refresher struct {
	Name     string
	Source   Source
	Location *time.Location
	Saver    SnapshotSaver
	Logger   *log.Logger
	Now      func() time.Time

	mu     sync.RWMutex
	latest model.UpcomingView
	synced bool
}

// Refresh fetches events and replaces the latest view. A fetch failure
// leaves the previous view in place. Malformed events, whether reported by
// the Source next to its readable events or found during selection, are
// logged and left out; they do not fail the refresh.
func (r *Refresher) Refresh(ctx context.Context) (model.UpcomingView, error) {
	logger := r.logger()
	raw, srcErr := r.Source.Events(ctx)
	if srcErr != nil && (raw == nil || remote.KindOf(srcErr) != remote.KindMalformed) {
		return model.UpcomingView{}, srcErr
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	view, err := SelectUpcoming(raw, now(), r.Location)
	if err = errors.Join(srcErr, err); err != nil {
		logger.Warn("some calendar events were skipped", "source", r.Name, "kind", remote.KindOf(err).String(), "err", err.Error())
	}

	r.mu.Lock()
	r.latest = view
	r.synced = true
	r.mu.Unlock()

	if r.Saver != nil {
		if err := r.Saver.SaveSnapshot(ctx, r.Name, view); err != nil {
			logger.Error("snapshot save failed", err, "source", r.Name)
		}
	}

	logger.Info("calendar refreshed", "source", r.Name, "upcoming", len(view.Events))
	return view, nil
}

// Latest returns the last successfully refreshed view and whether any
// refresh has completed yet.
func (r *Refresher) Latest() (model.UpcomingView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.synced
}

func (r *Refresher) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// Package calendar fetches calendar events and turns them into the
// upcoming-events view.
package calendar

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rcliao/calassist/internal/model"
	"github.com/rcliao/calassist/internal/remote"
)

const dateLayout = "2006-01-02"

// Normalize resolves both ends of raw into instants. A dateTime wins over a
// date; a date alone marks an all-day event starting at midnight in loc.
// A side with neither value, or an unparsable one, is a KindMalformed error.
func Normalize(raw model.RawEvent, loc *time.Location) (model.NormalizedEvent, error) {
	if loc == nil {
		loc = time.Local
	}

	start, allDay, err := resolve(raw.Start, loc)
	if err != nil {
		return model.NormalizedEvent{}, remote.Malformed(fmt.Sprintf("event %q start", raw.ID), err)
	}
	end, _, err := resolve(raw.End, loc)
	if err != nil {
		return model.NormalizedEvent{}, remote.Malformed(fmt.Sprintf("event %q end", raw.ID), err)
	}

	title := raw.Summary
	if title == "" {
		title = model.NoTitle
	}

	return model.NormalizedEvent{
		ID:          raw.ID,
		Title:       title,
		Description: raw.Description,
		Location:    raw.Location,
		Start:       start,
		End:         end,
		AllDay:      allDay,
	}, nil
}

var errNoTime = errors.New("neither dateTime nor date present")

func resolve(et model.EventTime, loc *time.Location) (time.Time, bool, error) {
	if et.DateTime != "" {
		t, err := time.Parse(time.RFC3339, et.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, false, nil
	}
	if et.Date != "" {
		t, err := time.ParseInLocation(dateLayout, et.Date, loc)
		if err != nil {
			return time.Time{}, true, err
		}
		return t, true, nil
	}
	return time.Time{}, false, errNoTime
}

// SelectUpcoming returns the next MaxUpcoming events starting at or after
// now, earliest first. Events with equal start keep their input order.
// Events the feed marks cancelled (Google's status "cancelled", ICS
// STATUS:CANCELLED) are skipped; an empty Status counts as confirmed.
// Malformed events are left out of the view
// and reported through the returned error; the view is valid either way.
func SelectUpcoming(raw []model.RawEvent, now time.Time, loc *time.Location) (model.UpcomingView, error) {
	view := model.UpcomingView{Events: []model.NormalizedEvent{}, SyncedAt: now}

	var errs []error
	for _, r := range raw {
		if r.Status == model.StatusCancelled {
			continue
		}
		ev, err := Normalize(r, loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ev.Start.Before(now) {
			continue
		}
		view.Events = append(view.Events, ev)
	}

	slices.SortStableFunc(view.Events, func(a, b model.NormalizedEvent) int {
		return a.Start.Compare(b.Start)
	})
	if len(view.Events) > model.MaxUpcoming {
		view.Events = view.Events[:model.MaxUpcoming]
	}

	return view, errors.Join(errs...)
}

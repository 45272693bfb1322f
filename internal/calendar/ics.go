package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/rcliao/calassist/internal/log"
	"github.com/rcliao/calassist/internal/model"
	"github.com/rcliao/calassist/internal/remote"
	"github.com/rcliao/calassist/internal/retry"
)

const (
	// expandWindow bounds how far ahead recurring events are expanded.
	expandWindow = 365 * 24 * time.Hour
	// maxOccurrences caps the instances produced for one recurring event.
	maxOccurrences = 50
)

// ICSSource reads events from an iCalendar subscription URL.
type ICSSource struct {
	URL    string
	Doer   remote.Doer
	Policy retry.Policy
	Logger *log.Logger
	Now    func() time.Time
}

// NewICSSource creates a source with the default transport and retry policy.
func NewICSSource(url string, logger *log.Logger) *ICSSource {
	if logger == nil {
		logger = log.Default()
	}
	p := retry.Default()
	p.Logger = logger
	return &ICSSource{
		URL:    url,
		Doer:   remote.NewHTTPTransport(nil),
		Policy: p,
		Logger: logger,
		Now:    time.Now,
	}
}

// Events fetches and parses the feed. VEVENTs that cannot be read are left
// out and returned as a joined KindMalformed error next to the readable ones.
func (s *ICSSource) Events(ctx context.Context) ([]model.RawEvent, error) {
	if s.URL == "" {
		return nil, remote.NotConfigured("calendar feed URL is not configured")
	}

	req := remote.Request{
		Method:  http.MethodGet,
		URL:     s.URL,
		Header:  http.Header{"Accept": {"text/calendar"}},
		Timeout: fetchTimeout,
	}

	s.Logger.Info("calendar fetch start", "source", "ics", "url", log.RedactURL(s.URL))
	body, err := retry.Do(ctx, s.Policy, func(ctx context.Context, attempt int) ([]byte, error) {
		resp, err := s.Doer.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, remote.HTTPStatus(resp.Status, "failed to fetch calendar events")
		}
		return resp.Body, nil
	})
	if err != nil {
		s.Logger.Error("calendar fetch failed", err, "source", "ics", "url", log.RedactURL(s.URL))
		return nil, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	events, err := ParseICS(body, now())
	if events == nil {
		return nil, err
	}
	if err != nil {
		s.Logger.Warn("some feed events were skipped", "source", "ics", "err", err.Error())
	}
	s.Logger.Info("calendar fetch success", "source", "ics", "event_count", len(events))
	return events, err
}

// ParseICS converts every VEVENT in body into RawEvents. Recurring events
// are expanded into their occurrences between from and from+expandWindow.
// A body that is not a calendar returns nil events. Individual VEVENTs that
// cannot be read are reported as a joined KindMalformed error alongside the
// events that could.
func ParseICS(body []byte, from time.Time) ([]model.RawEvent, error) {
	if len(body) == 0 {
		return nil, remote.Malformed("empty ICS body", nil)
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, remote.Malformed("parse ICS", err)
	}

	var errs []error
	events := make([]model.RawEvent, 0)
	for i, ve := range cal.Events() {
		ev, err := fromVEvent(ve)
		if err != nil {
			errs = append(errs, remote.Malformed(fmt.Sprintf("VEVENT %s", veventName(ve, i)), err))
			continue
		}
		rule := ve.GetProperty(ical.ComponentPropertyRrule)
		if rule == nil {
			events = append(events, ev)
			continue
		}
		occ, err := expand(ve, ev, rule.Value, from)
		if err != nil {
			errs = append(errs, remote.Malformed(fmt.Sprintf("VEVENT %s recurrence", veventName(ve, i)), err))
			continue
		}
		events = append(events, occ...)
	}
	return events, errors.Join(errs...)
}

func veventName(ve *ical.VEvent, i int) string {
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value != "" {
		return strconv.Quote(p.Value)
	}
	return "#" + strconv.Itoa(i+1)
}

func fromVEvent(ve *ical.VEvent) (model.RawEvent, error) {
	var out model.RawEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.ID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = strings.ToLower(p.Value)
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return out, errors.New("missing DTSTART")
	}
	if isDateValue(startProp) {
		day, err := time.Parse(dateLayout, icsDate(startProp.Value))
		if err != nil {
			return out, fmt.Errorf("DTSTART %q: %w", startProp.Value, err)
		}
		out.Start = model.EventTime{Date: day.Format(dateLayout)}
		// DTEND is optional; a one-day event ends at the next midnight.
		out.End = model.EventTime{Date: day.AddDate(0, 0, 1).Format(dateLayout)}
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil && isDateValue(p) {
			if end, err := time.Parse(dateLayout, icsDate(p.Value)); err == nil {
				out.End.Date = end.Format(dateLayout)
			}
		}
		return out, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART %q: %w", startProp.Value, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start
	}

	out.Start = model.EventTime{DateTime: start.Format(time.RFC3339)}
	out.End = model.EventTime{DateTime: end.Format(time.RFC3339)}
	return out, nil
}

// expand turns a recurring event into one RawEvent per occurrence starting
// in [from, from+expandWindow], keeping the original duration. Occurrence IDs
// are the UID plus the occurrence start.
func expand(ve *ical.VEvent, ev model.RawEvent, rawRule string, from time.Time) ([]model.RawEvent, error) {
	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		return nil, err
	}

	allDay := ev.Start.Date != ""
	var start, end time.Time
	if allDay {
		start, _ = time.Parse(dateLayout, ev.Start.Date)
		end, _ = time.Parse(dateLayout, ev.End.Date)
	} else {
		// Keep DTSTART's own zone so occurrences follow its DST rules.
		if start, err = ve.GetStartAt(); err != nil {
			return nil, err
		}
		end, _ = time.Parse(time.RFC3339, ev.End.DateTime)
	}
	dur := end.Sub(start)
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(start.Location()))
	}

	after := from.In(start.Location())
	if allDay {
		// Dates are anchored at UTC midnight here; include today.
		after = time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, time.UTC)
	}
	times := set.Between(after, after.Add(expandWindow), true)
	if len(times) > maxOccurrences {
		times = times[:maxOccurrences]
	}

	out := make([]model.RawEvent, 0, len(times))
	for _, t := range times {
		occ := ev
		if allDay {
			occ.ID = ev.ID + "_" + t.Format("20060102")
			occ.Start = model.EventTime{Date: t.Format(dateLayout)}
			occ.End = model.EventTime{Date: t.Add(dur).Format(dateLayout)}
		} else {
			occ.ID = ev.ID + "_" + t.UTC().Format("20060102T150405Z")
			occ.Start = model.EventTime{DateTime: t.Format(time.RFC3339)}
			occ.End = model.EventTime{DateTime: t.Add(dur).Format(time.RFC3339)}
		}
		out = append(out, occ)
	}
	return out, nil
}

// exDates collects EXDATE values. Values that do not parse are ignored.
func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := time.UTC
		if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
			if l, err := time.LoadLocation(tz[0]); err == nil {
				loc = l
			}
		}
		for _, part := range strings.Split(p.Value, ",") {
			if t, ok := parseICSTime(strings.TrimSpace(part), loc); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSTime reads the basic DATE and DATE-TIME forms. Values without a
// trailing Z are read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse("20060102T150405Z", v); err == nil {
		return t, true
	}
	for _, layout := range []string{"20060102T150405", "20060102"} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDateValue reports whether a DTSTART/DTEND holds a DATE rather than a DATE-TIME.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// icsDate turns 20240601 into 2024-06-01. Other inputs pass through.
func icsDate(v string) string {
	if len(v) < 8 {
		return v
	}
	t, err := time.Parse("20060102", v[:8])
	if err != nil {
		return v
	}
	return t.Format(dateLayout)
}

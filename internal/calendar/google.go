package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rcliao/calassist/internal/auth"
	"github.com/rcliao/calassist/internal/log"
	"github.com/rcliao/calassist/internal/model"
	"github.com/rcliao/calassist/internal/remote"
	"github.com/rcliao/calassist/internal/retry"
)

// DefaultGoogleURL lists the events of the signed-in user's primary calendar.
const DefaultGoogleURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

const fetchTimeout = 15 * time.Second

// Source yields raw calendar events. A Source may return the events it could
// read together with a KindMalformed error describing the ones it could not.
type Source interface {
	Events(ctx context.Context) ([]model.RawEvent, error)
}

// GoogleSource reads events from the Google Calendar v3 API.
type GoogleSource struct {
	URL    string
	Tokens auth.TokenSource
	Doer   remote.Doer
	Policy retry.Policy
	Logger *log.Logger
}

// NewGoogleSource creates a source with the default endpoint, transport
// and retry policy.
func NewGoogleSource(tokens auth.TokenSource, logger *log.Logger) *GoogleSource {
	if logger == nil {
		logger = log.Default()
	}
	p := retry.Default()
	p.Logger = logger
	return &GoogleSource{
		URL:    DefaultGoogleURL,
		Tokens: tokens,
		Doer:   remote.NewHTTPTransport(nil),
		Policy: p,
		Logger: logger,
	}
}

type eventsResponse struct {
	Items []model.RawEvent `json:"items"`
}

// Events fetches the calendar. A missing token fails with KindNotConfigured
// before any request is made.
func (g *GoogleSource) Events(ctx context.Context) ([]model.RawEvent, error) {
	if g.Tokens == nil {
		return nil, remote.NotConfigured("calendar is not connected")
	}
	token, err := g.Tokens.AcquireToken(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return nil, remote.NotConfigured("calendar is not connected")
		}
		return nil, &remote.Error{Kind: remote.KindNotConfigured, Message: "acquire calendar token", Err: err}
	}

	url := g.URL
	if url == "" {
		url = DefaultGoogleURL
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Accept", "application/json")
	req := remote.Request{Method: http.MethodGet, URL: url, Header: header, Timeout: fetchTimeout}

	g.Logger.Info("calendar fetch start", "source", "google", "url", log.RedactURL(url))
	items, err := retry.Do(ctx, g.Policy, func(ctx context.Context, attempt int) ([]model.RawEvent, error) {
		resp, err := g.Doer.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, remote.HTTPStatus(resp.Status, "failed to fetch calendar events")
		}
		var out eventsResponse
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return nil, remote.Malformed("decode calendar events", err)
		}
		return out.Items, nil
	})
	if err != nil {
		g.Logger.Error("calendar fetch failed", err, "source", "google")
		return nil, err
	}
	if items == nil {
		items = []model.RawEvent{}
	}
	g.Logger.Info("calendar fetch success", "source", "google", "event_count", len(items))
	return items, nil
}

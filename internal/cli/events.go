package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/calassist/internal/auth"
	"github.com/rcliao/calassist/internal/calendar"
	"github.com/rcliao/calassist/internal/config"
	"github.com/rcliao/calassist/internal/log"
	"github.com/rcliao/calassist/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Refresh the calendar and show upcoming events",
		Run:   runEvents,
	}

	cmd.Flags().Bool("cached", false, "Show the last saved snapshot without fetching")

	RootCmd.AddCommand(cmd)
}

func runEvents(cmd *cobra.Command, args []string) {
	cached, _ := cmd.Flags().GetBool("cached")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		exitErr("timezone", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var view model.UpcomingView
	if cached {
		v, err := s.LatestSnapshot(cmd.Context(), cfg.Calendar.Source)
		if err != nil {
			exitErr("load snapshot", err)
		}
		view = *v
	} else {
		r := newRefresher(cfg, loc, s)
		view, err = r.Refresh(cmd.Context())
		if err != nil {
			exitErr("refresh calendar", err)
		}
	}

	if jsonOutput() {
		printJSON(view)
		return
	}
	writeView(os.Stdout, view, loc)
}

// newSource builds the configured calendar source.
func newSource(cfg *config.Config) calendar.Source {
	logger := log.Default().With("source", cfg.Calendar.Source)
	if cfg.Calendar.Source == config.SourceICS {
		return calendar.NewICSSource(cfg.Calendar.URL, logger)
	}
	g := calendar.NewGoogleSource(auth.StoredToken(cfg.Calendar.AccessToken, nil), logger)
	if cfg.Calendar.URL != "" {
		g.URL = cfg.Calendar.URL
	}
	return g
}

func newRefresher(cfg *config.Config, loc *time.Location, saver calendar.SnapshotSaver) *calendar.Refresher {
	return &calendar.Refresher{
		Name:     cfg.Calendar.Source,
		Source:   newSource(cfg),
		Location: loc,
		Saver:    saver,
		Logger:   log.Default(),
	}
}

// writeView prints the view the way the calendar panel lays it out: date and
// time range, title, then optional description and location.
func writeView(w io.Writer, view model.UpcomingView, loc *time.Location) {
	if view.Empty() {
		fmt.Fprintln(w, "No upcoming events found")
	}
	for i, e := range view.Events {
		if i > 0 {
			fmt.Fprintln(w)
		}
		start, end := e.Start.In(loc), e.End.In(loc)
		span := "All day"
		if !e.AllDay {
			span = start.Format("15:04") + " - " + end.Format("15:04")
		}
		fmt.Fprintf(w, "%s • %s\n", start.Format("2006-01-02"), span)
		fmt.Fprintf(w, "  %s\n", e.Title)
		if e.Description != "" {
			fmt.Fprintf(w, "  %s\n", e.Description)
		}
		if e.Location != "" {
			fmt.Fprintf(w, "  @ %s\n", e.Location)
		}
	}
	if !view.SyncedAt.IsZero() {
		fmt.Fprintf(w, "\nLast synced: %s\n", view.SyncedAt.In(loc).Format("15:04:05"))
	}
}

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/rcliao/calassist/internal/log"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the calendar on a schedule until interrupted",
		Run:   runWatch,
	}

	cmd.Flags().String("schedule", "", "Cron expression (default from config)")
	cmd.Flags().Int("keep", 50, "Snapshots to keep per source")

	RootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	schedule, _ := cmd.Flags().GetString("schedule")
	keep, _ := cmd.Flags().GetInt("keep")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if schedule == "" {
		schedule = cfg.Refresh
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

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.Default().With("schedule", schedule)
	r := newRefresher(cfg, loc, s)

	refresh := func() {
		view, err := r.Refresh(ctx)
		if err != nil {
			logger.Error("refresh failed", err)
			return
		}
		if _, err := s.PruneSnapshots(ctx, r.Name, keep); err != nil {
			logger.Warn("prune snapshots failed", "err", err.Error())
		}
		if jsonOutput() {
			printJSON(view)
			return
		}
		writeView(os.Stdout, view, loc)
	}

	c, err := newScheduler(schedule, refresh)
	if err != nil {
		exitErr("schedule", err)
	}

	// First refresh runs immediately; cron takes over afterwards.
	refresh()
	c.Start()
	logger.Info("watching calendar")

	<-ctx.Done()
	logger.Info("stopping")
	<-c.Stop().Done()
}

// newScheduler registers job on a standard five-field cron expression.
// Overlapping runs are skipped rather than queued.
func newScheduler(schedule string, job func()) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	return c, nil
}

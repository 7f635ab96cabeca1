package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"StockInsight/internal/model"
	"StockInsight/internal/notifier"
	"StockInsight/internal/pipeline"
	"StockInsight/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner is the daily run the scheduler triggers.
type Runner interface {
	Run(ctx context.Context, now time.Time) (*pipeline.Result, error)
	LastDigest() string
}

// Scheduler manages the cron task and chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier pipeline.Notifier // nil when Telegram is not configured
	Recorder recorder.Recorder
	Ctx      context.Context
	Now      func() time.Time
}

// NewScheduler creates a new Scheduler whose cron expressions are read in loc.
func NewScheduler(ctx context.Context, loc *time.Location, runner Runner, n pipeline.Notifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Runner:   runner,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
		Now:      time.Now,
	}
}

// Register adds the daily run at expr (six fields, seconds first).
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	for _, e := range s.Cron.Entries() {
		log.Info().Time("next", e.Next).Msg("scheduler started")
	}
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the daily task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	if _, err := s.run(s.Ctx); err != nil {
		s.trySend(fmt.Sprintf("❌ daily run failed: %s", html.EscapeString(err.Error())))
	}
}

func (s *Scheduler) run(ctx context.Context) (*pipeline.Result, error) {
	log.Info().Msg("running daily task")
	res, err := s.Runner.Run(ctx, s.Now())
	if err != nil {
		log.Error().Err(err).Msg("daily run failed")
		return nil, err
	}
	log.Info().Str("status", string(res.Status)).Str("report", res.ReportPath).
		Int("failed_steps", len(res.Failed())).Msg("daily run finished")
	return res, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd := strings.ToLower(strings.TrimSpace(command))
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/run":
		res, err := s.run(ctx)
		if err != nil {
			return fmt.Sprintf("❌ run failed: %s", html.EscapeString(err.Error()))
		}
		if res.Status == model.RunSkipped {
			return fmt.Sprintf("⏸ %s is a weekend, run skipped.", res.Date)
		}
		if s.Notifier == nil {
			return res.Digest
		}
		return ""
	case "/latest":
		if d := s.Runner.LastDigest(); d != "" {
			return d
		}
		return "No run has completed yet."
	case "/history":
		runs, err := s.Recorder.RecentRuns(7)
		if err != nil {
			return fmt.Sprintf("❌ history: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatRunHistory(runs)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

package scheduler

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"Finansle/internal/collector"
	"Finansle/internal/model"
	"Finansle/internal/notifier"
	"Finansle/internal/recorder"
	"Finansle/internal/selector"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the stock-of-the-day job, on demand or from cron.
type Scheduler struct {
	Cron         *cron.Cron
	Collector    *collector.Collector
	Recorder     recorder.Recorder
	ListingsFile string
	Currency     string
	Out          io.Writer
	Ctx          context.Context
	Now          func() time.Time
}

// NewScheduler creates a new Scheduler. Cron specs carry a seconds field.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, listingsFile, currency string) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Collector:    col,
		Recorder:     rec,
		ListingsFile: listingsFile,
		Currency:     currency,
		Out:          os.Stdout,
		Ctx:          ctx,
		Now:          time.Now,
	}
}

// Register adds the daily job.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunDailyNow executes the daily job immediately.
func (s *Scheduler) RunDailyNow() (*model.StockRecord, error) {
	return s.Daily(s.Ctx)
}

func (s *Scheduler) dailyTask() {
	if _, err := s.Daily(s.Ctx); err != nil {
		log.Error().Err(err).Msg("daily task failed")
	}
}

// Daily picks the stock of the day, collects it, publishes the record and
// prints a summary.
func (s *Scheduler) Daily(ctx context.Context) (*model.StockRecord, error) {
	listings, err := selector.LoadListings(s.ListingsFile)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	pick, err := selector.Pick(s.Now(), listings)
	if err != nil {
		return nil, err
	}
	log.Info().Str("ticker", pick.Ticker).Str("name", pick.Name).Int("candidates", len(listings)).Msg("selected stock of the day")

	rec, err := s.Collector.Collect(ctx, pick.Ticker)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", pick.Ticker, err)
	}
	if rec.CompanyName == rec.Ticker && pick.Name != "" {
		rec.CompanyName = pick.Name
	}

	if err := s.Recorder.Record(rec); err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.Ticker, err)
	}

	fmt.Fprint(s.Out, notifier.FormatSummary(rec, s.Currency))
	for _, w := range notifier.Warnings(rec) {
		log.Warn().Str("ticker", rec.Ticker).Msg(w)
	}
	return rec, nil
}

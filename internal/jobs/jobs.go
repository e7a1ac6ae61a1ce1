package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"papeleria/backend/internal/domain"
)

// Sweeper is the part of the service the background jobs need.
type Sweeper interface {
	OverdueClientOrders(ctx context.Context, asOf time.Time) ([]domain.ClientOrder, error)
	LowStockSweep(ctx context.Context, threshold int) ([]domain.Product, error)
}

type Config struct {
	OverdueSchedule   string
	LowStockSchedule  string
	LowStockThreshold int
	Timeout           time.Duration
}

// Scheduler runs the periodic store sweeps on cron schedules. An empty
// schedule leaves that job unregistered.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	cfg     Config
	now     func() time.Time
	entries map[string]cron.EntryID
}

func NewScheduler(sweeper Sweeper, cfg Config) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.LowStockThreshold < 1 {
		cfg.LowStockThreshold = 5
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		sweeper: sweeper,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if err := s.add("overdue-orders", s.cfg.OverdueSchedule, s.RunOverdue); err != nil {
		return err
	}
	if err := s.add("low-stock", s.cfg.LowStockSchedule, s.RunLowStock); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Int("jobs", len(s.entries)).Msg("job scheduler started")
	return nil
}

// Stop waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Info().Msg("job scheduler stopped")
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Msg("job scheduler stop timed out")
	}
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) add(name string, schedule string, run func(context.Context) error) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.Info().Str("job", name).Msg("job disabled")
		return nil
	}
	id, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		started := time.Now()
		if err := run(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("job failed")
			return
		}
		log.Debug().Str("job", name).Dur("took", time.Since(started)).Msg("job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, schedule, err)
	}
	s.entries[name] = id
	return nil
}

// RunOverdue logs every open client order past its estimated delivery.
func (s *Scheduler) RunOverdue(ctx context.Context) error {
	orders, err := s.sweeper.OverdueClientOrders(ctx, s.now())
	if err != nil {
		return err
	}
	for _, o := range orders {
		event := log.Warn().
			Str("order_id", o.ID).
			Str("client", o.ClientName).
			Str("status", o.Status).
			Str("pending", domain.FormatCents(o.PendingCents))
		if o.EstimatedDelivery != nil {
			event = event.Str("estimated_delivery", o.EstimatedDelivery.Format("2006-01-02"))
		}
		event.Msg("client order overdue")
	}
	if len(orders) > 0 {
		log.Info().Int("count", len(orders)).Msg("overdue client orders found")
	}
	return nil
}

// RunLowStock logs the active products at or below the stock threshold.
func (s *Scheduler) RunLowStock(ctx context.Context) error {
	products, err := s.sweeper.LowStockSweep(ctx, s.cfg.LowStockThreshold)
	if err != nil {
		return err
	}
	for _, p := range products {
		log.Warn().Str("product_id", p.ID).Str("product", p.Name).Int("stock", p.Stock).Msg("low stock")
	}
	return nil
}

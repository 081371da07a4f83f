package conversation

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"jobmate/brain-service/internal/logger"
)

// Sweeper wraps robfig/cron and evicts idle in-memory sessions.
type Sweeper struct {
	cron    *cron.Cron
	store   *MemoryStore
	maxIdle time.Duration
	spec    string // cron spec, e.g. "@every 10m"
}

// NewSweeper creates a Sweeper that fires every interval and drops sessions
// idle for longer than maxIdle.
func NewSweeper(store *MemoryStore, interval, maxIdle time.Duration) *Sweeper {
	return &Sweeper{
		cron:    cron.New(),
		store:   store,
		maxIdle: maxIdle,
		spec:    fmt.Sprintf("@every %s", interval),
	}
}

// Start registers the job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	logger.Info().Str("component", "sweeper").Str("spec", s.spec).Msg("session sweeper started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	logger.Info().Str("component", "sweeper").Msg("session sweeper stopped")
}

func (s *Sweeper) sweep() {
	if n := s.store.Sweep(s.maxIdle); n > 0 {
		logger.Debug().Str("component", "sweeper").Int("evicted", n).Msg("idle sessions swept")
	}
}

package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultSessionTTL    = time.Hour
)

// Sweepable evicts sessions older than ttl and reports how many it removed.
type Sweepable interface {
	SweepExpired(now time.Time, ttl time.Duration) int
}

// Sweeper periodically evicts expired sessions until stopped.
type Sweeper struct {
	target   Sweepable
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewSweeper(target Sweepable, interval, ttl time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sweeper{target: target, interval: interval, ttl: ttl, now: time.Now}
}

// Start launches the loop. It is a no-op if the sweeper already runs.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running() {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx, s.stop, s.done)
	log.Info().Str("module", "app.sweeper").Dur("interval", s.interval).Dur("ttl", s.ttl).Msg("started")
}

// Stop ends the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	if stop == nil {
		s.mu.Unlock()
		return
	}
	select {
	case <-stop:
	default:
		close(stop)
	}
	s.mu.Unlock()
	<-done
}

func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running()
}

func (s *Sweeper) running() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// RunOnce performs a single sweep now.
func (s *Sweeper) RunOnce() int {
	n := s.target.SweepExpired(s.now(), s.ttl)
	if n > 0 {
		log.Info().Str("module", "app.sweeper").Int("evicted", n).Msg("swept expired sessions")
	} else {
		log.Debug().Str("module", "app.sweeper").Msg("nothing to sweep")
	}
	return n
}

func (s *Sweeper) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweeper").Msg("stopped by context")
			return
		case <-stop:
			log.Info().Str("module", "app.sweeper").Msg("stopped")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

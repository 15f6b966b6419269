package session

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweepable is anything that can drop its expired pages.
type Sweepable interface {
	Name() string
	Sweep() int
}

// Sweeper periodically unmounts idle pages.
type Sweeper struct {
	cron *cron.Cron
}

func NewSweeper(interval time.Duration, targets ...Sweepable) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	_, err := c.AddFunc("@every "+interval.String(), func() {
		for _, t := range targets {
			if n := t.Sweep(); n > 0 {
				log.Debug().Str("registry", t.Name()).Int("expired", n).Msg("Unmounted idle pages")
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule page sweep: %w", err)
	}
	return &Sweeper{cron: c}, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Run drives the tick and frame loops until ctx is cancelled. The frame loop
// stops once paused visuals settle and restarts when playback resumes.
func (s *Service) Run(ctx context.Context) error {
	tick := time.NewTicker(s.cfg.TickInterval)
	defer tick.Stop()

	frame := time.NewTicker(s.cfg.FrameInterval)
	defer frame.Stop()
	framing := true

	log.Info().
		Dur("tick", s.cfg.TickInterval).
		Dur("frame", s.cfg.FrameInterval).
		Msg("Session loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session loop stopped")
			return ctx.Err()

		case now := <-tick.C:
			if err := s.Tick(now); err != nil {
				log.Warn().Err(err).Msg("Tick failed")
			}

		case now := <-frame.C:
			if !s.Frame(now) {
				frame.Stop()
				framing = false
				log.Debug().Msg("Visuals at rest, frame loop paused")
			}

		case <-s.wake:
			if !framing {
				frame.Reset(s.cfg.FrameInterval)
				framing = true
				log.Debug().Msg("Frame loop resumed")
			}
		}
	}
}

// Poke runs a tick now. Host adapters call it when the player reports a
// change between ticks.
func (s *Service) Poke() {
	if err := s.Tick(s.now()); err != nil {
		log.Warn().Err(err).Msg("Tick failed")
	}
}

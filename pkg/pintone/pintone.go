package pintone

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aromabox/pintone/pkg/config"
	"github.com/aromabox/pintone/pkg/player"
	"github.com/aromabox/pintone/pkg/queue"
	"github.com/aromabox/pintone/pkg/sequence"
)

// Pintone transmits PINs to a vending machine as DTMF tones.
type Pintone struct {
	cfg      *config.Config
	player   player.Player
	queue    *queue.Queue
	log      zerolog.Logger
	stopOnce sync.Once
}

// DefaultConfig returns a configuration that plays nothing, for testing.
func DefaultConfig() *config.Config {
	cfg := config.Default()
	cfg.Output = config.OutputStub
	return cfg
}

// New creates a Pintone for cfg. Failure to acquire the audio output is
// returned as is; callers should treat it as fatal.
func New(cfg *config.Config, log zerolog.Logger) (*Pintone, error) {
	log = log.With().Str("component", "pintone").Logger()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p, err := newPlayer(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}

	return NewWithPlayer(cfg, p, log)
}

// NewWithPlayer creates a Pintone that plays through p. p is closed by Stop.
func NewWithPlayer(cfg *config.Config, p player.Player, log zerolog.Logger) (*Pintone, error) {
	q, err := queue.NewQueue(cfg.Queue, cfg.Tone, p, log)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}

	return &Pintone{
		cfg:    cfg,
		player: p,
		queue:  q,
		log:    log,
	}, nil
}

func newPlayer(cfg *config.Config, log zerolog.Logger) (player.Player, error) {
	switch cfg.Output {
	case config.OutputWAV:
		return player.NewWAVPlayer(cfg.WAVPath, cfg.Tone.SampleRate, log)
	case config.OutputStub:
		return player.NewStubPlayer(log), nil
	default:
		return player.NewOtoPlayer(cfg.Tone.SampleRate, log)
	}
}

// Transmit queues pin and waits until every tone has played. fn, if set, is
// called on the worker goroutine after each symbol. Canceling ctx stops the
// transmission after the tone in flight.
func (c *Pintone) Transmit(ctx context.Context, pin string, fn sequence.SymbolFunc) error {
	done := make(chan error, 1)
	if err := c.queue.Add(queue.Job{Ctx: ctx, PIN: pin, OnSymbol: fn, Done: done}); err != nil {
		return err
	}

	c.log.Info().Int("length", len(pin)).Msg("PIN queued for transmission")

	select {
	case err := <-done:
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				c.log.Info().Msg("Transmission canceled")
				return ctxErr
			}
			return fmt.Errorf("transmission failed: %w", err)
		}
		c.log.Info().Msg("PIN transmitted")
		return nil
	case <-ctx.Done():
		// The worker skips or cuts short the job once it sees ctx.
		c.log.Info().Msg("Transmission canceled")
		return ctx.Err()
	}
}

// Stop cancels any transmission in progress and releases the audio output.
func (c *Pintone) Stop() {
	c.stopOnce.Do(func() {
		c.log.Debug().Msg("Stopping pintone")
		c.queue.Stop()

		if err := c.player.Close(); err != nil {
			c.log.Error().Err(err).Msg("Error closing audio player")
		}

		c.log.Info().Msg("Pintone stopped")
	})
}

// Package sequence plays a string of keypad symbols as back-to-back DTMF tones.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aromabox/pintone/pkg/dtmf"
	"github.com/aromabox/pintone/pkg/player"
	"github.com/aromabox/pintone/pkg/sample"
)

// SymbolFunc is called after each tone has played, with the symbol and its
// rune position in the input.
type SymbolFunc func(symbol rune, index int)

// Options controls tone pacing.
type Options struct {
	ToneDuration time.Duration
	Gap          time.Duration
	SampleRate   int
	Log          zerolog.Logger
}

// DefaultOptions returns the default sequence options.
func DefaultOptions() Options {
	return Options{
		ToneDuration: dtmf.DefaultToneDuration,
		Gap:          dtmf.DefaultGap,
		SampleRate:   sample.DefaultSampleRate,
		Log:          zerolog.Nop(),
	}
}

type step struct {
	symbol rune
	index  int
}

// Play transmits symbols through p in order. Symbols outside the keypad are
// skipped without a tone or callback. No gap follows the last played tone.
// A zero SampleRate or ToneDuration falls back to the default; a zero Gap
// means no silence.
// ctx is checked before each tone and during gaps; a tone already handed to
// the player always finishes.
func Play(ctx context.Context, p player.Player, symbols string, opts Options, fn SymbolFunc) error {
	if opts.SampleRate <= 0 {
		opts.SampleRate = sample.DefaultSampleRate
	}
	if opts.ToneDuration <= 0 {
		opts.ToneDuration = dtmf.DefaultToneDuration
	}
	log := opts.Log

	var steps []step
	index := 0
	for _, r := range symbols {
		if dtmf.IsSymbol(r) {
			steps = append(steps, step{symbol: r, index: index})
		} else {
			log.Trace().Str("symbol", string(r)).Int("index", index).Msg("Skipping non-keypad symbol")
		}
		index++
	}

	gapper, hasGapper := p.(player.Gapper)

	for n, s := range steps {
		if err := ctx.Err(); err != nil {
			log.Debug().Int("played", n).Msg("Sequence canceled")
			return err
		}

		buf, _ := dtmf.Synthesize(s.symbol, opts.ToneDuration, opts.SampleRate)
		if err := p.Play(buf); err != nil {
			return fmt.Errorf("failed to play symbol '%c' at index %d: %w", s.symbol, s.index, err)
		}

		log.Trace().Str("symbol", string(s.symbol)).Int("index", s.index).Msg("Played symbol")
		if fn != nil {
			fn(s.symbol, s.index)
		}

		if n == len(steps)-1 || opts.Gap <= 0 {
			continue
		}
		if hasGapper {
			if err := gapper.Gap(ctx, opts.Gap); err != nil {
				return err
			}
			continue
		}
		if err := wait(ctx, opts.Gap); err != nil {
			log.Debug().Int("played", n+1).Msg("Sequence canceled")
			return err
		}
	}
	return nil
}

// Duration returns how long Play takes for symbols with the given options,
// ignoring scheduling overhead.
func Duration(symbols string, opts Options) time.Duration {
	if opts.ToneDuration <= 0 {
		opts.ToneDuration = dtmf.DefaultToneDuration
	}
	n := 0
	for _, r := range symbols {
		if dtmf.IsSymbol(r) {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return time.Duration(n)*opts.ToneDuration + time.Duration(n-1)*opts.Gap
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

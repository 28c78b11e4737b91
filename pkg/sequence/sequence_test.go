package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aromabox/pintone/pkg/dtmf"
	"github.com/aromabox/pintone/pkg/player"
	"github.com/aromabox/pintone/pkg/sample"
)

type played struct {
	symbol rune
	index  int
}

type recorder struct {
	mu    sync.Mutex
	calls []played
}

func (r *recorder) record(symbol rune, index int) {
	r.mu.Lock()
	r.calls = append(r.calls, played{symbol, index})
	r.mu.Unlock()
}

func testOptions(tone, gap time.Duration) Options {
	opts := DefaultOptions()
	opts.ToneDuration = tone
	opts.Gap = gap
	return opts
}

func TestPlayOrderAndTiming(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	rec := &recorder{}

	start := time.Now()
	err := Play(context.Background(), p, "123", testOptions(150*time.Millisecond, 100*time.Millisecond), rec.record)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, []played{{'1', 0}, {'2', 1}, {'3', 2}}, rec.calls)
	assert.GreaterOrEqual(t, elapsed, 640*time.Millisecond)
	assert.Less(t, elapsed, 1000*time.Millisecond)
	assert.Len(t, p.Played(), 3)
}

func TestPlaySkipsInvalidSymbols(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	rec := &recorder{}

	err := Play(context.Background(), p, "1a2", testOptions(10*time.Millisecond, 5*time.Millisecond), rec.record)

	require.NoError(t, err)
	assert.Equal(t, []played{{'1', 0}, {'2', 2}}, rec.calls)
	assert.Len(t, p.Played(), 2)
}

func TestPlayEmpty(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	rec := &recorder{}

	start := time.Now()
	require.NoError(t, Play(context.Background(), p, "", DefaultOptions(), rec.record))
	assert.Less(t, time.Since(start), 20*time.Millisecond)
	assert.Empty(t, rec.calls)
	assert.Empty(t, p.Played())
}

func TestPlayOnlyInvalidSymbols(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	rec := &recorder{}

	require.NoError(t, Play(context.Background(), p, "abc", DefaultOptions(), rec.record))
	assert.Empty(t, rec.calls)
	assert.Empty(t, p.Played())
}

func TestPlayNilCallback(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	require.NoError(t, Play(context.Background(), p, "#*", testOptions(5*time.Millisecond, 5*time.Millisecond), nil))
	assert.Len(t, p.Played(), 2)
}

func TestPlayBufferLength(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	opts := testOptions(20*time.Millisecond, 0)
	opts.SampleRate = 8000

	require.NoError(t, Play(context.Background(), p, "90", opts, nil))
	for _, buf := range p.Played() {
		assert.Equal(t, 160, buf.Len())
		assert.Equal(t, 8000, buf.SampleRate)
	}
}

func TestPlayScalesLinearly(t *testing.T) {
	measure := func(tone, gap time.Duration) time.Duration {
		p := player.NewStubPlayer(zerolog.Nop())
		start := time.Now()
		require.NoError(t, Play(context.Background(), p, "4567", testOptions(tone, gap), nil))
		return time.Since(start)
	}

	short := measure(20*time.Millisecond, 20*time.Millisecond)
	long := measure(60*time.Millisecond, 40*time.Millisecond)

	assert.GreaterOrEqual(t, short, 140*time.Millisecond)
	assert.GreaterOrEqual(t, long, 360*time.Millisecond)
	assert.Greater(t, long, short)
}

func TestPlayPlayerError(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	deviceErr := errors.New("audio device unavailable")
	p.FailWith(deviceErr)
	rec := &recorder{}

	err := Play(context.Background(), p, "12", DefaultOptions(), rec.record)

	require.Error(t, err)
	assert.ErrorIs(t, err, deviceErr)
	assert.Empty(t, rec.calls)
}

func TestPlayCanceledBetweenTones(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}

	err := Play(ctx, p, "123456", testOptions(20*time.Millisecond, 200*time.Millisecond), func(symbol rune, index int) {
		rec.record(symbol, index)
		if index == 1 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []played{{'1', 0}, {'2', 1}}, rec.calls)
}

func TestPlayWithGapper(t *testing.T) {
	p := &gapRecorder{}
	require.NoError(t, Play(context.Background(), p, "1#2", testOptions(10*time.Millisecond, time.Hour), nil))
	assert.Equal(t, 3, p.tones)
	assert.Equal(t, []time.Duration{time.Hour, time.Hour}, p.gaps)
}

func TestDuration(t *testing.T) {
	opts := testOptions(150*time.Millisecond, 100*time.Millisecond)
	assert.Equal(t, 650*time.Millisecond, Duration("123", opts))
	assert.Equal(t, 1400*time.Millisecond, Duration("123456", opts))
	assert.Equal(t, 400*time.Millisecond, Duration("1a2", opts))
	assert.Equal(t, time.Duration(0), Duration("", opts))
}

type gapRecorder struct {
	tones int
	gaps  []time.Duration
}

func (g *gapRecorder) Play(buf sample.Buffer) error {
	g.tones++
	return nil
}

func (g *gapRecorder) Gap(_ context.Context, d time.Duration) error {
	g.gaps = append(g.gaps, d)
	return nil
}

func (g *gapRecorder) Close() error { return nil }

func TestPlayZeroOptionsUseDefaults(t *testing.T) {
	p := player.NewStubPlayer(zerolog.Nop())
	rec := &recorder{}

	require.NoError(t, Play(context.Background(), p, "12", Options{}, rec.record))

	assert.Equal(t, []played{{'1', 0}, {'2', 1}}, rec.calls)
	require.Len(t, p.Played(), 2)
	for _, buf := range p.Played() {
		assert.Equal(t, sample.Count(dtmf.DefaultToneDuration, sample.DefaultSampleRate), buf.Len())
		assert.Equal(t, sample.DefaultSampleRate, buf.SampleRate)
	}
	assert.Equal(t, 2*dtmf.DefaultToneDuration, Duration("12", Options{}))
}

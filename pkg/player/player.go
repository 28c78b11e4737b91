package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog"

	"github.com/aromabox/pintone/pkg/sample"
)

// ErrSampleRateMismatch is returned when the audio device was already opened
// at a different sample rate.
var ErrSampleRateMismatch = errors.New("audio context already initialized at a different sample rate")

// Player is the interface for emitting sample buffers.
type Player interface {
	// Play emits buf and returns once it has been played out.
	Play(buf sample.Buffer) error
	Close() error
}

// Gapper is implemented by players that render inter-tone silence themselves
// instead of having the caller wait.
type Gapper interface {
	Gap(ctx context.Context, d time.Duration) error
}

var (
	otoCtx  *oto.Context
	otoRate int
	once    sync.Once
	ctxErr  error
)

// initOtoContext initializes the oto context singleton. Oto allows a single
// context per process, so the first sample rate wins.
func initOtoContext(sampleRate int) (*oto.Context, error) {
	once.Do(func() {
		op := &oto.NewContextOptions{}
		op.SampleRate = sampleRate
		op.ChannelCount = sample.ChannelCount
		op.Format = oto.FormatSignedInt16LE

		var readyChan chan struct{}
		otoCtx, readyChan, ctxErr = oto.NewContext(op)
		if ctxErr == nil {
			<-readyChan
			otoRate = sampleRate
		}
	})
	if ctxErr != nil {
		return nil, ctxErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("%w: have %d Hz, want %d Hz", ErrSampleRateMismatch, otoRate, sampleRate)
	}
	return otoCtx, nil
}

// OtoPlayer plays buffers on the default audio output through ebitengine/oto/v3.
type OtoPlayer struct {
	log        zerolog.Logger
	ctx        *oto.Context
	sampleRate int
}

// NewOtoPlayer acquires the audio device. A failure here is not retried.
func NewOtoPlayer(sampleRate int, log zerolog.Logger) (*OtoPlayer, error) {
	ctx, err := initOtoContext(sampleRate)
	if err != nil {
		log.Error().Err(err).Int("sample_rate", sampleRate).Msg("Failed to initialize Oto audio context")
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	log.Debug().Int("sample_rate", sampleRate).Msg("Oto audio context initialized successfully")

	return &OtoPlayer{
		log:        log.With().Str("player_type", "oto").Logger(),
		ctx:        ctx,
		sampleRate: sampleRate,
	}, nil
}

// Play writes buf to the audio device and blocks until it has played out.
func (p *OtoPlayer) Play(buf sample.Buffer) error {
	if buf.Empty() {
		return nil
	}
	if buf.SampleRate != p.sampleRate {
		return fmt.Errorf("%w: buffer is %d Hz, device is %d Hz", ErrSampleRateMismatch, buf.SampleRate, p.sampleRate)
	}

	data, err := buf.Bytes()
	if err != nil {
		return err
	}

	p.log.Trace().
		Int("samples", buf.Len()).
		Dur("duration", buf.Duration()).
		Msg("Playing buffer")

	if err := p.playSound(bytes.NewReader(data)); err != nil {
		p.log.Error().Err(err).Msg("Failed to play sound")
		return err
	}
	return nil
}

// playSound plays the raw audio data from an io.Reader. The oto player is
// released before returning so the next tone starts on a fresh one.
func (p *OtoPlayer) playSound(reader io.Reader) error {
	player := p.ctx.NewPlayer(reader)
	defer player.Close()

	player.Play()

	for player.IsPlaying() {
		time.Sleep(time.Millisecond)
	}

	if err := player.Err(); err != nil {
		return fmt.Errorf("oto player error: %w", err)
	}
	return nil
}

// Close releases the player. The oto context is process-wide and stays open.
func (p *OtoPlayer) Close() error {
	p.log.Debug().Msg("Closing OtoPlayer")
	return nil
}

// StubPlayer logs playback and sleeps for each buffer's duration.
type StubPlayer struct {
	log    zerolog.Logger
	mu     sync.Mutex
	played []sample.Buffer
	err    error
}

// NewStubPlayer creates a new StubPlayer.
func NewStubPlayer(log zerolog.Logger) *StubPlayer {
	return &StubPlayer{log: log.With().Str("player_type", "stub").Logger()}
}

// FailWith makes every later Play call return err, mimicking a lost device.
func (p *StubPlayer) FailWith(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Play simulates playing buf by logging and sleeping.
func (p *StubPlayer) Play(buf sample.Buffer) error {
	p.mu.Lock()
	err := p.err
	if err == nil {
		p.played = append(p.played, buf)
	}
	p.mu.Unlock()
	if err != nil {
		return err
	}

	p.log.Debug().
		Int("samples", buf.Len()).
		Dur("duration", buf.Duration()).
		Msg("Simulating playing buffer")

	time.Sleep(buf.Duration())
	return nil
}

// Played returns a copy of every buffer played so far.
func (p *StubPlayer) Played() []sample.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]sample.Buffer, len(p.played))
	copy(out, p.played)
	return out
}

// Close cleans up the StubPlayer resources.
func (p *StubPlayer) Close() error {
	p.log.Debug().Msg("Closing StubPlayer")
	return nil
}

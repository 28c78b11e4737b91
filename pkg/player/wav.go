package player

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/aromabox/pintone/pkg/sample"
)

const wavFormatPCM = 1

// WAVPlayer renders buffers into a 16-bit mono WAV file instead of the
// speaker. Play does not block for the tone's duration.
type WAVPlayer struct {
	log        zerolog.Logger
	path       string
	sampleRate int

	mu      sync.Mutex
	file    *os.File
	enc     *wav.Encoder
	written int
	closed  bool
}

// NewWAVPlayer creates (or truncates) the file at path.
func NewWAVPlayer(path string, sampleRate int, log zerolog.Logger) (*WAVPlayer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav file: %w", err)
	}

	log.Debug().Str("path", path).Int("sample_rate", sampleRate).Msg("Writing tones to WAV file")

	return &WAVPlayer{
		log:        log.With().Str("player_type", "wav").Logger(),
		path:       path,
		sampleRate: sampleRate,
		file:       f,
		enc:        wav.NewEncoder(f, sampleRate, sample.BitDepthInBytes*8, sample.ChannelCount, wavFormatPCM),
	}, nil
}

// Play appends buf to the file.
func (p *WAVPlayer) Play(buf sample.Buffer) error {
	if buf.Empty() {
		return nil
	}
	if buf.SampleRate != p.sampleRate {
		return fmt.Errorf("%w: buffer is %d Hz, file is %d Hz", ErrSampleRateMismatch, buf.SampleRate, p.sampleRate)
	}
	return p.write(buf)
}

// Gap appends d of silence to the file.
func (p *WAVPlayer) Gap(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.write(sample.Silence(d, p.sampleRate))
}

func (p *WAVPlayer) write(buf sample.Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("wav player for '%s' is closed", p.path)
	}

	data := make([]int, buf.Len())
	for i, s := range buf.Samples {
		data[i] = int(s)
	}
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: sample.ChannelCount, SampleRate: p.sampleRate},
		Data:           data,
		SourceBitDepth: sample.BitDepthInBytes * 8,
	}
	if err := p.enc.Write(ib); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	p.written += buf.Len()

	p.log.Trace().Int("samples", buf.Len()).Int("total", p.written).Msg("Wrote samples")
	return nil
}

// Written returns the number of samples written so far.
func (p *WAVPlayer) Written() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// Close finalizes the WAV header and closes the file.
func (p *WAVPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.log.Debug().Str("path", p.path).Int("samples", p.written).Msg("Closing WAVPlayer")

	encErr := p.enc.Close()
	fileErr := p.file.Close()
	if encErr != nil {
		return fmt.Errorf("failed to finalize wav file: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close wav file: %w", fileErr)
	}
	return nil
}

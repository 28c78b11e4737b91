package sample

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultSampleRate is the number of samples per second
	DefaultSampleRate = 44100
	// ChannelCount represents mono audio
	ChannelCount = 1
	// BitDepthInBytes represents 16-bit audio
	BitDepthInBytes = 2
	// MaxAmplitude is the largest positive signed 16-bit sample value
	MaxAmplitude = math.MaxInt16
)

// Buffer holds one tone's waveform as mono signed 16-bit samples.
type Buffer struct {
	Samples    []int16
	SampleRate int
}

// Count returns the number of samples covering d at the given rate, rounded
// to the nearest sample.
func Count(d time.Duration, sampleRate int) int {
	return int(math.Round(float64(sampleRate) * float64(d) / float64(time.Second)))
}

// Silence returns a zero-valued buffer lasting d.
func Silence(d time.Duration, sampleRate int) Buffer {
	n := Count(d, sampleRate)
	if n < 0 {
		n = 0
	}
	return Buffer{Samples: make([]int16, n), SampleRate: sampleRate}
}

// Len returns the number of samples in the buffer.
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Empty reports whether the buffer has nothing to play.
func (b Buffer) Empty() bool {
	return len(b.Samples) == 0
}

// Duration returns the playback length of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Bytes encodes the samples as little-endian PCM.
func (b Buffer) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(len(b.Samples) * BitDepthInBytes)
	if err := binary.Write(buf, binary.LittleEndian, b.Samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

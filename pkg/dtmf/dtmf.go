// Package dtmf synthesizes dual-tone multi-frequency keypad tones.
package dtmf

import (
	"math"
	"time"

	"github.com/aromabox/pintone/pkg/sample"
)

const (
	// DefaultToneDuration is how long each keypad tone sounds
	DefaultToneDuration = 150 * time.Millisecond
	// DefaultGap is the silence between two tones
	DefaultGap = 100 * time.Millisecond
)

// Pair is the low-group and high-group frequency of one keypad symbol, in Hz.
type Pair struct {
	Low  float64
	High float64
}

var keypad = map[rune]Pair{
	'1': {697, 1209},
	'2': {697, 1336},
	'3': {697, 1477},
	'4': {770, 1209},
	'5': {770, 1336},
	'6': {770, 1477},
	'7': {852, 1209},
	'8': {852, 1336},
	'9': {852, 1477},
	'*': {941, 1209},
	'0': {941, 1336},
	'#': {941, 1477},
}

// Lookup returns the frequency pair for a keypad symbol.
func Lookup(symbol rune) (Pair, bool) {
	p, ok := keypad[symbol]
	return p, ok
}

// IsSymbol reports whether symbol is one of the twelve keypad keys.
func IsSymbol(symbol rune) bool {
	_, ok := keypad[symbol]
	return ok
}

// Symbols returns the keypad alphabet in keypad order.
func Symbols() []rune {
	return []rune{'1', '2', '3', '4', '5', '6', '7', '8', '9', '*', '0', '#'}
}

// Synthesize renders symbol as the sum of its two sinusoids. The sum is halved
// before scaling so the result always fits the signed 16-bit range. An unknown
// symbol yields an empty buffer and false.
func Synthesize(symbol rune, duration time.Duration, sampleRate int) (sample.Buffer, bool) {
	pair, ok := Lookup(symbol)
	if !ok || sampleRate <= 0 || duration <= 0 {
		return sample.Buffer{SampleRate: sampleRate}, ok
	}

	numSamples := sample.Count(duration, sampleRate)
	data := make([]int16, numSamples)

	lowOmega := 2 * math.Pi * pair.Low
	highOmega := 2 * math.Pi * pair.High
	rate := float64(sampleRate)

	for i := 0; i < numSamples; i++ {
		t := float64(i) / rate
		combined := (math.Sin(lowOmega*t) + math.Sin(highOmega*t)) / 2
		data[i] = int16(combined * sample.MaxAmplitude)
	}

	return sample.Buffer{Samples: data, SampleRate: sampleRate}, true
}

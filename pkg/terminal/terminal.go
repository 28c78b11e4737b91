package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	reverseVideo = "\x1b[7m"
	resetStyle   = "\x1b[0m"
	clearLine    = "\r\x1b[2K"
)

// Progress draws a PIN on a single line and highlights the symbol being sent.
type Progress struct {
	mu    sync.Mutex
	out   io.Writer
	pin   []rune
	color bool
}

// NewProgress creates a Progress writing to out. ANSI highlighting is used
// only when out is a terminal.
func NewProgress(out io.Writer, pin string) *Progress {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Progress{out: out, pin: []rune(pin), color: color}
}

// Render redraws the line with the symbol at index highlighted.
func (p *Progress) Render(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	if p.color {
		sb.WriteString(clearLine)
	}
	for i, r := range p.pin {
		switch {
		case i == index && p.color:
			sb.WriteString(reverseVideo)
			sb.WriteRune(r)
			sb.WriteString(resetStyle)
		case i == index:
			sb.WriteByte('[')
			sb.WriteRune(r)
			sb.WriteByte(']')
		default:
			sb.WriteRune(r)
		}
	}
	if !p.color {
		sb.WriteByte('\n')
	}

	if _, err := io.WriteString(p.out, sb.String()); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	return nil
}

// Done finishes the line.
func (p *Progress) Done() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.color {
		return nil
	}
	if _, err := io.WriteString(p.out, clearLine+string(p.pin)+"\n"); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	return nil
}

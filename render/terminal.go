// Package render draws playouts in a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"tetris/game"
)

var kindColors = map[game.Kind]string{
	game.I: "#00c8e0",
	game.O: "#e0c800",
	game.T: "#a000e0",
	game.S: "#00c000",
	game.Z: "#e00000",
	game.J: "#0040e0",
	game.L: "#e08000",
}

type Option func(*Terminal)

// WithDelay pauses after every frame so a replay can be watched.
func WithDelay(d time.Duration) Option {
	return func(t *Terminal) {
		if d > 0 {
			t.delay = d
		}
	}
}

// WithProfile forces a colour profile, termenv.Ascii disables colours.
func WithProfile(p termenv.Profile) Option {
	return func(t *Terminal) {
		t.output = termenv.NewOutput(t.w, termenv.WithProfile(p))
	}
}

// WithoutClear appends frames instead of redrawing in place.
func WithoutClear() Option {
	return func(t *Terminal) {
		t.clear = false
	}
}

// Terminal is a game.Renderer printing each snapshot to w.
type Terminal struct {
	w      io.Writer
	output *termenv.Output
	delay  time.Duration
	clear  bool
	frames int
}

func NewTerminal(w io.Writer, opts ...Option) *Terminal {
	t := &Terminal{w: w, output: termenv.NewOutput(w), clear: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) Render(s game.Snapshot) {
	if t.clear {
		t.output.ClearScreen()
	}
	fmt.Fprint(t.w, t.Frame(s))
	t.frames++
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
}

func (t *Terminal) Frames() int {
	return t.frames
}

// Frame draws the snapshot top-down inside walls, the last placed piece in
// its colour, followed by a status line.
func (t *Terminal) Frame(s game.Snapshot) string {
	active := make(map[game.Cell]bool, len(s.Active))
	for _, c := range s.Active {
		active[c] = true
	}
	piece := t.output.String("[]").Foreground(t.output.Color(kindColors[s.Kind]))
	stack := t.output.String("[]").Foreground(t.output.Color("#808080"))

	var sb strings.Builder
	for y := s.Height - 1; y >= 0; y-- {
		sb.WriteString("|")
		for x := 0; x < s.Width; x++ {
			switch {
			case active[game.Cell{X: x, Y: y}]:
				sb.WriteString(piece.String())
			case s.Cells[y][x]:
				sb.WriteString(stack.String())
			default:
				sb.WriteString(" .")
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("+" + strings.Repeat("--", s.Width) + "+\n")
	fmt.Fprintf(&sb, "step %d  piece %s  lines %d\n", s.Step, s.Kind, s.Lines)
	return sb.String()
}

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"tetris/game"
)

type Option func(*Playout)

// WithMaxSteps caps the number of pieces drawn. Values below one keep the default.
func WithMaxSteps(n int) Option {
	return func(p *Playout) {
		if n > 0 {
			p.maxSteps = n
		}
	}
}

func WithRenderer(r game.Renderer) Option {
	return func(p *Playout) {
		if r != nil {
			p.renderer = r
		}
	}
}

// Playout runs one game of a decider against a piece sequence on a fresh board.
type Playout struct {
	decider   Decider
	sequencer game.Sequencer
	width     int
	height    int
	maxSteps  int
	renderer  game.Renderer
	state     State
}

func NewPlayout(decider Decider, sequencer game.Sequencer, width, height int, opts ...Option) *Playout {
	p := &Playout{
		decider:   decider,
		sequencer: sequencer,
		width:     width,
		height:    height,
		maxSteps:  MaxSteps,
		renderer:  game.NopRenderer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Playout) State() State {
	return p.state
}

// Run plays until the agent has no legal placement, a placement tops out the
// board, or the step cap is reached. A topping out placement is not counted.
func (p *Playout) Run(ctx context.Context) (Result, error) {
	board, err := game.NewBoard(p.width, p.height)
	if err != nil {
		return Result{}, err
	}
	p.state = Running
	res := Result{Board: board}

	for res.Steps < p.maxSteps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		kind := p.sequencer.Next()
		res.Steps++

		placement, err := p.decider.Decide(board, kind)
		if errors.Is(err, game.ErrNoLegalPlacement) {
			p.state = GameOver
			break
		}
		if err != nil {
			return res, fmt.Errorf("step %d: %w", res.Steps, err)
		}

		next, cleared, err := board.Apply(kind, placement.Rotation, placement.Column)
		if err != nil {
			return res, fmt.Errorf("step %d: %w", res.Steps, err)
		}
		if next.IsTerminal() {
			p.state = GameOver
			break
		}

		board = next
		res.Board = board
		res.Pieces++
		res.Lines += cleared
		for _, h := range board.ColumnHeights() {
			res.MaxHeight = max(res.MaxHeight, h)
		}

		snap := board.Snapshot()
		if cleared == 0 {
			snap.Active = placement.Cells()
		}
		snap.Kind = kind
		snap.Step = res.Steps
		snap.Lines = res.Lines
		p.renderer.Render(snap)
	}

	res.GameOver = p.state == GameOver
	res.Capped = !res.GameOver
	log.Debug().Msgf("playout finished after %d steps: %d pieces, %d lines, %s", res.Steps, res.Pieces, res.Lines, p.state)
	return res, nil
}

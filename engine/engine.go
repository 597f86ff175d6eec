package engine

import (
	"context"

	"tetris/game"
)

// MaxSteps is the default cap on pieces drawn per playout.
const MaxSteps = 10000

type Engine interface {
	// Run plays a single game until it is over, the step cap is reached or ctx
	// is cancelled.
	Run(ctx context.Context) (Result, error)
}

// Decider picks where the next piece goes. *agent.Agent is the in-process
// implementation, Remote asks an agent server.
type Decider interface {
	Decide(b *game.Board, kind game.Kind) (game.Placement, error)
}

type State int

const (
	Running State = iota
	GameOver
)

func (s State) String() string {
	if s == GameOver {
		return "game over"
	}
	return "running"
}

// Result summarises one playout.
type Result struct {
	Pieces    int // Pieces locked into the board
	Lines     int
	Steps     int // Pieces drawn from the sequencer, including the last one that did not fit
	MaxHeight int
	Capped    bool // Stopped by the step cap rather than by game over
	GameOver  bool
	Board     *game.Board
}

package game

// Snapshot is a read-only copy of a board, optionally with the piece that was
// just placed, handed to renderers after each playout step.
type Snapshot struct {
	Width  int
	Height int
	Cells  [][]bool // Cells[row][col], row 0 at the bottom, playfield rows only
	Active []Cell   // Cells of the placed piece, nil when rendering a bare board
	Kind   Kind
	Step   int
	Lines  int
}

// Renderer consumes board snapshots. The engine runs identically whether or
// not a renderer is attached.
type Renderer interface {
	Render(Snapshot)
}

type nopRenderer struct{}

func (nopRenderer) Render(Snapshot) {}

// NopRenderer discards every snapshot.
var NopRenderer Renderer = nopRenderer{}

// Snapshot copies the playfield rows of b.
func (b *Board) Snapshot() Snapshot {
	cells := make([][]bool, b.height)
	for y := range cells {
		cells[y] = make([]bool, b.width)
		for x := range cells[y] {
			cells[y][x] = b.Occupied(y, x)
		}
	}
	return Snapshot{Width: b.width, Height: b.height, Cells: cells}
}

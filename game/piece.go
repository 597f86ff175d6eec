package game

import (
	"fmt"
	"strings"
)

// Kind identifies one of the seven tetrominoes.
type Kind uint8

const (
	I Kind = iota
	O
	T
	S
	Z
	J
	L
)

const NumKinds = 7

// NumRotations is the number of rotation states of every piece, including
// states that repeat an earlier shape.
const NumRotations = 4

const pieceCells = 4

var kindNames = [NumKinds]string{"I", "O", "T", "S", "Z", "J", "L"}

func (k Kind) String() string {
	if int(k) >= NumKinds {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kindNames[k]
}

// ParseKind converts a piece letter (case-insensitive) to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown piece %q", s)
}

// Cell is an offset from the bottom-left corner of a shape's bounding box.
type Cell struct {
	X, Y int
}

// Shape is one rotation state of a piece.
type Shape struct {
	Cells  [pieceCells]Cell
	Width  int
	Height int
	rows   [pieceCells]uint64 // Occupied columns per shape row, bottom row first
}

// Piece holds the precomputed rotation states of a kind. Pieces are shared
// read-only by every board and playout.
type Piece struct {
	Kind      Kind
	rotations [NumRotations]Shape
	distinct  []int
}

// Rotation returns the shape of rotation state r (0-3).
func (p *Piece) Rotation(r int) Shape {
	return p.rotations[r]
}

// DistinctRotations returns the lowest rotation index of every distinct
// occupied-cell set, in increasing order.
func (p *Piece) DistinctRotations() []int {
	return p.distinct
}

// Spawn shapes, y pointing up
var spawnCells = [NumKinds][pieceCells]Cell{
	I: {{0, 0}, {1, 0}, {2, 0}, {3, 0}},
	O: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	T: {{0, 0}, {1, 0}, {2, 0}, {1, 1}},
	S: {{0, 0}, {1, 0}, {1, 1}, {2, 1}},
	Z: {{1, 0}, {2, 0}, {0, 1}, {1, 1}},
	J: {{0, 0}, {1, 0}, {2, 0}, {0, 1}},
	L: {{0, 0}, {1, 0}, {2, 0}, {2, 1}},
}

var pieces = buildPieces()

// PieceOf returns the shared rotation table of kind k.
func PieceOf(k Kind) *Piece {
	return &pieces[k]
}

func buildPieces() [NumKinds]Piece {
	var table [NumKinds]Piece
	for k := 0; k < NumKinds; k++ {
		p := Piece{Kind: Kind(k)}
		cells := spawnCells[k]
		for r := 0; r < NumRotations; r++ {
			p.rotations[r] = newShape(cells)
			cells = rotateClockwise(cells)
		}
		for r := 0; r < NumRotations; r++ {
			duplicate := false
			for _, seen := range p.distinct {
				if p.rotations[seen].rows == p.rotations[r].rows {
					duplicate = true
					break
				}
			}
			if !duplicate {
				p.distinct = append(p.distinct, r)
			}
		}
		table[k] = p
	}
	return table
}

// rotateClockwise maps (x, y) to (y, -x) and moves the result back to a
// bottom-left origin.
func rotateClockwise(cells [pieceCells]Cell) [pieceCells]Cell {
	var out [pieceCells]Cell
	for i, c := range cells {
		out[i] = Cell{X: c.Y, Y: -c.X}
	}
	return normalize(out)
}

func normalize(cells [pieceCells]Cell) [pieceCells]Cell {
	minX, minY := cells[0].X, cells[0].Y
	for _, c := range cells[1:] {
		minX = min(minX, c.X)
		minY = min(minY, c.Y)
	}
	for i := range cells {
		cells[i].X -= minX
		cells[i].Y -= minY
	}
	return cells
}

func newShape(cells [pieceCells]Cell) Shape {
	s := Shape{Cells: cells}
	for _, c := range cells {
		s.Width = max(s.Width, c.X+1)
		s.Height = max(s.Height, c.Y+1)
		s.rows[c.Y] |= 1 << uint(c.X)
	}
	return s
}

// rowMask returns the occupied columns of shape row y shifted to column col.
func (s Shape) rowMask(y, col int) uint64 {
	return s.rows[y] << uint(col)
}

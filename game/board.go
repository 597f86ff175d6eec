package game

import (
	"fmt"
	"math/bits"
	"strings"
)

// SpawnRows is the number of hidden rows above the playfield. Pieces spawn
// inside this band; a board holding any cell in it is terminal.
const SpawnRows = 4

const (
	MinWidth  = 4
	MaxWidth  = 64
	MinHeight = 4
)

// Board is a grid of occupied cells. Row 0 is the bottom row, bit c of a row
// is column c counted from the left wall.
type Board struct {
	width  int
	height int
	full   uint64   // Mask of a completely filled row
	rows   []uint64 // height playable rows followed by SpawnRows hidden rows
}

// NewBoard creates an empty board with the given playfield dimensions.
func NewBoard(width, height int) (*Board, error) {
	if width < MinWidth || width > MaxWidth || height < MinHeight {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	full := ^uint64(0)
	if width < 64 {
		full = 1<<uint(width) - 1
	}
	return &Board{
		width:  width,
		height: height,
		full:   full,
		rows:   make([]uint64, height+SpawnRows),
	}, nil
}

// ParseBoard builds a board from rows written top-down, '#' for filled and
// '.' for empty cells. Fewer rows than height fill the bottom of the board.
func ParseBoard(width, height int, rows ...string) (*Board, error) {
	b, err := NewBoard(width, height)
	if err != nil {
		return nil, err
	}
	if len(rows) > height {
		return nil, fmt.Errorf("%w: %d rows for height %d", ErrInvalidDimensions, len(rows), height)
	}
	for i, line := range rows {
		if len(line) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidDimensions, i, len(line), width)
		}
		y := len(rows) - 1 - i
		for x, ch := range line {
			switch ch {
			case '#':
				b.rows[y] |= 1 << uint(x)
			case '.':
			default:
				return nil, fmt.Errorf("invalid cell %q in row %d", ch, i)
			}
		}
	}
	return b, nil
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// Occupied reports whether the cell at (row, col) is filled. Cells outside the
// board, including the spawn band sides, count as empty.
func (b *Board) Occupied(row, col int) bool {
	if row < 0 || row >= len(b.rows) || col < 0 || col >= b.width {
		return false
	}
	return b.rows[row]>>uint(col)&1 != 0
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	c.rows = make([]uint64, len(b.rows))
	copy(c.rows, b.rows)
	return &c
}

// Equal reports whether both boards have the same dimensions and cells.
func (b *Board) Equal(other *Board) bool {
	if b.width != other.width || b.height != other.height {
		return false
	}
	for i := range b.rows {
		if b.rows[i] != other.rows[i] {
			return false
		}
	}
	return true
}

// IsTerminal reports whether any cell is occupied in the spawn band.
func (b *Board) IsTerminal() bool {
	for _, row := range b.rows[b.height:] {
		if row != 0 {
			return true
		}
	}
	return false
}

// ColumnHeights returns, per column, the index of its highest filled row plus
// one (0 for an empty column).
func (b *Board) ColumnHeights() []int {
	heights := make([]int, b.width)
	remaining := b.full
	for y := len(b.rows) - 1; y >= 0 && remaining != 0; y-- {
		hit := b.rows[y] & remaining
		for hit != 0 {
			col := bits.TrailingZeros64(hit)
			heights[col] = y + 1
			hit &^= 1 << uint(col)
		}
		remaining &^= b.rows[y]
	}
	return heights
}

// FilledCells counts occupied cells.
func (b *Board) FilledCells() int {
	var n int
	for _, row := range b.rows {
		n += bits.OnesCount64(row)
	}
	return n
}

func (b *Board) spawnRow(s Shape) int {
	return len(b.rows) - s.Height
}

func (b *Board) fits(s Shape, row, col int) bool {
	if row < 0 || row+s.Height > len(b.rows) {
		return false
	}
	for y := 0; y < s.Height; y++ {
		if b.rows[row+y]&s.rowMask(y, col) != 0 {
			return false
		}
	}
	return true
}

// drop returns the landing row of shape s hard-dropped at column col, or false
// if it sticks out of the width or overlaps at spawn.
func (b *Board) drop(s Shape, col int) (int, bool) {
	if col < 0 || col+s.Width > b.width {
		return 0, false
	}
	row := b.spawnRow(s)
	if !b.fits(s, row, col) {
		return 0, false
	}
	for row > 0 && b.fits(s, row-1, col) {
		row--
	}
	return row, true
}

// Apply returns a copy of the board with the piece dropped and locked, and
// the number of lines cleared. The receiver is never modified.
func (b *Board) Apply(kind Kind, rotation, column int) (*Board, int, error) {
	next := b.Clone()
	cleared, err := next.Place(kind, rotation, column)
	if err != nil {
		return nil, 0, err
	}
	return next, cleared, nil
}

// Place drops the piece into the board in place and clears completed lines.
// On error the board is left untouched.
func (b *Board) Place(kind Kind, rotation, column int) (int, error) {
	if int(kind) >= NumKinds || rotation < 0 || rotation >= NumRotations {
		return 0, &IllegalPlacement{Kind: kind, Rotation: rotation, Column: column}
	}
	s := PieceOf(kind).Rotation(rotation)
	row, ok := b.drop(s, column)
	if !ok {
		return 0, &IllegalPlacement{Kind: kind, Rotation: rotation, Column: column}
	}
	b.lock(s, row, column)
	return b.clearLines(), nil
}

func (b *Board) lock(s Shape, row, col int) {
	for y := 0; y < s.Height; y++ {
		b.rows[row+y] |= s.rowMask(y, col)
	}
}

// clearLines removes every full row at once, shifting the rows above down.
func (b *Board) clearLines() int {
	dst := 0
	for src := 0; src < len(b.rows); src++ {
		if b.rows[src] == b.full {
			continue
		}
		b.rows[dst] = b.rows[src]
		dst++
	}
	lines := len(b.rows) - dst
	for ; dst < len(b.rows); dst++ {
		b.rows[dst] = 0
	}
	return lines
}

// String renders the playfield top-down with the spawn band above a divider.
func (b *Board) String() string {
	var sb strings.Builder
	for y := len(b.rows) - 1; y >= 0; y-- {
		for x := 0; x < b.width; x++ {
			if b.Occupied(y, x) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
		if y == b.height {
			sb.WriteString(strings.Repeat("-", b.width))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

package game

// Placement is a candidate final resting position of a piece. Features and
// Score are filled in by whoever evaluates the candidate.
type Placement struct {
	Kind     Kind
	Rotation int
	Column   int // Leftmost column of the piece's bounding box
	Row      int // Bottom row of the piece's bounding box after the drop
	Cleared  int
	Features []float64
	Score    float64
}

// EnumeratePlacements returns every legal resting placement of kind on b:
// each distinct rotation in increasing index, each column from left to right,
// hard-dropped to the lowest valid row. The order is the tie-break order used
// by agents.
func EnumeratePlacements(b *Board, kind Kind) []Placement {
	p := PieceOf(kind)
	placements := make([]Placement, 0, len(p.DistinctRotations())*b.width)
	for _, r := range p.DistinctRotations() {
		s := p.Rotation(r)
		for col := 0; col+s.Width <= b.width; col++ {
			row, ok := b.drop(s, col)
			if !ok {
				continue
			}
			placements = append(placements, Placement{
				Kind:     kind,
				Rotation: r,
				Column:   col,
				Row:      row,
			})
		}
	}
	return placements
}

// Cells returns the board cells (row, column) the placement occupies before
// line clears.
func (p Placement) Cells() []Cell {
	s := PieceOf(p.Kind).Rotation(p.Rotation)
	cells := make([]Cell, 0, pieceCells)
	for _, c := range s.Cells {
		cells = append(cells, Cell{X: p.Column + c.X, Y: p.Row + c.Y})
	}
	return cells
}

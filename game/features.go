package game

import "math/bits"

// Feature is a named scalar summary of a board after a placement. cleared is
// the number of lines the placement that produced b removed.
type Feature struct {
	Name string
	Fn   func(b *Board, cleared int) float64
}

// FeatureSet is a fixed, versioned, ordered list of features. A genome trained
// against one version is only meaningful against that same version.
type FeatureSet struct {
	Version  string
	Features []Feature
}

// FeaturesV1 is the feature set used by default.
var FeaturesV1 = FeatureSet{
	Version: "v1",
	Features: []Feature{
		{Name: "aggregate_height", Fn: aggregateHeight},
		{Name: "max_height", Fn: maxHeight},
		{Name: "holes", Fn: holes},
		{Name: "bumpiness", Fn: bumpiness},
		{Name: "lines_cleared", Fn: linesCleared},
		{Name: "max_well_depth", Fn: maxWellDepth},
		{Name: "row_transitions", Fn: rowTransitions},
		{Name: "height_spread", Fn: heightSpread},
		{Name: "topped_out", Fn: toppedOut},
	},
}

// Len is the dimensionality of the feature vector, and so of every genome
// scored against this set.
func (fs FeatureSet) Len() int {
	return len(fs.Features)
}

func (fs FeatureSet) Names() []string {
	names := make([]string, len(fs.Features))
	for i, f := range fs.Features {
		names[i] = f.Name
	}
	return names
}

// Extract evaluates every feature on b, in order.
func (fs FeatureSet) Extract(b *Board, cleared int) []float64 {
	out := make([]float64, len(fs.Features))
	fs.ExtractInto(out, b, cleared)
	return out
}

// ExtractInto writes the feature vector into dst, which must have Len() slots.
func (fs FeatureSet) ExtractInto(dst []float64, b *Board, cleared int) {
	for i, f := range fs.Features {
		dst[i] = f.Fn(b, cleared)
	}
}

func aggregateHeight(b *Board, _ int) float64 {
	var sum int
	for _, h := range b.ColumnHeights() {
		sum += h
	}
	return float64(sum)
}

func maxHeight(b *Board, _ int) float64 {
	var top int
	for _, h := range b.ColumnHeights() {
		top = max(top, h)
	}
	return float64(top)
}

// holes counts empty cells with a filled cell anywhere above them in the same
// column.
func holes(b *Board, _ int) float64 {
	var n int
	var covered uint64
	for y := len(b.rows) - 1; y >= 0; y-- {
		n += bits.OnesCount64(covered &^ b.rows[y])
		covered |= b.rows[y]
	}
	return float64(n)
}

// bumpiness sums absolute height differences of neighbouring columns.
func bumpiness(b *Board, _ int) float64 {
	heights := b.ColumnHeights()
	var sum int
	for i := 0; i+1 < len(heights); i++ {
		sum += abs(heights[i] - heights[i+1])
	}
	return float64(sum)
}

func linesCleared(_ *Board, cleared int) float64 {
	return float64(cleared)
}

// maxWellDepth is the deepest column measured against its lower neighbour.
// Walls count as infinitely high.
func maxWellDepth(b *Board, _ int) float64 {
	heights := b.ColumnHeights()
	var deepest int
	for i, h := range heights {
		var depth int
		switch {
		case len(heights) == 1:
			continue
		case i == 0:
			depth = heights[1] - h
		case i == len(heights)-1:
			depth = heights[i-1] - h
		default:
			depth = min(heights[i-1], heights[i+1]) - h
		}
		deepest = max(deepest, depth)
	}
	return float64(deepest)
}

// rowTransitions counts filled/empty changes along each row up to the highest
// filled row, with both walls counted as filled.
func rowTransitions(b *Board, _ int) float64 {
	top := int(maxHeight(b, 0))
	if b.width >= 63 {
		return rowTransitionsWide(b, top)
	}
	walled := b.full<<1 | 1 | 1<<uint(b.width+1)
	var sum int
	for y := 0; y < top; y++ {
		row := b.rows[y]<<1 | 1 | 1<<uint(b.width+1)
		sum += bits.OnesCount64((row ^ row>>1) & (walled >> 1))
	}
	return float64(sum)
}

// rowTransitionsWide is the cell-by-cell fallback for boards too wide to pad
// with wall bits.
func rowTransitionsWide(b *Board, top int) float64 {
	var sum int
	for y := 0; y < top; y++ {
		prev := true
		for x := 0; x < b.width; x++ {
			cur := b.Occupied(y, x)
			if cur != prev {
				sum++
			}
			prev = cur
		}
		if !prev {
			sum++
		}
	}
	return float64(sum)
}

func heightSpread(b *Board, _ int) float64 {
	heights := b.ColumnHeights()
	lo, hi := heights[0], heights[0]
	for _, h := range heights[1:] {
		lo = min(lo, h)
		hi = max(hi, h)
	}
	return float64(hi - lo)
}

func toppedOut(b *Board, _ int) float64 {
	if b.IsTerminal() {
		return 1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

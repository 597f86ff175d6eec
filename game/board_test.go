package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustBoard(t *testing.T, width, height int, rows ...string) *Board {
	t.Helper()
	b, err := ParseBoard(width, height, rows...)
	require.NoError(t, err)
	return b
}

func TestNewBoard(t *testing.T) {
	t.Run("creating an empty standard board", func(t *testing.T) {
		b, err := NewBoard(10, 20)

		require.NoError(t, err)
		require.Equal(t, 10, b.Width())
		require.Equal(t, 20, b.Height())
		require.Equal(t, 0, b.FilledCells(), "New board should be empty")
		require.False(t, b.IsTerminal(), "Empty board should not be terminal")
	})

	t.Run("rejecting invalid dimensions", func(t *testing.T) {
		for _, dims := range [][2]int{{3, 20}, {65, 20}, {10, 3}, {0, 0}} {
			_, err := NewBoard(dims[0], dims[1])
			require.ErrorIs(t, err, ErrInvalidDimensions, "Should reject %dx%d", dims[0], dims[1])
		}
	})

	t.Run("supporting the widest board", func(t *testing.T) {
		b, err := NewBoard(64, 10)
		require.NoError(t, err)

		row := make([]byte, 64)
		for i := range row {
			row[i] = '#'
		}
		row[63] = '.'
		b, err = ParseBoard(64, 10, string(row))
		require.NoError(t, err)

		cleared, err := b.Place(I, 1, 63)
		require.NoError(t, err)
		require.Equal(t, 1, cleared, "Filling the last column should clear the row")
	})
}

func TestParseBoard(t *testing.T) {
	t.Run("reading rows top-down", func(t *testing.T) {
		b := mustBoard(t, 4, 4,
			"#...",
			"..##",
		)

		require.True(t, b.Occupied(1, 0))
		require.True(t, b.Occupied(0, 2))
		require.True(t, b.Occupied(0, 3))
		require.False(t, b.Occupied(0, 0))
		require.Equal(t, []int{2, 0, 1, 1}, b.ColumnHeights())
	})

	t.Run("rejecting malformed rows", func(t *testing.T) {
		_, err := ParseBoard(4, 4, "###")
		require.ErrorIs(t, err, ErrInvalidDimensions)

		_, err = ParseBoard(4, 4, "#x..")
		require.Error(t, err)

		_, err = ParseBoard(4, 4, "....", "....", "....", "....", "....")
		require.ErrorIs(t, err, ErrInvalidDimensions)
	})
}

func TestBoardApply(t *testing.T) {
	t.Run("dropping a piece onto the floor", func(t *testing.T) {
		b, _ := NewBoard(10, 20)

		next, cleared, err := b.Apply(T, 0, 3)

		require.NoError(t, err)
		require.Equal(t, 0, cleared)
		require.True(t, next.Occupied(0, 3))
		require.True(t, next.Occupied(0, 4))
		require.True(t, next.Occupied(0, 5))
		require.True(t, next.Occupied(1, 4))
		require.Equal(t, 4, next.FilledCells())
		require.Equal(t, 0, b.FilledCells(), "Apply should not modify the receiver")
	})

	t.Run("resting on top of the stack", func(t *testing.T) {
		b := mustBoard(t, 10, 20,
			"..#.......",
			"..#.......",
		)

		next, _, err := b.Apply(O, 0, 1)

		require.NoError(t, err)
		require.True(t, next.Occupied(2, 1), "O should land above the column of height 2")
		require.True(t, next.Occupied(3, 2))
		require.False(t, next.Occupied(0, 1), "Cells under the overhang stay empty")
	})

	t.Run("clearing a single full row", func(t *testing.T) {
		b := mustBoard(t, 10, 20,
			"#.........",
			"#########.",
		)

		next, cleared, err := b.Apply(I, 1, 9)

		require.NoError(t, err)
		require.Equal(t, 1, cleared, "Filling row 0 should clear exactly one line")
		require.True(t, next.Occupied(0, 0), "Row 1 should shift down to row 0")
		require.True(t, next.Occupied(0, 9))
		require.True(t, next.Occupied(1, 9))
		require.True(t, next.Occupied(2, 9))
		require.False(t, next.Occupied(3, 9), "Cleared cell should not reappear")
		require.False(t, next.Occupied(1, 0))
		require.Equal(t, 4, next.FilledCells())
	})

	t.Run("clearing rows that are not adjacent", func(t *testing.T) {
		b := mustBoard(t, 10, 20,
			"#########.",
			"#.........",
			"#########.",
		)

		next, cleared, err := b.Apply(I, 1, 9)

		require.NoError(t, err)
		require.Equal(t, 2, cleared)
		require.Equal(t, []int{1, 0, 0, 0, 0, 0, 0, 0, 0, 2}, next.ColumnHeights())
		require.True(t, next.Occupied(0, 0), "Middle row should shift down by two")
		require.True(t, next.Occupied(0, 9))
		require.True(t, next.Occupied(1, 9))
	})

	t.Run("refusing placements outside the board", func(t *testing.T) {
		b := mustBoard(t, 10, 20, "#.........")
		before := b.Clone()

		for _, tc := range []struct {
			rotation, column int
		}{{0, 7}, {0, -1}, {1, 10}, {4, 0}, {-1, 0}} {
			_, _, err := b.Apply(I, tc.rotation, tc.column)

			require.ErrorIs(t, err, ErrIllegalPlacement, "rotation %d column %d", tc.rotation, tc.column)
			var illegal *IllegalPlacement
			require.True(t, errors.As(err, &illegal))
			require.Equal(t, tc.column, illegal.Column)
		}
		require.True(t, before.Equal(b), "Board should be unchanged after refused placements")
	})

	t.Run("refusing a piece that overlaps at spawn", func(t *testing.T) {
		b, _ := NewBoard(10, 20)
		for i := 0; i < 6; i++ {
			_, err := b.Place(I, 1, 0)
			require.NoError(t, err)
		}
		require.True(t, b.IsTerminal(), "A column reaching into the spawn band is terminal")
		before := b.Clone()

		_, err := b.Place(I, 1, 0)

		require.ErrorIs(t, err, ErrIllegalPlacement)
		require.True(t, before.Equal(b))
	})
}

func TestBoardIsTerminal(t *testing.T) {
	t.Run("stack below the spawn band", func(t *testing.T) {
		b, _ := NewBoard(10, 4)
		_, err := b.Place(I, 1, 0)
		require.NoError(t, err)
		require.Equal(t, 4, b.ColumnHeights()[0])
		require.False(t, b.IsTerminal(), "Filling the top playable row is not terminal")
	})

	t.Run("stack reaching the spawn band", func(t *testing.T) {
		b, _ := NewBoard(10, 4)
		_, _ = b.Place(I, 1, 0)
		_, err := b.Place(O, 0, 0)
		require.NoError(t, err)
		require.True(t, b.IsTerminal())
	})
}

func TestBoardString(t *testing.T) {
	b := mustBoard(t, 4, 4, "#..#")

	s := b.String()

	require.Contains(t, s, "----\n")
	require.Contains(t, s, "#..#\n")
}

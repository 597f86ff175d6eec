package agent

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	t.Run("round trip is exact", func(t *testing.T) {
		g := Genome{0.1, -0.7071067811865476, math.Copysign(0, -1), 1e-300, math.MaxFloat64, math.SmallestNonzeroFloat64, 42}

		decoded, err := Decode(Encode(g))

		require.NoError(t, err)
		require.True(t, g.Equal(decoded), "Decoded genome %v should equal %v", decoded, g)
	})

	t.Run("rejecting malformed weights", func(t *testing.T) {
		_, err := Decode("1,abc,3")
		require.Error(t, err)
	})

	t.Run("text marshalling inside other documents", func(t *testing.T) {
		doc := struct {
			Genome Genome `json:"genome"`
		}{Genome: Genome{1.5, -2}}

		data, err := json.Marshal(doc)
		require.NoError(t, err)
		require.JSONEq(t, `{"genome": "1.5,-2"}`, string(data))

		doc.Genome = nil
		require.NoError(t, json.Unmarshal(data, &doc))
		require.True(t, Genome{1.5, -2}.Equal(doc.Genome))
	})
}

func TestGenomeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	g := Genome{-0.51, 0.76, -0.36, -0.18}

	require.NoError(t, SaveGenome(path, g, "v1", nil))

	t.Run("loading the saved genome", func(t *testing.T) {
		loaded, err := LoadGenome(path, "v1")
		require.NoError(t, err)
		require.True(t, g.Equal(loaded))
	})

	t.Run("refusing a different feature set", func(t *testing.T) {
		_, err := LoadGenome(path, "v2")
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGenome(filepath.Join(t.TempDir(), "nope.json"), "v1")
		require.Error(t, err)
	})
}

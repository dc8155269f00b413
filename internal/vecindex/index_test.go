package vecindex

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVectors() [][]float32 {
	return [][]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 2, 0},
		{3, 3, 3},
	}
}

func TestBuild(t *testing.T) {
	t.Run("fixes dimension from first vector", func(t *testing.T) {
		idx, err := Build(testVectors())
		require.NoError(t, err)
		assert.Equal(t, 3, idx.Dim())
		assert.Equal(t, 4, idx.Len())
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := Build(nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("rejects mismatched dimensions", func(t *testing.T) {
		_, err := Build([][]float32{{1, 2, 3}, {1, 2}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("rejects empty first vector", func(t *testing.T) {
		_, err := Build([][]float32{{}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestSearch(t *testing.T) {
	idx, err := Build(testVectors())
	require.NoError(t, err)

	t.Run("returns stored vector first with zero distance", func(t *testing.T) {
		results, err := idx.Search([]float32{0, 2, 0}, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, 2, results[0].Pos)
		assert.InDelta(t, 0, results[0].Distance, 1e-6)
	})

	t.Run("orders by non-decreasing distance", func(t *testing.T) {
		results, err := idx.Search([]float32{0.4, 0.1, 0}, 4)
		require.NoError(t, err)
		require.Len(t, results, 4)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance)
		}
	})

	t.Run("pads with sentinel when k exceeds rows", func(t *testing.T) {
		results, err := idx.Search([]float32{0, 0, 0}, 7)
		require.NoError(t, err)
		require.Len(t, results, 7)
		for _, r := range results[:4] {
			assert.NotEqual(t, SentinelPos, r.Pos)
		}
		for _, r := range results[4:] {
			assert.Equal(t, SentinelPos, r.Pos)
		}
	})

	t.Run("rejects query of wrong dimension", func(t *testing.T) {
		_, err := idx.Search([]float32{1, 2}, 3)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("returns nothing for non-positive k", func(t *testing.T) {
		results, err := idx.Search([]float32{0, 0, 0}, 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestEncodeDecode(t *testing.T) {
	t.Run("round trips size, dimension, and search behavior", func(t *testing.T) {
		idx, err := Build(testVectors())
		require.NoError(t, err)

		decoded, err := Decode(idx.Encode())
		require.NoError(t, err)
		assert.Equal(t, idx.Len(), decoded.Len())
		assert.Equal(t, idx.Dim(), decoded.Dim())

		want, err := idx.Search([]float32{1, 1, 1}, 4)
		require.NoError(t, err)
		got, err := decoded.Search([]float32{1, 1, 1}, 4)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("rejects foreign blobs", func(t *testing.T) {
		_, err := Decode([]byte("definitely not an index"))
		assert.Error(t, err)
	})

	t.Run("rejects truncated blobs", func(t *testing.T) {
		idx, err := Build(testVectors())
		require.NoError(t, err)
		blob := idx.Encode()
		_, err = Decode(blob[:len(blob)-5])
		assert.Error(t, err)
	})

	t.Run("rejects a header whose size product overflows", func(t *testing.T) {
		// dim*count wraps to zero in 64-bit int, so a naive size check
		// would accept this 12-byte blob.
		blob := make([]byte, 12)
		copy(blob[0:4], "FLAT")
		binary.LittleEndian.PutUint32(blob[4:8], 1<<31)
		binary.LittleEndian.PutUint32(blob[8:12], 1<<31)
		_, err := Decode(blob)
		assert.Error(t, err)
	})
}

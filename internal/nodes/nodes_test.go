package nodes

import (
	"path/filepath"
	"testing"

	"github.com/KyungWonPark/Hyperalignment/internal/io"
	"github.com/kshedden/gonpy"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMasks() *Masks {
	return &Masks{
		L: []bool{true, false, true, true, false, true},
		R: []bool{false, true, true, false, true, true},
	}
}

func TestIndices(t *testing.T) {
	m := testMasks()

	l, err := m.Indices("l", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, l)

	r, err := m.Indices("r", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, r)

	// clamped to the mask length
	l, err = m.Indices("l", 100)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 5}, l)

	both, err := m.Indices("b", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 7, 8}, both)

	_, err = m.Indices("x", 4)
	assert.Equal(t, ErrUnknownHemisphere, errors.Cause(err))
}

func TestCombined(t *testing.T) {
	m := testMasks()
	assert.Equal(t, 6, m.TotalNodes())

	idx, err := m.Combined(4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 7, 8}, idx)
	for i := 1; i < len(idx); i++ {
		assert.True(t, idx[i] > idx[i-1])
	}

	pair, err := m.Pair(4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, pair.L)
	assert.Equal(t, []int{7, 8}, pair.R)
}

func TestLoadMasks(t *testing.T) {
	dir := t.TempDir()
	lpath := filepath.Join(dir, "lh.npy")
	rpath := filepath.Join(dir, "rh.npy")
	require.NoError(t, io.IntstoNpy(lpath, []int{1, 0, 1}))
	require.NoError(t, io.IntstoNpy(rpath, []int{0, 0, 2}))

	m, err := LoadMasks(lpath, rpath)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, m.L)
	assert.Equal(t, []bool{false, false, true}, m.R)

	_, err = LoadMasks(lpath, filepath.Join(dir, "missing.npy"))
	assert.Error(t, err)
}

func TestLoadFloatMasks(t *testing.T) {
	dir := t.TempDir()
	lpath := filepath.Join(dir, "lh.npy")
	rpath := filepath.Join(dir, "rh.npy")

	for path, values := range map[string][]float64{
		lpath: {0.5, 0, 1},
		rpath: {0, -0.25, 0},
	} {
		w, err := gonpy.NewFileWriter(path)
		require.NoError(t, err)
		w.Shape = []int{len(values)}
		require.NoError(t, w.WriteFloat64(values))
	}

	m, err := LoadMasks(lpath, rpath)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, m.L)
	assert.Equal(t, []bool{false, true, false}, m.R)
}

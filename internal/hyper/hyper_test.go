package hyper

import (
	"io/ioutil"
	"math"
	"math/rand"
	"os"
	"testing"

	"github.com/KyungWonPark/Hyperalignment/internal/dataset"
	"github.com/KyungWonPark/Hyperalignment/internal/sparse"
	"github.com/KyungWonPark/Hyperalignment/internal/surf"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func random(rows, cols int, seed int64) *mat64.Dense {
	rnd := rand.New(rand.NewSource(seed))
	m := mat64.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, rnd.NormFloat64())
		}
	}
	return m
}

func rotation(theta float64) *mat64.Dense {
	c, s := math.Cos(theta), math.Sin(theta)
	return mat64.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func TestProcrustes(t *testing.T) {
	src := random(20, 3, 1)
	rot := rotation(0.7)

	var dst mat64.Dense
	dst.Mul(src, rot)

	proj, err := Procrustes(src, &dst, false)
	require.NoError(t, err)
	assert.True(t, mat64.EqualApprox(rot, proj, 1e-9))

	// scaled target
	dst.Scale(2, &dst)
	proj, err = Procrustes(src, &dst, true)
	require.NoError(t, err)

	var want mat64.Dense
	want.Scale(2, rot)
	assert.True(t, mat64.EqualApprox(&want, proj, 1e-9))

	_, err = Procrustes(src, random(5, 3, 2), false)
	assert.Error(t, err)
}

func TestHyperalign(t *testing.T) {
	base := random(40, 3, 3)
	zscore(base)

	data := make([]*mat64.Dense, 3)
	for i, theta := range []float64{0, 0.4, -1.1} {
		data[i] = &mat64.Dense{}
		data[i].Mul(base, rotation(theta))
	}

	projs, err := Hyperalign(data, Options{Level2Iter: 2})
	require.NoError(t, err)
	require.Len(t, projs, 3)

	// every subject lands on the same common space
	aligned := make([]*mat64.Dense, 3)
	for i := range data {
		aligned[i] = &mat64.Dense{}
		aligned[i].Mul(data[i], projs[i])
	}
	assert.True(t, mat64.EqualApprox(aligned[0], aligned[1], 1e-8))
	assert.True(t, mat64.EqualApprox(aligned[0], aligned[2], 1e-8))

	_, err = Hyperalign(data[:1], Options{})
	assert.Error(t, err)
	_, err = Hyperalign([]*mat64.Dense{data[0], random(40, 2, 4)}, Options{})
	assert.Error(t, err)
}

func TestZScore(t *testing.T) {
	m := mat64.NewDense(3, 2, []float64{1, 5, 2, 5, 3, 5})
	zscore(m)

	assert.InDelta(t, -math.Sqrt(1.5), m.At(0, 0), 1e-12)
	assert.InDelta(t, 0, m.At(1, 0), 1e-12)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, m.At(i, 1))
	}
}

func TestSplit(t *testing.T) {
	centers := []int{0, 1, 2, 3, 4, 5, 6}

	blocks := split(centers, 3)
	require.Len(t, blocks, 3)
	var joined []int
	for _, b := range blocks {
		assert.NotEmpty(t, b)
		joined = append(joined, b...)
	}
	assert.Equal(t, centers, joined)

	assert.Len(t, split(centers, 100), 7)
	assert.Len(t, split(centers, 0), 1)
	assert.Empty(t, split(nil, 4))
}

// strip is four vertices one mm apart joined by two triangles
func strip() *surf.Surface {
	return &surf.Surface{
		Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
		Faces:    [][3]int{{0, 1, 2}, {1, 2, 3}},
	}
}

func identicalDatasets(t *testing.T) []*dataset.Dataset {
	samples := random(25, 4, 5)
	zscore(samples)

	var dss []*dataset.Dataset
	for _, id := range []int{5, 7} {
		ds := &dataset.Dataset{
			Subject: dataset.Subject{ID: id},
			Samples: mat64.DenseCopyOf(samples),
		}
		require.NoError(t, ds.SetNodeIndices([]int{0, 1, 2, 3}))
		dss = append(dss, ds)
	}
	return dss
}

func TestSearchlightIdentical(t *testing.T) {
	for _, tc := range []struct {
		name   string
		radius float64
		scale  float64
	}{
		{"single node searchlights", 0.5, 1},
		{"whole surface searchlights", 100, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			scratch := t.TempDir()
			sl := &SearchlightHyperalignment{
				Engine:     NewQueryEngine(strip(), tc.radius),
				NProcs:     3,
				NBlocks:    2,
				ScratchDir: scratch,
				Options:    Options{Scaling: true, Level2Iter: 1},
			}

			mappers, err := sl.Run(identicalDatasets(t))
			require.NoError(t, err)
			require.Len(t, mappers, 2)

			want := sparse.Identity(4).ToDense()
			want.Scale(tc.scale, want)
			for _, m := range mappers {
				r, c := m.Dims()
				assert.Equal(t, 4, r)
				assert.Equal(t, 4, c)
				assert.True(t, mat64.EqualApprox(want, m.ToDense(), 1e-8))
			}

			left, err := ioutil.ReadDir(scratch)
			require.NoError(t, err)
			assert.Empty(t, left)
		})
	}
}

func TestSearchlightPartialNodes(t *testing.T) {
	// two disconnected strips; the datasets only cover vertices 0 1 4 5,
	// every searchlight spans two of them
	dss := identicalDatasets(t)
	for _, ds := range dss {
		require.NoError(t, ds.SetNodeIndices([]int{0, 1, 4, 5}))
	}

	sl := &SearchlightHyperalignment{
		Engine:     NewQueryEngine(strip().Merge(strip()), 1.5),
		NProcs:     2,
		NBlocks:    1,
		ScratchDir: t.TempDir(),
	}
	mappers, err := sl.Run(dss)
	require.NoError(t, err)

	want := sparse.Identity(4).ToDense()
	want.Scale(2, want)
	for _, m := range mappers {
		assert.True(t, mat64.EqualApprox(want, m.ToDense(), 1e-8))
	}
}

func TestSearchlightErrors(t *testing.T) {
	sl := &SearchlightHyperalignment{
		Engine:     NewQueryEngine(strip(), 1),
		ScratchDir: t.TempDir(),
	}

	dss := identicalDatasets(t)
	_, err := sl.Run(dss[:1])
	assert.Error(t, err)

	require.NoError(t, dss[1].SetNodeIndices([]int{0, 1, 3, 2}))
	_, err = sl.Run(dss)
	assert.Error(t, err)

	// centers outside the surface
	dss = identicalDatasets(t)
	for _, ds := range dss {
		require.NoError(t, ds.SetNodeIndices([]int{0, 1, 2, 9}))
	}
	_, err = sl.Run(dss)
	assert.Error(t, err)

	left, err := ioutil.ReadDir(sl.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSpillRoundTrip(t *testing.T) {
	dir := t.TempDir()

	in := []*sparse.Builder{sparse.NewBuilder(3, 3), sparse.NewBuilder(3, 3)}
	in[0].Add(0, 1, 2.5)
	in[0].Add(2, 2, -1)
	in[1].Add(1, 0, 4)

	path, err := spill(dir, 0, in)
	require.NoError(t, err)

	out := []*sparse.Builder{sparse.NewBuilder(3, 3), sparse.NewBuilder(3, 3)}
	require.NoError(t, unspill(path, out))
	for s := range in {
		assert.True(t, sparse.Equal(in[s].Build(), out[s].Build()))
	}

	// the spill file is consumed
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, unspill(path, out))
}

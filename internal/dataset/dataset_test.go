package dataset

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/KyungWonPark/Hyperalignment/internal/calc"
	"github.com/KyungWonPark/Hyperalignment/internal/config"
	"github.com/KyungWonPark/Hyperalignment/internal/io"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run lengths and hemisphere widths of the synthetic dataset
var (
	runLength = map[int]int{1: 6, 2: 4, 3: 5}
	hemiWidth = map[string]int{"L": 3, "R": 2}
)

func testConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.SurfaceDir = filepath.Join(dir, "surf")
	cfg.Subjects = []int{5, 7}
	cfg.TrainRuns = []int{1, 2}
	cfg.TestRuns = []int{3}
	return cfg
}

func writeRuns(t *testing.T, layout Layout) {
	rnd := rand.New(rand.NewSource(1))
	for _, subject := range layout.Subjects() {
		for run, length := range runLength {
			for hemi, width := range hemiWidth {
				m := mat64.NewDense(length, width, nil)
				for i := 0; i < length; i++ {
					for j := 0; j < width; j++ {
						m.Set(i, j, 100*float64(subject.ID)+rnd.NormFloat64()*float64(j+1))
					}
				}
				require.NoError(t, io.Mat64toNpy(layout.RunPath(subject, run, hemi), m))
			}
		}
	}
}

func TestLayout(t *testing.T) {
	layout := NewLayout(config.Default())
	subjects := layout.Subjects()
	require.Len(t, subjects, 21)

	assert.Equal(t, "000005", subjects[0].String())
	assert.Equal(t, "000560", subjects[20].String())
	assert.Equal(t, []int{1, 2, 3, 4}, layout.Runs(Train))
	assert.Equal(t, []int{5}, layout.Runs(Test))

	assert.Equal(t,
		"/dartfs/rc/lab/D/DBIC/DBIC/f002d44/budapest/data/original/sub-sid000005_ses-budapest_task-movie_run-01_space-fsaverage-icoorder5_hemi-L.func.npy",
		layout.RunPath(subjects[0], 1, "L"))
	assert.Equal(t, "/dartfs-hpc/rc/home/4/f002d44/h2a/rh.pial", layout.SurfacePath("r", "pial"))
	assert.Equal(t, "/dartfs/rc/lab/D/DBIC/DBIC/f002d44/budapest/transformations/sub000007_ha_mapper.npz", layout.MapperPath(subjects[1]))
	assert.Equal(t, "/dartfs/rc/lab/D/DBIC/DBIC/f002d44/budapest/transformations/sub000007_hyperaligned_data.npy", layout.AlignedPath(subjects[1]))
	assert.Equal(t, "sub000009", layout.MapperLabel(subjects[2]))

	// Runs hands out a copy
	runs := layout.Runs(Train)
	runs[0] = 42
	assert.Equal(t, 1, layout.Runs(Train)[0])
}

func TestLoadSplit(t *testing.T) {
	dir := t.TempDir()
	layout := NewLayout(testConfig(dir))
	writeRuns(t, layout)

	pl := calc.Init(1, 2, false)
	defer pl.StopScheduler()
	loader := NewLoader(layout, pl)

	train, err := loader.LoadSplit(Train)
	require.NoError(t, err)
	require.Len(t, train, 2)

	for i, ds := range train {
		assert.Equal(t, layout.Subjects()[i], ds.Subject)
		assert.Equal(t, Train, ds.Split)

		rows, cols := ds.Shape()
		assert.Equal(t, runLength[1]+runLength[2], rows)
		assert.Equal(t, hemiWidth["L"]+hemiWidth["R"], cols)
		assert.True(t, calc.CheckZScored(ds.Samples, 1e-9))
	}

	test, err := loader.LoadSplit(Test)
	require.NoError(t, err)
	require.Len(t, test, 2)
	rows, cols := test[1].Shape()
	assert.Equal(t, runLength[3], rows)
	assert.Equal(t, 5, cols)
}

func TestLoadSubjectOrder(t *testing.T) {
	dir := t.TempDir()
	layout := NewLayout(testConfig(dir))
	subject := layout.Subjects()[0]

	// run 1 then run 2 along time, L then R along features
	put := func(run int, hemi string, rows int, cols int, value float64) {
		m := mat64.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				m.Set(i, j, value+float64(i))
			}
		}
		require.NoError(t, io.Mat64toNpy(layout.RunPath(subject, run, hemi), m))
	}
	put(1, "L", 2, 1, 0)
	put(2, "L", 2, 1, 10)
	put(1, "R", 2, 2, 0)
	put(2, "R", 2, 2, -10)

	pl := calc.Init(1, 1, false)
	defer pl.StopScheduler()

	ds, err := NewLoader(layout, pl).LoadSubject(subject, Train)
	require.NoError(t, err)

	rows, cols := ds.Shape()
	require.Equal(t, 4, rows)
	require.Equal(t, 3, cols)

	// L column is 0 1 10 11; the largest value comes last
	assert.True(t, ds.Samples.At(3, 0) > ds.Samples.At(2, 0))
	assert.True(t, ds.Samples.At(2, 0) > ds.Samples.At(1, 0))
	// R columns are 0 1 -10 -9; the run 2 block comes second and is lower
	assert.True(t, ds.Samples.At(2, 1) < ds.Samples.At(0, 1))
	assert.InDelta(t, ds.Samples.At(0, 1), ds.Samples.At(0, 2), 1e-12)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	layout := NewLayout(testConfig(dir))
	writeRuns(t, layout)

	pl := calc.Init(1, 1, false)
	defer pl.StopScheduler()
	loader := NewLoader(layout, pl)

	// missing file aborts the batch
	second := layout.Subjects()[1]
	require.NoError(t, os.Remove(layout.RunPath(second, 2, "R")))
	_, err := loader.LoadSplit(Train)
	assert.Error(t, err)

	// run width mismatch
	first := layout.Subjects()[0]
	require.NoError(t, io.Mat64toNpy(layout.RunPath(first, 2, "L"), mat64.NewDense(4, 7, nil)))
	_, err = loader.LoadSubject(first, Train)
	assert.Error(t, err)

	// hemisphere length mismatch
	require.NoError(t, io.Mat64toNpy(layout.RunPath(first, 3, "L"), mat64.NewDense(9, 3, nil)))
	_, err = loader.LoadSubject(first, Test)
	assert.Error(t, err)
}

func TestNodeIndices(t *testing.T) {
	ds := &Dataset{Samples: mat64.NewDense(2, 3, nil)}

	err := ds.SetNodeIndices([]int{1, 2})
	assert.Error(t, err)

	idx := []int{4, 9, 11}
	require.NoError(t, ds.SetNodeIndices(idx))
	idx[0] = 100
	assert.Equal(t, []int{4, 9, 11}, ds.NodeIndices)

	assert.Equal(t, []int{2, 0}, ds.Columns([]int{11, 5, 4}))
	assert.Empty(t, ds.Columns([]int{1, 2}))
}

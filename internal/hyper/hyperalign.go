package hyper

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// Options tunes a single hyperalignment
type Options struct {
	// Scaling lets Procrustes rescale projections
	Scaling bool
	// Level2Iter is the number of leave-one-out refinement sweeps
	Level2Iter int
}

// Hyperalign maps every subject's time points by features matrix into a
// shared space and returns one features by features projection per subject.
//
// Level 1 grows a common space from subject 0 by aligning the others to it
// one by one and folding them into a running mean. Level 2 realigns each
// subject to the mean of the others. Level 3 aligns every subject to the
// final common space.
func Hyperalign(data []*mat64.Dense, opts Options) ([]*mat64.Dense, error) {
	n := len(data)
	if n < 2 {
		return nil, errors.Errorf("[Hyperalign] need at least 2 subjects, got %d", n)
	}
	rows, cols := data[0].Dims()
	for i, d := range data {
		r, c := d.Dims()
		if r != rows || c != cols {
			return nil, errors.Errorf("[Hyperalign] subject %d is %d by %d, subject 0 is %d by %d", i, r, c, rows, cols)
		}
	}

	// level 1
	common := mat64.DenseCopyOf(data[0])
	for i := 1; i < n; i++ {
		zscore(common)
		proj, err := Procrustes(data[i], common, opts.Scaling)
		if err != nil {
			return nil, errors.Wrapf(err, "[Hyperalign] level 1 subject %d", i)
		}

		var mapped mat64.Dense
		mapped.Mul(data[i], proj)

		common.Scale(float64(i), common)
		common.Add(common, &mapped)
		common.Scale(1/float64(i+1), common)
	}

	// level 2
	mapped := make([]*mat64.Dense, n)
	for i := range data {
		zscore(common)
		proj, err := Procrustes(data[i], common, opts.Scaling)
		if err != nil {
			return nil, errors.Wrapf(err, "[Hyperalign] level 2 subject %d", i)
		}
		mapped[i] = &mat64.Dense{}
		mapped[i].Mul(data[i], proj)
	}
	common = mean(mapped)

	for iter := 0; iter < opts.Level2Iter; iter++ {
		for i := range data {
			others := mat64.DenseCopyOf(common)
			others.Scale(float64(n), others)
			others.Sub(others, mapped[i])
			others.Scale(1/float64(n-1), others)
			zscore(others)

			proj, err := Procrustes(data[i], others, opts.Scaling)
			if err != nil {
				return nil, errors.Wrapf(err, "[Hyperalign] level 2 iter %d subject %d", iter, i)
			}
			mapped[i].Mul(data[i], proj)
		}
		common = mean(mapped)
	}

	// level 3
	zscore(common)
	projs := make([]*mat64.Dense, n)
	for i := range data {
		proj, err := Procrustes(data[i], common, opts.Scaling)
		if err != nil {
			return nil, errors.Wrapf(err, "[Hyperalign] level 3 subject %d", i)
		}
		projs[i] = proj
	}

	return projs, nil
}

func mean(ms []*mat64.Dense) *mat64.Dense {
	acc := mat64.DenseCopyOf(ms[0])
	for _, m := range ms[1:] {
		acc.Add(acc, m)
	}
	acc.Scale(1/float64(len(ms)), acc)
	return acc
}

// zscore standardizes every column in place over time (ddof 0); constant
// columns become 0
func zscore(m *mat64.Dense) {
	rows, cols := m.Dims()
	col := make([]float64, rows)

	for j := 0; j < cols; j++ {
		mat64.Col(col, j, m)

		avg := floats.Sum(col) / float64(rows)
		floats.AddConst(-avg, col)
		std := math.Sqrt(floats.Dot(col, col) / float64(rows))
		if std == 0 || math.IsNaN(std) {
			floats.Scale(0, col)
		} else {
			floats.Scale(1/std, col)
		}

		m.SetCol(j, col)
	}
}

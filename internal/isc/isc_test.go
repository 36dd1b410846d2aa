package isc

import (
	"math"
	"testing"

	"github.com/KyungWonPark/Hyperalignment/internal/calc"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveOneOut(t *testing.T) {
	pl := calc.Init(1, 2, false)
	defer pl.StopScheduler()

	// column 0 is shared, column 1 is constant, column 2 flips sign in subject 2
	samples := []*mat64.Dense{
		mat64.NewDense(4, 3, []float64{1, 3, 1, 2, 3, 2, 3, 3, 3, 5, 3, 5}),
		mat64.NewDense(4, 3, []float64{2, 3, 1, 4, 3, 2, 6, 3, 3, 10, 3, 5}),
		mat64.NewDense(4, 3, []float64{0, 3, -1, 1, 3, -2, 2, 3, -3, 4, 3, -5}),
	}

	res, err := LeaveOneOut(pl, samples)
	require.NoError(t, err)

	rows, cols := res.Corr.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1, res.Corr.At(i, 0), 1e-12)
		assert.True(t, math.IsNaN(res.Corr.At(i, 1)))
	}
	// the others' mean of column 2 cancels out for subjects 0 and 1
	assert.True(t, math.IsNaN(res.Corr.At(0, 2)))
	assert.InDelta(t, -1, res.Corr.At(2, 2), 1e-12)

	assert.InDelta(t, 1, res.Means[0], 1e-12)
	assert.InDelta(t, 0, res.Means[2], 1e-12)

	median, std, err := res.Summary()
	require.NoError(t, err)
	assert.InDelta(t, 1, median, 1e-12)
	assert.True(t, std > 0)
}

func TestLeaveOneOutErrors(t *testing.T) {
	pl := calc.Init(1, 1, false)
	defer pl.StopScheduler()

	_, err := LeaveOneOut(pl, []*mat64.Dense{mat64.NewDense(2, 2, nil)})
	assert.Error(t, err)

	_, err = LeaveOneOut(pl, []*mat64.Dense{mat64.NewDense(2, 2, nil), mat64.NewDense(3, 2, nil)})
	assert.Error(t, err)
}

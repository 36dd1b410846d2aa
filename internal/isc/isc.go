package isc

import (
	"log"
	"math"

	"github.com/KyungWonPark/Hyperalignment/internal/calc"
	"github.com/gonum/matrix/mat64"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Result holds leave-one-out inter-subject correlations
type Result struct {
	// Corr is subjects by features
	Corr *mat64.Dense
	// Means is the average correlation of each subject over features with
	// variance
	Means []float64
}

// LeaveOneOut correlates every subject's feature time series with the mean
// time series of all the other subjects
func LeaveOneOut(pl *calc.PipeLine, samples []*mat64.Dense) (*Result, error) {
	n := len(samples)
	if n < 2 {
		return nil, errors.Errorf("[LeaveOneOut] need at least 2 subjects, got %d", n)
	}
	rows, cols := samples[0].Dims()

	sum := mat64.NewDense(rows, cols, nil)
	for i, m := range samples {
		if err := pl.Acc(m, sum); err != nil {
			return nil, errors.Wrapf(err, "[LeaveOneOut] subject %d", i)
		}
	}

	res := &Result{
		Corr:  mat64.NewDense(n, cols, nil),
		Means: make([]float64, n),
	}

	others := mat64.NewDense(rows, cols, nil)
	corr := make([]float64, cols)
	for i, m := range samples {
		others.Sub(sum, m)
		if err := pl.Avg(others, others, float64(n-1)); err != nil {
			return nil, errors.Wrapf(err, "[LeaveOneOut] subject %d", i)
		}

		if err := pl.Pearson(m, others, corr); err != nil {
			return nil, errors.Wrapf(err, "[LeaveOneOut] subject %d", i)
		}
		res.Corr.SetRow(i, corr)

		finite := make([]float64, 0, cols)
		for _, r := range corr {
			if !math.IsNaN(r) {
				finite = append(finite, r)
			}
		}
		mean, err := stats.Mean(finite)
		if err != nil {
			mean = math.NaN()
		}
		res.Means[i] = mean

		log.Printf("[LeaveOneOut] subject %d: mean ISC %.4f over %d features\n", i, mean, len(finite))
	}

	return res, nil
}

// Summary returns the median and the spread of the per-subject means
func (r *Result) Summary() (median float64, std float64, err error) {
	median, err = stats.Median(r.Means)
	if err != nil {
		return 0, 0, errors.Wrap(err, "[Summary]")
	}
	std, err = stats.StandardDeviation(r.Means)
	if err != nil {
		return 0, 0, errors.Wrap(err, "[Summary]")
	}
	return median, std, nil
}

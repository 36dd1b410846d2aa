package dataset

import (
	"log"

	"github.com/KyungWonPark/Hyperalignment/internal/calc"
	"github.com/KyungWonPark/Hyperalignment/internal/io"
	"github.com/gonum/matrix/mat64"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Loader reads and normalizes per-subject datasets
type Loader struct {
	layout Layout
	pl     *calc.PipeLine
}

// NewLoader returns a Loader reading files of layout
func NewLoader(layout Layout, pl *calc.PipeLine) *Loader {
	return &Loader{layout: layout, pl: pl}
}

// LoadSplit loads every subject of a split, in subject order
func (l *Loader) LoadSplit(split Split) ([]*Dataset, error) {
	subjects := l.layout.Subjects()
	dss := make([]*Dataset, 0, len(subjects))

	for _, subject := range subjects {
		ds, err := l.LoadSubject(subject, split)
		if err != nil {
			return nil, err
		}
		dss = append(dss, ds)
	}

	return dss, nil
}

// LoadSubject concatenates a subject's runs along time, stacks the
// hemispheres along features and z-scores every feature
func (l *Loader) LoadSubject(subject Subject, split Split) (*Dataset, error) {
	runs := l.layout.Runs(split)
	if len(runs) == 0 {
		return nil, errors.Errorf("[LoadSubject] no %s runs configured", split)
	}

	var hemis []*mat64.Dense
	for _, hemi := range Hemispheres {
		paths := make([]string, len(runs))
		for i, run := range runs {
			paths[i] = l.layout.RunPath(subject, run, hemi)
		}

		data, err := loadRuns(paths)
		if err != nil {
			return nil, errors.Wrapf(err, "[LoadSubject] subj: %s hemi: %s", subject, hemi)
		}
		hemis = append(hemis, data)
	}

	lRows, _ := hemis[0].Dims()
	rRows, _ := hemis[1].Dims()
	if lRows != rRows {
		return nil, errors.Errorf("[LoadSubject] subj: %s has %d time points in L but %d in R", subject, lRows, rRows)
	}

	var samples mat64.Dense
	samples.Augment(hemis[0], hemis[1])

	if err := l.pl.ZScoring(&samples, &samples); err != nil {
		return nil, errors.Wrapf(err, "[LoadSubject] subj: %s", subject)
	}

	ds := &Dataset{
		Subject: subject,
		Split:   split,
		Samples: &samples,
	}
	if err := Describe("LoadSubject", ds); err != nil {
		return nil, err
	}

	return ds, nil
}

// loadRuns stacks run files along the time axis
func loadRuns(paths []string) (*mat64.Dense, error) {
	var acc *mat64.Dense

	for _, path := range paths {
		run, err := io.NpytoMat64(path)
		if err != nil {
			return nil, err
		}

		if acc == nil {
			acc = run
			continue
		}

		_, accCols := acc.Dims()
		_, runCols := run.Dims()
		if accCols != runCols {
			return nil, errors.Errorf("%s has %d vertices, earlier runs have %d", path, runCols, accCols)
		}

		var stacked mat64.Dense
		stacked.Stack(acc, run)
		acc = &stacked
	}

	return acc, nil
}

// Describe logs a dataset's shape and value range
func Describe(tag string, ds *Dataset) error {
	rows, cols := ds.Shape()
	raw := ds.Samples.RawMatrix()
	if raw.Stride != cols {
		raw = mat64.DenseCopyOf(ds.Samples).RawMatrix()
	}
	data := raw.Data[:rows*cols]

	min, err := stats.Min(data)
	if err != nil {
		return errors.Wrapf(err, "[%s] subj: %s", tag, ds.Subject)
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return errors.Wrapf(err, "[%s] subj: %s", tag, ds.Subject)
	}
	max, err := stats.Max(data)
	if err != nil {
		return errors.Wrapf(err, "[%s] subj: %s", tag, ds.Subject)
	}

	log.Printf("[%s] subj: %s split: %s shape %d by %d min %g mean %g max %g\n", tag, ds.Subject, ds.Split, rows, cols, min, mean, max)
	return nil
}

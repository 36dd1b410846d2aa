package pipeline

import (
	"fmt"

	"github.com/KyungWonPark/Hyperalignment/internal/dataset"
	"github.com/KyungWonPark/Hyperalignment/internal/io"
	"github.com/KyungWonPark/Hyperalignment/internal/isc"
	"github.com/gonum/matrix/mat64"
)

// Evaluation compares inter-subject correlation on the test runs before and
// after alignment
type Evaluation struct {
	Unaligned *isc.Result
	Aligned   *isc.Result
}

// Evaluate computes leave-one-out ISC of the z-scored test runs and of the
// saved aligned data, and saves both correlation matrices
func (p *Pipeline) Evaluate() (*Evaluation, error) {
	fmt.Println("[ISC] Loading test data")
	dss, err := p.loader.LoadSplit(dataset.Test)
	if err != nil {
		return nil, err
	}

	unaligned := make([]*mat64.Dense, len(dss))
	aligned := make([]*mat64.Dense, len(dss))
	for i, ds := range dss {
		unaligned[i] = ds.Samples
		aligned[i], err = io.NpytoMat64(p.layout.AlignedPath(ds.Subject))
		if err != nil {
			return nil, err
		}
	}

	// row order of both matrices
	if err := io.IntstoNpy(p.layout.ISCPath("subjects", "npy"), subjectIDs(p.layout)); err != nil {
		return nil, err
	}

	eval := &Evaluation{}
	for _, step := range []struct {
		tag     string
		samples []*mat64.Dense
		res     **isc.Result
	}{
		{"unaligned", unaligned, &eval.Unaligned},
		{"aligned", aligned, &eval.Aligned},
	} {
		res, err := isc.LeaveOneOut(p.pl, step.samples)
		if err != nil {
			return nil, err
		}
		if err := io.Mat64toNpy(p.layout.ISCPath(step.tag, "npy"), res.Corr); err != nil {
			return nil, err
		}
		if err := io.Mat64toCSV(p.layout.ISCPath(step.tag, "csv"), res.Corr); err != nil {
			return nil, err
		}

		median, std, err := res.Summary()
		if err != nil {
			return nil, err
		}
		fmt.Printf("[ISC] %s: median of subject means %.4f (std %.4f)\n", step.tag, median, std)

		*step.res = res
	}

	return eval, nil
}

func subjectIDs(layout dataset.Layout) []int {
	subjects := layout.Subjects()
	ids := make([]int, len(subjects))
	for i, s := range subjects {
		ids[i] = s.ID
	}
	return ids
}

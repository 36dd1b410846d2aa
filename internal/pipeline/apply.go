package pipeline

import (
	"fmt"
	"log"

	"github.com/KyungWonPark/Hyperalignment/internal/calc"
	"github.com/KyungWonPark/Hyperalignment/internal/dataset"
	"github.com/KyungWonPark/Hyperalignment/internal/io"
	"github.com/KyungWonPark/Hyperalignment/internal/sparse"
	"github.com/pkg/errors"
)

type applyJob struct {
	ds     *dataset.Dataset
	mapper *sparse.CSR
	err    error
}

// Apply maps every subject's test runs with its saved mapper and saves the
// z-scored result. Subjects are loaded ahead while the previous one is
// being transformed.
func (p *Pipeline) Apply() error {
	fmt.Println("[9] Applying mappers to test data")

	stream := calc.Init(2, p.cfg.NProcs, p.cfg.Debug)
	defer stream.StopScheduler()

	buffer := make([]applyJob, stream.QueueSize())
	subjects := p.layout.Subjects()

	// closed by the consumer on its first error
	stop := make(chan struct{})

	go func() {
		defer stream.Close()

		for _, subject := range subjects {
			select {
			case <-stop:
				return
			default:
			}

			job := p.load(subject)
			dest := stream.Malloc()
			buffer[dest] = job
			stream.Push(dest)

			if job.err != nil {
				return
			}
		}
	}()

	var firstErr error
	for {
		slot, ok := stream.Pop()
		if !ok {
			break
		}

		job := buffer[slot]
		buffer[slot] = applyJob{}
		stream.Free(slot)

		if firstErr != nil {
			continue
		}
		if job.err == nil {
			job.err = p.transform(stream, job)
		}
		if job.err != nil {
			firstErr = job.err
			close(stop)
		}
	}

	if firstErr != nil {
		return firstErr
	}
	fmt.Println("DONEZO")
	return nil
}

func (p *Pipeline) load(subject dataset.Subject) applyJob {
	ds, err := p.loader.LoadSubject(subject, dataset.Test)
	if err != nil {
		return applyJob{err: err}
	}
	mapper, err := io.LoadNpz(p.layout.MapperPath(subject))
	if err != nil {
		return applyJob{err: err}
	}

	rows, cols := ds.Shape()
	r, c := mapper.Dims()
	log.Printf("[Apply] subj: %s data %d by %d mapper %d by %d\n", subject, rows, cols, r, c)

	return applyJob{ds: ds, mapper: mapper}
}

// transform computes zscore(data * mapper) with non-finite values zeroed
func (p *Pipeline) transform(pl *calc.PipeLine, job applyJob) error {
	aligned, err := sparse.MulDense(job.ds.Samples, job.mapper)
	if err != nil {
		return errors.Wrapf(err, "[Apply] subj: %s", job.ds.Subject)
	}
	if err := pl.ZScoring(aligned, aligned); err != nil {
		return errors.Wrapf(err, "[Apply] subj: %s", job.ds.Subject)
	}
	pl.NanToNum(aligned)

	if p.cfg.Debug && !calc.CheckFinite(aligned) {
		return errors.Errorf("[Apply] subj: %s has non-finite values after alignment", job.ds.Subject)
	}

	if err := io.Mat64toNpy(p.layout.AlignedPath(job.ds.Subject), aligned); err != nil {
		return err
	}
	fmt.Printf("done with subj %s\n", job.ds.Subject)
	return nil
}

package calc

import (
	"sync"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

func acc(inputMat *mat64.Dense, outputMat *mat64.Dense, order <-chan int, wg *sync.WaitGroup) {
	for {
		index, ok := <-order
		if ok {
			floats.Add(outputMat.RawRowView(index), inputMat.RawRowView(index))

			wg.Done()
		} else {
			break
		}
	}

	return
}

// Acc does accumulation
func (p *PipeLine) Acc(inputMat *mat64.Dense, outputMat *mat64.Dense) error {
	inputRows, inputCols := inputMat.Dims()
	outputRows, outputCols := outputMat.Dims()

	if inputRows != outputRows || inputCols != outputCols {
		return errors.Errorf("[Acc] input dims: %d by %d when output dims: %d by %d", inputRows, inputCols, outputRows, outputCols)
	}

	order := make(chan int, p.numWorker)
	var wg sync.WaitGroup

	wg.Add(inputRows)

	for i := 0; i < p.numWorker; i++ {
		go acc(inputMat, outputMat, order, &wg)
	}

	for i := 0; i < inputRows; i++ {
		order <- i
	}

	wg.Wait()
	close(order)
	return nil
}

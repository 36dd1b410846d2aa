package calc

import (
	"math"
	"sync"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

func pearson(matA *mat64.Dense, matB *mat64.Dense, output []float64, order <-chan int, wg *sync.WaitGroup) {
	rows, _ := matA.Dims()
	colA := make([]float64, rows)
	colB := make([]float64, rows)

	for {
		index, ok := <-order
		if ok {
			mat64.Col(colA, index, matA)
			mat64.Col(colB, index, matB)

			avgA := floats.Sum(colA) / float64(rows)
			avgB := floats.Sum(colB) / float64(rows)

			var cov, varA, varB float64
			for t := 0; t < rows; t++ {
				da := colA[t] - avgA
				db := colB[t] - avgB
				cov += da * db
				varA += da * da
				varB += db * db
			}

			if varA == 0 || varB == 0 {
				output[index] = math.NaN()
			} else {
				output[index] = cov / math.Sqrt(varA*varB)
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}

// Pearson does Pearson's correlation between matching columns of matA and
// matB; columns without variance give NaN
func (p *PipeLine) Pearson(matA *mat64.Dense, matB *mat64.Dense, output []float64) error {
	rowsA, colsA := matA.Dims()
	rowsB, colsB := matB.Dims()

	{ // Check input matrices and output slice dimensions
		if rowsA != rowsB || colsA != colsB || len(output) != colsA {
			return errors.Errorf("[Pearson] inputs are %d by %d and %d by %d, output has %d entries", rowsA, colsA, rowsB, colsB, len(output))
		}
	}

	order := make(chan int, p.numWorker)
	var wg sync.WaitGroup

	wg.Add(colsA)

	for i := 0; i < p.numWorker; i++ {
		go pearson(matA, matB, output, order, &wg)
	}

	for i := 0; i < colsA; i++ {
		order <- i
	}

	wg.Wait()
	close(order)

	return nil
}

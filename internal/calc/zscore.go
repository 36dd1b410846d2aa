package calc

import (
	"math"
	"sync"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

func getColStat(inputMat *mat64.Dense, stats []statistic, order <-chan int, wg *sync.WaitGroup) {
	rows, _ := inputMat.Dims()
	col := make([]float64, rows)

	for {
		index, ok := <-order
		if ok {
			mat64.Col(col, index, inputMat)

			// two passes; the one pass form cancels badly for large means
			avgVal := floats.Sum(col) / float64(rows)
			floats.AddConst(-avgVal, col)
			variance := floats.Dot(col, col) / float64(rows)

			stats[index].avg = avgVal
			stats[index].std = math.Sqrt(variance)

			wg.Done()
		} else {
			break
		}
	}

	return
}

func zScoring(inputMat *mat64.Dense, outputMat *mat64.Dense, stats []statistic, order <-chan int, wg *sync.WaitGroup) {
	rows, _ := inputMat.Dims()

	for {
		index, ok := <-order
		if ok {
			st := stats[index]
			for t := 0; t < rows; t++ {
				var newValue float64
				// constant columns carry no signal
				if st.std > 0 {
					newValue = (inputMat.At(t, index) - st.avg) / st.std
				}
				outputMat.Set(t, index, newValue)
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}

// ZScoring z-scores each column over the rows (time points); inputMat and
// outputMat may be the same matrix
func (p *PipeLine) ZScoring(inputMat *mat64.Dense, outputMat *mat64.Dense) error {
	inputRows, inputCols := inputMat.Dims()
	outputRows, outputCols := outputMat.Dims()

	{ // Check input matrix and output matrix dimensions
		if outputRows != inputRows || outputCols != inputCols {
			return errors.Errorf("[ZScoring] input is %d by %d but output is %d by %d", inputRows, inputCols, outputRows, outputCols)
		}
	}

	stats := make([]statistic, inputCols)

	{ // Get statistics for each vertex timeseries
		order := make(chan int, p.numWorker)
		var wg sync.WaitGroup

		wg.Add(inputCols)

		for i := 0; i < p.numWorker; i++ {
			go getColStat(inputMat, stats, order, &wg)
		}

		for i := 0; i < inputCols; i++ {
			order <- i
		}

		wg.Wait()
		close(order)
	}

	{ // Z-Scoring
		order := make(chan int, p.numWorker)
		var wg sync.WaitGroup

		wg.Add(inputCols)

		for i := 0; i < p.numWorker; i++ {
			go zScoring(inputMat, outputMat, stats, order, &wg)
		}

		for i := 0; i < inputCols; i++ {
			order <- i
		}

		wg.Wait()
		close(order)
	}

	return nil
}

func nanToNum(inputMat *mat64.Dense, order <-chan int, wg *sync.WaitGroup) {
	for {
		index, ok := <-order
		if ok {
			row := inputMat.RawRowView(index)
			for t, value := range row {
				if math.IsNaN(value) || math.IsInf(value, 0) {
					row[t] = 0
				}
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}

// NanToNum replaces NaN and infinite entries with zero, in place
func (p *PipeLine) NanToNum(inputMat *mat64.Dense) {
	inputRows, _ := inputMat.Dims()

	order := make(chan int, p.numWorker)
	var wg sync.WaitGroup

	wg.Add(inputRows)

	for i := 0; i < p.numWorker; i++ {
		go nanToNum(inputMat, order, &wg)
	}

	for i := 0; i < inputRows; i++ {
		order <- i
	}

	wg.Wait()
	close(order)
	return
}

package calc

import (
	"math"
	"runtime"
	"sync"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// CheckZScored checks every column has zero mean and unit variance (or is all
// zero) within pre
func CheckZScored(matrix *mat64.Dense, pre float64) bool {
	_, cols := matrix.Dims()
	workers := runtime.NumCPU()

	order := make(chan int, workers)
	isZScored := make([]bool, cols)
	var wg sync.WaitGroup

	wg.Add(cols)

	for i := 0; i < workers; i++ {
		go zScoredCheck(matrix, isZScored, math.Abs(pre), order, &wg)
	}

	for i := 0; i < cols; i++ {
		order <- i
	}

	wg.Wait()
	close(order)

	zscored := true
	for i := 0; i < cols; i++ {
		zscored = zscored && isZScored[i]
	}

	return zscored
}

func zScoredCheck(matrix *mat64.Dense, isZScored []bool, pre float64, order <-chan int, wg *sync.WaitGroup) {
	rows, _ := matrix.Dims()
	col := make([]float64, rows)

	for {
		index, ok := <-order
		if ok {
			mat64.Col(col, index, matrix)

			mean := floats.Sum(col) / float64(rows)
			variance := floats.Dot(col, col)/float64(rows) - mean*mean

			isZero := floats.Norm(col, math.Inf(1)) < pre
			isUnit := math.Abs(mean) < pre && math.Abs(variance-1) < pre
			isZScored[index] = isZero || isUnit

			wg.Done()
		} else {
			break
		}
	}

	return
}

// CheckFinite checks that no element is NaN or infinite
func CheckFinite(matrix *mat64.Dense) bool {
	rows, _ := matrix.Dims()
	workers := runtime.NumCPU()

	order := make(chan int, workers)
	isFinite := make([]bool, rows)
	var wg sync.WaitGroup

	wg.Add(rows)

	for i := 0; i < workers; i++ {
		go finiteCheck(matrix, isFinite, order, &wg)
	}

	for i := 0; i < rows; i++ {
		order <- i
	}

	wg.Wait()
	close(order)

	finite := true
	for i := 0; i < rows; i++ {
		finite = finite && isFinite[i]
	}

	return finite
}

func finiteCheck(matrix *mat64.Dense, isFinite []bool, order <-chan int, wg *sync.WaitGroup) {
	for {
		index, ok := <-order
		if ok {
			isFinite[index] = true
			for _, value := range matrix.RawRowView(index) {
				if math.IsNaN(value) || math.IsInf(value, 0) {
					isFinite[index] = false
					break
				}
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}

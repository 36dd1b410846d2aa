package io

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// Mat64toCSV saves Mat64 as a csv file
func Mat64toCSV(path string, matrix *mat64.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "[Mat64toCSV] failed to open %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rows, _ := matrix.Dims()

	stride := runtime.NumCPU()
	parsed := make([]string, stride)

	for row := 0; row < rows; row += stride {
		var wg sync.WaitGroup
		jobMark := stride

		if row+stride >= rows {
			jobMark = rows - row
		}

		wg.Add(jobMark)
		for offset := 0; offset < jobMark; offset++ {
			go formatLine(matrix, parsed, offset, row, &wg)
		}
		wg.Wait()

		for i := 0; i < jobMark; i++ {
			if _, err := fmt.Fprintf(w, "%s\n", parsed[i]); err != nil {
				return errors.Wrapf(err, "[Mat64toCSV] failed to write %s", path)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "[Mat64toCSV] failed to write %s", path)
	}
	return f.Close()
}

func formatLine(matrix *mat64.Dense, parsed []string, offset int, row int, wg *sync.WaitGroup) {
	defer wg.Done()

	_, cols := matrix.Dims()
	nums := make([]string, cols)
	for i := 0; i < cols; i++ {
		nums[i] = strconv.FormatFloat(matrix.At(row+offset, i), 'g', -1, 64)
	}
	parsed[offset] = strings.Join(nums, ", ")
}

// CSVtoMat64 converts csv file to mat64
func CSVtoMat64(path string) (*mat64.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[CSVtoMat64] failed to open %s", path)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.TrimLeadingSpace = true
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "[CSVtoMat64] failed to parse %s", path)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errors.Errorf("[CSVtoMat64] %s is empty", path)
	}

	rows, cols := len(records), len(records[0])
	matrix := mat64.NewDense(rows, cols, nil)

	workers := runtime.NumCPU()
	order := make(chan int, workers)
	errs := make([]error, rows)
	var wg sync.WaitGroup

	wg.Add(rows)

	for i := 0; i < workers; i++ {
		go parseLine(records, matrix, errs, order, &wg)
	}

	for i := 0; i < rows; i++ {
		order <- i
	}

	wg.Wait()
	close(order)

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "[CSVtoMat64] %s line %d", path, i+1)
		}
	}

	return matrix, nil
}

func parseLine(records [][]string, matrix *mat64.Dense, errs []error, order <-chan int, wg *sync.WaitGroup) {
	_, cols := matrix.Dims()

	for {
		index, ok := <-order
		if ok {
			if len(records[index]) != cols {
				errs[index] = errors.Errorf("expected %d fields, got %d", cols, len(records[index]))
			} else {
				for i := 0; i < cols; i++ {
					str := strings.TrimSpace(records[index][i])
					value, err := strconv.ParseFloat(str, 64)
					if err != nil {
						errs[index] = err
						break
					}

					matrix.Set(index, i, value)
				}
			}

			wg.Done()
		} else {
			break
		}
	}
	return
}

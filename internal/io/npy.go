package io

import (
	goio "io"
	"os"

	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"
	"github.com/pkg/errors"
)

// Mat64toNpy writes mat64 matrix to Python numpy npy binary file
func Mat64toNpy(path string, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()

	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return errors.Wrapf(err, "[Mat64toNpy] failed to open %s", path)
	}
	w.Shape = []int{rows, cols}
	w.Version = 2

	if err := w.WriteFloat64(denseData(matrix)); err != nil {
		return errors.Wrapf(err, "[Mat64toNpy] failed to write %s", path)
	}

	return nil
}

// NpytoMat64 reads Python numpy npy binary file as mat64 matrix. Float32 and
// integer arrays are widened to float64.
func NpytoMat64(path string) (*mat64.Dense, error) {
	arr, err := readArray(openFile(path))
	if err != nil {
		return nil, errors.Wrapf(err, "[NpytoMat64] %s", path)
	}
	if len(arr.shape) != 2 {
		return nil, errors.Errorf("[NpytoMat64] %s: expected a 2-D array, got shape %v", path, arr.shape)
	}
	if arr.columnMajor {
		return nil, errors.Errorf("[NpytoMat64] %s: fortran ordered arrays are not supported", path)
	}

	rows := arr.shape[0]
	cols := arr.shape[1]
	if rows == 0 || cols == 0 {
		return nil, errors.Errorf("[NpytoMat64] %s: empty array of shape %v", path, arr.shape)
	}

	return mat64.NewDense(rows, cols, arr.data), nil
}

// NpytoInts reads a 1-D integer, unsigned byte or float npy file as ints
func NpytoInts(path string) ([]int, error) {
	values, err := readInts(openFile(path))
	if err != nil {
		return nil, errors.Wrapf(err, "[NpytoInts] %s", path)
	}
	return values, nil
}

// NpytoMask reads a 1-D npy file of any supported dtype; nonzero entries
// are set
func NpytoMask(path string) ([]bool, error) {
	arr, err := readArray(openFile(path))
	if err == nil && len(arr.shape) != 1 {
		err = errors.Errorf("expected a 1-D array, got shape %v", arr.shape)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[NpytoMask] %s", path)
	}

	mask := make([]bool, len(arr.data))
	for i, x := range arr.data {
		mask[i] = x != 0
	}
	return mask, nil
}

func openFile(path string) func() (goio.ReadCloser, error) {
	return func() (goio.ReadCloser, error) { return os.Open(path) }
}

func readInts(open func() (goio.ReadCloser, error)) ([]int, error) {
	arr, err := readArray(open)
	if err != nil {
		return nil, err
	}
	if len(arr.shape) != 1 {
		return nil, errors.Errorf("expected a 1-D array, got shape %v", arr.shape)
	}

	out := make([]int, len(arr.data))
	for i, x := range arr.data {
		out[i] = int(x)
	}
	return out, nil
}

func readFloats(open func() (goio.ReadCloser, error)) ([]float64, error) {
	arr, err := readArray(open)
	if err != nil {
		return nil, err
	}
	return arr.data, nil
}

type npyArray struct {
	shape       []int
	columnMajor bool
	data        []float64
}

// readArray tries every getter on a fresh reader until the dtype matches.
// Arrays with a zero length dimension carry no data to get.
func readArray(open func() (goio.ReadCloser, error)) (*npyArray, error) {
	var firstErr error

	for _, get := range getters {
		arr, err := func() (*npyArray, error) {
			f, err := open()
			if err != nil {
				return nil, err
			}
			defer f.Close()

			r, err := gonpy.NewReader(f)
			if err != nil {
				return nil, err
			}
			arr := &npyArray{shape: r.Shape, columnMajor: r.ColumnMajor}
			if size(r.Shape) == 0 {
				arr.data = []float64{}
				return arr, nil
			}

			arr.data, err = get(r)
			return arr, err
		}()
		if err == nil {
			return arr, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, firstErr
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// getters widen each supported dtype to float64, tried in order
var getters = []func(r *gonpy.NpyReader) ([]float64, error){
	func(r *gonpy.NpyReader) ([]float64, error) {
		return r.GetFloat64()
	},
	func(r *gonpy.NpyReader) ([]float64, error) {
		v, err := r.GetFloat32()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	},
	func(r *gonpy.NpyReader) ([]float64, error) {
		v, err := r.GetInt64()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	},
	func(r *gonpy.NpyReader) ([]float64, error) {
		v, err := r.GetInt32()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	},
	func(r *gonpy.NpyReader) ([]float64, error) {
		v, err := r.GetUint8()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	},
}

// IntstoNpy writes ints as a 1-D int64 npy file
func IntstoNpy(path string, values []int) error {
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return errors.Wrapf(err, "[IntstoNpy] failed to open %s", path)
	}
	w.Shape = []int{len(values)}

	data := make([]int64, len(values))
	for i, v := range values {
		data[i] = int64(v)
	}
	if err := w.WriteInt64(data); err != nil {
		return errors.Wrapf(err, "[IntstoNpy] failed to write %s", path)
	}

	return nil
}

// denseData returns the row-major elements of matrix without padding
func denseData(matrix *mat64.Dense) []float64 {
	rows, cols := matrix.Dims()
	raw := matrix.RawMatrix()
	if raw.Stride == cols {
		return raw.Data[:rows*cols]
	}

	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, raw.Data[i*raw.Stride:i*raw.Stride+cols]...)
	}
	return data
}

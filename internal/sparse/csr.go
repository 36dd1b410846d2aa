package sparse

import (
	"sort"

	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// ErrShape is returned when operand dimensions do not agree
var ErrShape = errors.New("sparse: dimension mismatch")

// CSR is a compressed sparse row matrix, laid out like scipy.sparse.csr_matrix
type CSR struct {
	Rows    int
	Cols    int
	Indptr  []int
	Indices []int
	Data    []float64
}

// NewCSR checks the raw arrays and wraps them without copying
func NewCSR(rows, cols int, indptr, indices []int, data []float64) (*CSR, error) {
	if rows < 0 || cols < 0 {
		return nil, errors.Wrapf(ErrShape, "negative shape %d by %d", rows, cols)
	}
	if len(indptr) != rows+1 {
		return nil, errors.Wrapf(ErrShape, "indptr has %d entries for %d rows", len(indptr), rows)
	}
	if len(indices) != len(data) {
		return nil, errors.Wrapf(ErrShape, "%d indices for %d values", len(indices), len(data))
	}
	if indptr[0] != 0 || indptr[rows] != len(data) {
		return nil, errors.Errorf("sparse: indptr spans [%d, %d) but there are %d values", indptr[0], indptr[rows], len(data))
	}
	for i := 0; i < rows; i++ {
		if indptr[i] > indptr[i+1] {
			return nil, errors.Errorf("sparse: indptr decreases at row %d", i)
		}
	}
	for _, j := range indices {
		if j < 0 || j >= cols {
			return nil, errors.Errorf("sparse: column index %d out of range [0, %d)", j, cols)
		}
	}

	return &CSR{Rows: rows, Cols: cols, Indptr: indptr, Indices: indices, Data: data}, nil
}

// Identity returns the n by n identity matrix
func Identity(n int) *CSR {
	m := &CSR{
		Rows:    n,
		Cols:    n,
		Indptr:  make([]int, n+1),
		Indices: make([]int, n),
		Data:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		m.Indptr[i+1] = i + 1
		m.Indices[i] = i
		m.Data[i] = 1
	}
	return m
}

// Dims returns the shape
func (m *CSR) Dims() (r, c int) { return m.Rows, m.Cols }

// NNZ returns the number of stored values
func (m *CSR) NNZ() int { return len(m.Data) }

// At returns element (i, j)
func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.Rows || j < 0 || j >= m.Cols {
		panic(ErrShape)
	}
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	row := m.Indices[lo:hi]
	k := sort.SearchInts(row, j)
	if k < len(row) && row[k] == j {
		return m.Data[lo+k]
	}
	return 0
}

// ToDense expands the matrix
func (m *CSR) ToDense() *mat64.Dense {
	dense := mat64.NewDense(m.Rows, m.Cols, nil)
	for i := 0; i < m.Rows; i++ {
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			dense.Set(i, m.Indices[k], m.Data[k])
		}
	}
	return dense
}

// Equal reports whether a and b share shape, sparsity structure and values
func Equal(a, b *CSR) bool {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return false
	}
	if len(a.Indptr) != len(b.Indptr) || len(a.Indices) != len(b.Indices) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Indptr {
		if a.Indptr[i] != b.Indptr[i] {
			return false
		}
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] || a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// MulDense computes a * t where a is dense
func MulDense(a *mat64.Dense, t *CSR) (*mat64.Dense, error) {
	rows, cols := a.Dims()
	if cols != t.Rows {
		return nil, errors.Wrapf(ErrShape, "%d by %d times %d by %d", rows, cols, t.Rows, t.Cols)
	}

	out := mat64.NewDense(rows, t.Cols, nil)
	for r := 0; r < rows; r++ {
		src := a.RawRowView(r)
		dst := out.RawRowView(r)
		for i, v := range src {
			if v == 0 {
				continue
			}
			for k := t.Indptr[i]; k < t.Indptr[i+1]; k++ {
				dst[t.Indices[k]] += v * t.Data[k]
			}
		}
	}

	return out, nil
}

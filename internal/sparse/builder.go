package sparse

import (
	"sort"
)

// Builder accumulates (i, j, v) triplets, summing repeated coordinates
type Builder struct {
	rows int
	cols int
	acc  map[int64]float64
}

// NewBuilder returns an empty rows by cols Builder
func NewBuilder(rows, cols int) *Builder {
	return &Builder{
		rows: rows,
		cols: cols,
		acc:  make(map[int64]float64),
	}
}

// Dims returns the shape of the matrix being built
func (b *Builder) Dims() (r, c int) { return b.rows, b.cols }

// Len returns the number of distinct coordinates seen so far
func (b *Builder) Len() int { return len(b.acc) }

// Add adds v at (i, j)
func (b *Builder) Add(i, j int, v float64) {
	if i < 0 || i >= b.rows || j < 0 || j >= b.cols {
		panic(ErrShape)
	}
	b.acc[int64(i)*int64(b.cols)+int64(j)] += v
}

// Merge adds every entry of other into b
func (b *Builder) Merge(other *Builder) {
	if b.rows != other.rows || b.cols != other.cols {
		panic(ErrShape)
	}
	for k, v := range other.acc {
		b.acc[k] += v
	}
}

// Each calls fn for every stored entry in row-major order
func (b *Builder) Each(fn func(i, j int, v float64)) {
	for _, k := range b.sortedKeys() {
		fn(int(k/int64(b.cols)), int(k%int64(b.cols)), b.acc[k])
	}
}

// Reset drops all entries
func (b *Builder) Reset() {
	b.acc = make(map[int64]float64)
}

// Build returns the CSR matrix with sorted column indices
func (b *Builder) Build() *CSR {
	keys := b.sortedKeys()

	m := &CSR{
		Rows:    b.rows,
		Cols:    b.cols,
		Indptr:  make([]int, b.rows+1),
		Indices: make([]int, len(keys)),
		Data:    make([]float64, len(keys)),
	}

	for n, k := range keys {
		i := int(k / int64(b.cols))
		m.Indices[n] = int(k % int64(b.cols))
		m.Data[n] = b.acc[k]
		m.Indptr[i+1]++
	}
	for i := 0; i < b.rows; i++ {
		m.Indptr[i+1] += m.Indptr[i]
	}

	return m
}

func (b *Builder) sortedKeys() []int64 {
	keys := make([]int64, 0, len(b.acc))
	for k := range b.acc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

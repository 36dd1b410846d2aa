package dataset

import (
	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// ErrNodeCount is returned when node indices do not match the feature count
var ErrNodeCount = errors.New("dataset: node index count does not match feature count")

// Dataset is one subject's time points by vertices matrix of one split
type Dataset struct {
	Subject Subject
	Split   Split
	Samples *mat64.Dense

	// NodeIndices[j] is the surface node of feature column j
	NodeIndices []int
}

// Shape returns time points and features
func (d *Dataset) Shape() (int, int) {
	return d.Samples.Dims()
}

// SetNodeIndices labels the feature columns with surface nodes
func (d *Dataset) SetNodeIndices(idx []int) error {
	_, cols := d.Samples.Dims()
	if len(idx) != cols {
		return errors.Wrapf(ErrNodeCount, "subject %s: %d nodes for %d features", d.Subject, len(idx), cols)
	}

	d.NodeIndices = append([]int(nil), idx...)
	return nil
}

// Columns maps surface nodes to feature columns; nodes without a column are
// dropped and the result follows the order of nodes
func (d *Dataset) Columns(nodes []int) []int {
	return Columns(d.ColumnIndex(), nodes)
}

// ColumnIndex maps every labelled surface node to its feature column
func (d *Dataset) ColumnIndex() map[int]int {
	lookup := make(map[int]int, len(d.NodeIndices))
	for col, node := range d.NodeIndices {
		lookup[node] = col
	}
	return lookup
}

// Columns resolves nodes through a prebuilt ColumnIndex
func Columns(lookup map[int]int, nodes []int) []int {
	cols := make([]int, 0, len(nodes))
	for _, node := range nodes {
		if col, ok := lookup[node]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

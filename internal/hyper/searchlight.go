package hyper

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/KyungWonPark/Hyperalignment/internal/dataset"
	"github.com/KyungWonPark/Hyperalignment/internal/sparse"
	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// SearchlightHyperalignment hyperaligns every searchlight of the surface and
// sums the local projections into one features by features matrix per subject
type SearchlightHyperalignment struct {
	Engine *QueryEngine

	NProcs  int
	NBlocks int

	// ScratchDir holds block spill files; empty means the system temp dir
	ScratchDir string

	Options
}

// Run returns one transformation per dataset, in dataset order. Every
// dataset must carry the same node indices; they are also the searchlight
// centers.
func (sl *SearchlightHyperalignment) Run(dss []*dataset.Dataset) ([]*sparse.CSR, error) {
	if err := checkDatasets(dss); err != nil {
		return nil, err
	}
	if sl.Engine == nil {
		return nil, errors.New("[SearchlightHyperalignment] no query engine")
	}
	numWorker := sl.NProcs
	if numWorker < 1 {
		numWorker = 1
	}

	_, numFeat := dss[0].Shape()
	data := make([]*mat64.Dense, len(dss))
	for i, ds := range dss {
		data[i] = ds.Samples
	}
	lookup := dss[0].ColumnIndex()
	centers := dss[0].NodeIndices
	blocks := split(centers, sl.NBlocks)

	var spills []string
	start := time.Now()
	for b, block := range blocks {
		builders, err := sl.block(data, lookup, block, numFeat, numWorker)
		if err != nil {
			removeAll(spills)
			return nil, errors.Wrapf(err, "[SearchlightHyperalignment] block %d", b)
		}

		path, err := spill(sl.ScratchDir, b, builders)
		if err != nil {
			removeAll(spills)
			return nil, err
		}
		spills = append(spills, path)

		log.Printf("[SearchlightHyperalignment] block %d/%d done: %d centers, elapsed %s\n", b+1, len(blocks), len(block), time.Since(start))
	}

	finals := newBuilders(len(dss), numFeat)
	for i, path := range spills {
		if err := unspill(path, finals); err != nil {
			removeAll(spills[i:])
			return nil, err
		}
	}

	mappers := make([]*sparse.CSR, len(dss))
	for i, b := range finals {
		mappers[i] = b.Build()
		log.Printf("[SearchlightHyperalignment] subj: %s mapper %d by %d nnz %d\n", dss[i].Subject, numFeat, numFeat, mappers[i].NNZ())
	}

	return mappers, nil
}

// block aligns every center of one block with numWorker goroutines
func (sl *SearchlightHyperalignment) block(data []*mat64.Dense, lookup map[int]int, centers []int, numFeat int, numWorker int) ([]*sparse.Builder, error) {
	partial := make([][]*sparse.Builder, numWorker)
	errs := make([]error, len(centers))

	order := make(chan int, 1024)
	var wg sync.WaitGroup
	wg.Add(numWorker)
	for w := 0; w < numWorker; w++ {
		partial[w] = newBuilders(len(data), numFeat)
		go sl.align(data, lookup, centers, partial[w], errs, order, &wg)
	}

	for i := range centers {
		order <- i
	}
	close(order)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "center %d", centers[i])
		}
	}

	builders := partial[0]
	for _, p := range partial[1:] {
		for s := range builders {
			builders[s].Merge(p[s])
		}
	}
	return builders, nil
}

func (sl *SearchlightHyperalignment) align(data []*mat64.Dense, lookup map[int]int, centers []int, builders []*sparse.Builder, errs []error, order <-chan int, wg *sync.WaitGroup) {
	defer wg.Done()

	for i := range order {
		nodes, err := sl.Engine.Query(centers[i])
		if err != nil {
			errs[i] = err
			continue
		}

		cols := dataset.Columns(lookup, nodes)
		if len(cols) == 0 {
			continue
		}

		local := make([]*mat64.Dense, len(data))
		for s, d := range data {
			local[s] = columns(d, cols)
		}

		projs, err := Hyperalign(local, sl.Options)
		if err != nil {
			errs[i] = err
			continue
		}

		for s, proj := range projs {
			for a, row := range cols {
				for b, col := range cols {
					if v := proj.At(a, b); v != 0 {
						builders[s].Add(row, col, v)
					}
				}
			}
		}
	}
}

func columns(m *mat64.Dense, cols []int) *mat64.Dense {
	rows, _ := m.Dims()
	out := mat64.NewDense(rows, len(cols), nil)
	col := make([]float64, rows)
	for k, c := range cols {
		mat64.Col(col, c, m)
		out.SetCol(k, col)
	}
	return out
}

// split cuts centers into at most n contiguous blocks of near equal size
func split(centers []int, n int) [][]int {
	if n < 1 {
		n = 1
	}
	if n > len(centers) {
		n = len(centers)
	}

	blocks := make([][]int, 0, n)
	for b := 0; b < n; b++ {
		lo := b * len(centers) / n
		hi := (b + 1) * len(centers) / n
		blocks = append(blocks, centers[lo:hi])
	}
	return blocks
}

func newBuilders(n int, numFeat int) []*sparse.Builder {
	builders := make([]*sparse.Builder, n)
	for i := range builders {
		builders[i] = sparse.NewBuilder(numFeat, numFeat)
	}
	return builders
}

func checkDatasets(dss []*dataset.Dataset) error {
	if len(dss) < 2 {
		return errors.Errorf("[SearchlightHyperalignment] need at least 2 datasets, got %d", len(dss))
	}

	rows, cols := dss[0].Shape()
	ref := dss[0].NodeIndices
	if len(ref) != cols {
		return errors.Wrapf(dataset.ErrNodeCount, "[SearchlightHyperalignment] subj: %s", dss[0].Subject)
	}

	for _, ds := range dss[1:] {
		r, c := ds.Shape()
		if r != rows || c != cols {
			return errors.Errorf("[SearchlightHyperalignment] subj: %s is %d by %d, subj: %s is %d by %d", ds.Subject, r, c, dss[0].Subject, rows, cols)
		}
		if len(ds.NodeIndices) != len(ref) {
			return errors.Wrapf(dataset.ErrNodeCount, "[SearchlightHyperalignment] subj: %s", ds.Subject)
		}
		for j := range ref {
			if ds.NodeIndices[j] != ref[j] {
				return errors.Errorf("[SearchlightHyperalignment] subj: %s labels column %d with node %d, subj: %s with %d", ds.Subject, j, ds.NodeIndices[j], dss[0].Subject, ref[j])
			}
		}
	}

	return nil
}

func removeAll(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			log.Printf("[SearchlightHyperalignment] failed to remove %s: %v\n", path, err)
		}
	}
}

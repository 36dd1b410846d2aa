package nodes

import (
	"log"

	"github.com/KyungWonPark/Hyperalignment/internal/io"
	"github.com/pkg/errors"
)

// ErrUnknownHemisphere is returned for hemisphere keys other than "l", "r" and "b"
var ErrUnknownHemisphere = errors.New("nodes: unknown hemisphere")

// Masks are the per-hemisphere medial wall masks; true keeps a node
type Masks struct {
	L []bool
	R []bool
}

// HemiPair holds the node indices of each hemisphere separately
type HemiPair struct {
	L []int
	R []int
}

// LoadMasks reads both mask files once; any nonzero entry keeps its node
func LoadMasks(lpath string, rpath string) (*Masks, error) {
	l, err := loadMask(lpath)
	if err != nil {
		return nil, err
	}
	r, err := loadMask(rpath)
	if err != nil {
		return nil, err
	}

	if len(l) != len(r) {
		log.Printf("[LoadMasks] hemisphere masks differ in length: l %d r %d\n", len(l), len(r))
	}
	return &Masks{L: l, R: r}, nil
}

func loadMask(path string) ([]bool, error) {
	mask, err := io.NpytoMask(path)
	if err != nil {
		return nil, errors.Wrap(err, "[LoadMasks]")
	}

	kept := 0
	for _, keep := range mask {
		if keep {
			kept++
		}
	}

	log.Printf("[LoadMasks] %s: %d of %d nodes kept\n", path, kept, len(mask))
	return mask, nil
}

// TotalNodes is the node count of one full hemisphere, taken from the left mask
func (m *Masks) TotalNodes() int {
	return len(m.L)
}

// Indices returns the kept nodes among the first surfaceRes nodes of hemi
// ("l" or "r"), ascending; "b" selects both as Combined does
func (m *Masks) Indices(hemi string, surfaceRes int) ([]int, error) {
	var mask []bool
	switch hemi {
	case "b":
		return m.Combined(surfaceRes)
	case "l":
		mask = m.L
	case "r":
		mask = m.R
	default:
		return nil, errors.Wrapf(ErrUnknownHemisphere, "%q", hemi)
	}

	if surfaceRes > len(mask) {
		surfaceRes = len(mask)
	}

	var idx []int
	for i := 0; i < surfaceRes; i++ {
		if mask[i] {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

// Pair returns both hemispheres' indices, the right one shifted by TotalNodes
func (m *Masks) Pair(surfaceRes int) (HemiPair, error) {
	l, err := m.Indices("l", surfaceRes)
	if err != nil {
		return HemiPair{}, err
	}
	r, err := m.Indices("r", surfaceRes)
	if err != nil {
		return HemiPair{}, err
	}

	offset := m.TotalNodes()
	for i := range r {
		r[i] += offset
	}
	return HemiPair{L: l, R: r}, nil
}

// Combined returns left then shifted right indices as one increasing list,
// matching the L|R column order of the datasets and the vertex order of the
// merged surface
func (m *Masks) Combined(surfaceRes int) ([]int, error) {
	pair, err := m.Pair(surfaceRes)
	if err != nil {
		return nil, err
	}

	idx := make([]int, 0, len(pair.L)+len(pair.R))
	idx = append(idx, pair.L...)
	return append(idx, pair.R...), nil
}

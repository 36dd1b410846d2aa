package surf

import (
	"log"

	"github.com/KyungWonPark/Hyperalignment/internal/dataset"
	"github.com/pkg/errors"
)

// Surface is a triangle mesh
type Surface struct {
	Vertices [][3]float64
	Faces    [][3]int
}

// NumVertices returns the vertex count
func (s *Surface) NumVertices() int {
	return len(s.Vertices)
}

// NumFaces returns the face count
func (s *Surface) NumFaces() int {
	return len(s.Faces)
}

// MidThickness averages the white and pial coordinates of one hemisphere.
// Both surfaces must share their topology.
func MidThickness(white, pial *Surface) (*Surface, error) {
	if white.NumVertices() != pial.NumVertices() {
		return nil, errors.Errorf("[MidThickness] white has %d vertices, pial has %d", white.NumVertices(), pial.NumVertices())
	}
	if white.NumFaces() != pial.NumFaces() {
		return nil, errors.Errorf("[MidThickness] white has %d faces, pial has %d", white.NumFaces(), pial.NumFaces())
	}
	for i := range white.Faces {
		if white.Faces[i] != pial.Faces[i] {
			return nil, errors.Errorf("[MidThickness] face %d differs between white and pial", i)
		}
	}

	mid := &Surface{
		Vertices: make([][3]float64, white.NumVertices()),
		Faces:    make([][3]int, white.NumFaces()),
	}
	for i := range mid.Vertices {
		for k := 0; k < 3; k++ {
			mid.Vertices[i][k] = (white.Vertices[i][k] + pial.Vertices[i][k]) / 2
		}
	}
	copy(mid.Faces, white.Faces)

	return mid, nil
}

// Merge returns a surface holding s followed by other; faces of other are
// shifted by the vertex count of s
func (s *Surface) Merge(other *Surface) *Surface {
	offset := s.NumVertices()

	merged := &Surface{
		Vertices: make([][3]float64, 0, offset+other.NumVertices()),
		Faces:    make([][3]int, 0, s.NumFaces()+other.NumFaces()),
	}
	merged.Vertices = append(merged.Vertices, s.Vertices...)
	merged.Vertices = append(merged.Vertices, other.Vertices...)
	merged.Faces = append(merged.Faces, s.Faces...)
	for _, f := range other.Faces {
		merged.Faces = append(merged.Faces, [3]int{f[0] + offset, f[1] + offset, f[2] + offset})
	}

	return merged
}

// LoadFreeSurfer builds both mid-thickness hemispheres and merges them, left first
func LoadFreeSurfer(layout dataset.Layout) (*Surface, error) {
	var merged *Surface

	for _, hemi := range []string{"l", "r"} {
		white, err := ReadGeometry(layout.SurfacePath(hemi, "white"))
		if err != nil {
			return nil, err
		}
		pial, err := ReadGeometry(layout.SurfacePath(hemi, "pial"))
		if err != nil {
			return nil, err
		}

		mid, err := MidThickness(white, pial)
		if err != nil {
			return nil, errors.Wrapf(err, "hemi: %s", hemi)
		}

		if merged == nil {
			merged = mid
		} else {
			merged = merged.Merge(mid)
		}
	}

	log.Printf("[LoadFreeSurfer] merged surface: %d vertices %d faces\n", merged.NumVertices(), merged.NumFaces())
	return merged, nil
}

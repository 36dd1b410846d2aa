package surf

import (
	"bufio"
	"encoding/binary"
	goio "io"
	"log"
	"os"

	"github.com/pkg/errors"
)

// ErrBadMagic is returned for files that are not FreeSurfer triangle surfaces
var ErrBadMagic = errors.New("surf: not a FreeSurfer triangle surface")

var triangleMagic = [3]byte{0xff, 0xff, 0xfe}

// ReadGeometry reads a FreeSurfer triangle surface file (e.g. lh.white)
func ReadGeometry(path string) (*Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[ReadGeometry] %s", path)
	}
	defer f.Close()

	s, err := readGeometry(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "[ReadGeometry] %s", path)
	}

	log.Printf("[ReadGeometry] %s: %d vertices %d faces\n", path, s.NumVertices(), s.NumFaces())
	return s, nil
}

func readGeometry(r *bufio.Reader) (*Surface, error) {
	var magic [3]byte
	if _, err := goio.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != triangleMagic {
		return nil, ErrBadMagic
	}

	// created-by line, terminated by an empty line
	prev := byte(0)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "reading created-by line")
		}
		if b == '\n' && prev == '\n' {
			break
		}
		prev = b
	}

	var counts [2]int32
	if err := binary.Read(r, binary.BigEndian, &counts); err != nil {
		return nil, errors.Wrap(err, "reading counts")
	}
	vnum, fnum := int(counts[0]), int(counts[1])
	if vnum < 0 || fnum < 0 {
		return nil, errors.Errorf("negative counts %d %d", vnum, fnum)
	}

	coords := make([]float32, 3*vnum)
	if err := binary.Read(r, binary.BigEndian, coords); err != nil {
		return nil, errors.Wrap(err, "reading coords")
	}
	faces := make([]int32, 3*fnum)
	if err := binary.Read(r, binary.BigEndian, faces); err != nil {
		return nil, errors.Wrap(err, "reading faces")
	}

	s := &Surface{
		Vertices: make([][3]float64, vnum),
		Faces:    make([][3]int, fnum),
	}
	for i := range s.Vertices {
		for k := 0; k < 3; k++ {
			s.Vertices[i][k] = float64(coords[3*i+k])
		}
	}
	for i := range s.Faces {
		for k := 0; k < 3; k++ {
			v := int(faces[3*i+k])
			if v < 0 || v >= vnum {
				return nil, errors.Errorf("face %d references vertex %d of %d", i, v, vnum)
			}
			s.Faces[i][k] = v
		}
	}

	return s, nil
}

// WriteGeometry writes s as a FreeSurfer triangle surface file
func WriteGeometry(path string, s *Surface, comment string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "[WriteGeometry] %s", path)
	}

	w := bufio.NewWriter(f)
	if err := writeGeometry(w, s, comment); err != nil {
		f.Close()
		return errors.Wrapf(err, "[WriteGeometry] %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "[WriteGeometry] %s", path)
	}
	return f.Close()
}

func writeGeometry(w goio.Writer, s *Surface, comment string) error {
	if _, err := w.Write(triangleMagic[:]); err != nil {
		return err
	}
	if _, err := goio.WriteString(w, "created by "+comment+"\n\n"); err != nil {
		return err
	}

	counts := [2]int32{int32(len(s.Vertices)), int32(len(s.Faces))}
	if err := binary.Write(w, binary.BigEndian, counts); err != nil {
		return err
	}

	coords := make([]float32, 0, 3*len(s.Vertices))
	for _, v := range s.Vertices {
		coords = append(coords, float32(v[0]), float32(v[1]), float32(v[2]))
	}
	if err := binary.Write(w, binary.BigEndian, coords); err != nil {
		return err
	}

	faces := make([]int32, 0, 3*len(s.Faces))
	for _, f := range s.Faces {
		faces = append(faces, int32(f[0]), int32(f[1]), int32(f[2]))
	}
	return binary.Write(w, binary.BigEndian, faces)
}

package hyper

import (
	"bufio"
	"encoding/binary"
	"io/ioutil"
	"log"
	"os"

	"github.com/KyungWonPark/Hyperalignment/internal/sparse"
	"github.com/dustin/go-humanize"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

type entry struct {
	I int32
	J int32
	V float64
}

// spill writes one block's per-subject partial projections to a snappy
// compressed temp file in dir
func spill(dir string, block int, builders []*sparse.Builder) (string, error) {
	f, err := ioutil.TempFile(dir, "slhyper-block-*.snappy")
	if err != nil {
		return "", errors.Wrapf(err, "[spill] block %d", block)
	}

	w := snappy.NewBufferedWriter(f)
	for _, b := range builders {
		entries := make([]entry, 0, b.Len())
		b.Each(func(i, j int, v float64) {
			entries = append(entries, entry{I: int32(i), J: int32(j), V: v})
		})

		if err := binary.Write(w, binary.LittleEndian, int64(len(entries))); err != nil {
			f.Close()
			return "", errors.Wrapf(err, "[spill] block %d", block)
		}
		if err := binary.Write(w, binary.LittleEndian, entries); err != nil {
			f.Close()
			return "", errors.Wrapf(err, "[spill] block %d", block)
		}
	}

	if err := w.Close(); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "[spill] block %d", block)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "[spill] block %d", block)
	}

	if info, err := os.Stat(f.Name()); err == nil {
		log.Printf("[spill] block %d: %s (%s)\n", block, f.Name(), humanize.Bytes(uint64(info.Size())))
	}
	return f.Name(), nil
}

// unspill adds a spill file into builders and removes it
func unspill(path string, builders []*sparse.Builder) error {
	if err := readSpill(path, builders); err != nil {
		return err
	}
	return errors.Wrap(os.Remove(path), "[unspill]")
}

func readSpill(path string, builders []*sparse.Builder) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "[unspill]")
	}
	defer f.Close()

	r := bufio.NewReader(snappy.NewReader(f))
	for s, b := range builders {
		var count int64
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return errors.Wrapf(err, "[unspill] %s subject %d", path, s)
		}

		entries := make([]entry, count)
		if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
			return errors.Wrapf(err, "[unspill] %s subject %d", path, s)
		}
		for _, e := range entries {
			b.Add(int(e.I), int(e.J), e.V)
		}
	}
	return nil
}

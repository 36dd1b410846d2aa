package io

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	goio "io"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/KyungWonPark/Hyperalignment/internal/sparse"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/flate"
	"github.com/kshedden/gonpy"
	"github.com/pkg/errors"
)

// Entry names of a scipy.sparse.save_npz archive
const (
	npzData    = "data.npy"
	npzIndices = "indices.npy"
	npzIndptr  = "indptr.npy"
	npzShape   = "shape.npy"
	npzFormat  = "format.npy"
)

type nopCloser struct {
	goio.Writer
}

func (nopCloser) Close() error { return nil }

// SaveNpz writes a CSR matrix the way scipy.sparse.save_npz does, so that
// scipy.sparse.load_npz can read it back
func SaveNpz(path string, m *sparse.CSR) error {
	return writeArchive(path, func(zw *zip.Writer) error {
		return writeCSR(zw, "", m)
	})
}

// LoadNpz reads a CSR matrix saved by SaveNpz or scipy.sparse.save_npz
func LoadNpz(path string) (*sparse.CSR, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[LoadNpz] failed to open %s", path)
	}
	defer zr.Close()

	m, err := readCSR(entries(zr.File), "")
	if err != nil {
		return nil, errors.Wrapf(err, "[LoadNpz] %s", path)
	}
	return m, nil
}

// SaveArchive writes every mapper into one compressed archive; entries of
// the i-th mapper are prefixed with labels[i]
func SaveArchive(path string, labels []string, mappers []*sparse.CSR) error {
	if len(labels) != len(mappers) {
		return errors.Errorf("[SaveArchive] %d labels for %d mappers", len(labels), len(mappers))
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if label == "" || strings.Contains(label, "_") || seen[label] {
			return errors.Errorf("[SaveArchive] bad or duplicated label %q", label)
		}
		seen[label] = true
	}

	err := writeArchive(path, func(zw *zip.Writer) error {
		for i, m := range mappers {
			if err := writeCSR(zw, labels[i]+"_", m); err != nil {
				return errors.Wrapf(err, "mapper %s", labels[i])
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil {
		log.Printf("[SaveArchive] %d mappers -> %s (%s)\n", len(mappers), path, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// LoadArchive reads an archive written by SaveArchive, in the saved order
func LoadArchive(path string) ([]string, []*sparse.CSR, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[LoadArchive] failed to open %s", path)
	}
	defer zr.Close()

	files := entries(zr.File)

	var labels []string
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "_"+npzData) {
			labels = append(labels, strings.TrimSuffix(f.Name, "_"+npzData))
		}
	}
	if len(labels) == 0 {
		return nil, nil, errors.Errorf("[LoadArchive] %s holds no mappers", path)
	}

	mappers := make([]*sparse.CSR, len(labels))
	for i, label := range labels {
		m, err := readCSR(files, label+"_")
		if err != nil {
			return nil, nil, errors.Wrapf(err, "[LoadArchive] %s: mapper %s", path, label)
		}
		mappers[i] = m
	}

	return labels, mappers, nil
}

func writeArchive(path string, fill func(zw *zip.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out goio.Writer) (goio.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	if err := fill(zw); err != nil {
		zw.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := zw.Close(); err != nil {
		return errors.Wrapf(err, "failed to finish %s", path)
	}
	return f.Close()
}

func writeCSR(zw *zip.Writer, prefix string, m *sparse.CSR) error {
	indices := make([]int32, len(m.Indices))
	for i, v := range m.Indices {
		indices[i] = int32(v)
	}
	indptr := make([]int32, len(m.Indptr))
	for i, v := range m.Indptr {
		indptr[i] = int32(v)
	}

	err := writeNpy(zw, prefix+npzIndices, []int{len(indices)}, func(w *gonpy.NpyWriter) error {
		return w.WriteInt32(indices)
	})
	if err != nil {
		return err
	}
	err = writeNpy(zw, prefix+npzIndptr, []int{len(indptr)}, func(w *gonpy.NpyWriter) error {
		return w.WriteInt32(indptr)
	})
	if err != nil {
		return err
	}

	fw, err := create(zw, prefix+npzFormat)
	if err != nil {
		return err
	}
	if _, err := fw.Write(scalarBytesNpy("csr")); err != nil {
		return errors.Wrapf(err, "failed to write %s", prefix+npzFormat)
	}

	err = writeNpy(zw, prefix+npzShape, []int{2}, func(w *gonpy.NpyWriter) error {
		return w.WriteInt64([]int64{int64(m.Rows), int64(m.Cols)})
	})
	if err != nil {
		return err
	}

	return writeNpy(zw, prefix+npzData, []int{len(m.Data)}, func(w *gonpy.NpyWriter) error {
		return w.WriteFloat64(m.Data)
	})
}

func readCSR(files map[string]*zip.File, prefix string) (*sparse.CSR, error) {
	for _, name := range []string{npzData, npzIndices, npzIndptr, npzShape} {
		if files[prefix+name] == nil {
			return nil, errors.Errorf("missing entry %s", prefix+name)
		}
	}

	if f := files[prefix+npzFormat]; f != nil {
		format, err := readAll(f)
		if err != nil {
			return nil, err
		}
		if !bytes.HasSuffix(bytes.TrimRight(format, "\x00"), []byte("csr")) {
			return nil, errors.Errorf("entry %s is not a csr matrix", prefix+npzFormat)
		}
	}

	shape, err := readInts(files[prefix+npzShape].Open)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %s", prefix+npzShape)
	}
	if len(shape) != 2 {
		return nil, errors.Errorf("entry %s holds %d values", prefix+npzShape, len(shape))
	}
	indices, err := readInts(files[prefix+npzIndices].Open)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %s", prefix+npzIndices)
	}
	indptr, err := readInts(files[prefix+npzIndptr].Open)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %s", prefix+npzIndptr)
	}
	data, err := readFloats(files[prefix+npzData].Open)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %s", prefix+npzData)
	}

	return sparse.NewCSR(shape[0], shape[1], indptr, indices, data)
}

func entries(files []*zip.File) map[string]*zip.File {
	m := make(map[string]*zip.File, len(files))
	for _, f := range files {
		m[f.Name] = f
	}
	return m
}

func create(zw *zip.Writer, name string) (goio.Writer, error) {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create entry %s", name)
	}
	return fw, nil
}

func writeNpy(zw *zip.Writer, name string, shape []int, write func(w *gonpy.NpyWriter) error) error {
	fw, err := create(zw, name)
	if err != nil {
		return err
	}

	w, err := gonpy.NewWriter(nopCloser{fw})
	if err != nil {
		return errors.Wrapf(err, "failed to start entry %s", name)
	}
	w.Shape = shape

	if err := write(w); err != nil {
		return errors.Wrapf(err, "failed to write entry %s", name)
	}
	return nil
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ioutil.ReadAll(rc)
}

// scalarBytesNpy encodes s as a 0-d numpy bytes array (dtype |S<len>)
func scalarBytesNpy(s string) []byte {
	header := fmt.Sprintf("{'descr': '|S%d', 'fortran_order': False, 'shape': (), }", len(s))
	// magic, version and header length take 10 bytes; the header ends with a
	// newline and pads the preamble to a multiple of 64
	pad := (64 - (10+len(header)+1)%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.WriteString(s)
	return buf.Bytes()
}

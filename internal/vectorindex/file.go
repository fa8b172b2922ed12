package vectorindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/kailas-cloud/fundsearch/internal/atomicfile"
	"github.com/kailas-cloud/fundsearch/internal/domain"
)

var magic = [4]byte{'F', 'L', 'I', '1'}

const headerSize = 12

const (
	// maxValues bounds rows×dim so the byte length fits an int on every platform.
	maxValues = math.MaxInt32 / 4
	// preallocLimit caps the up-front allocation when the encoded size is unknown.
	preallocLimit = 1 << 20
)

// WriteTo encodes the index: magic "FLI1", dim uint32, rows uint32, then
// rows×dim little-endian float32.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	var hdr [headerSize]byte
	copy(hdr[:4], magic[:])
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(f.dim))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(f.Len()))

	bw := bufio.NewWriter(w)
	written := int64(0)
	n, err := bw.Write(hdr[:])
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write header: %w", err)
	}
	var buf [4]byte
	for _, v := range f.data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		n, err = bw.Write(buf[:])
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write vectors: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flush: %w", err)
	}
	return written, nil
}

// Read decodes an index written by WriteTo.
func Read(r io.Reader) (*Flat, error) {
	return read(r, -1)
}

// read decodes an index; size is the total encoded length, or -1 when unknown.
func read(r io.Reader, size int64) (*Flat, error) {
	br := bufio.NewReader(r)
	var hdr [headerSize]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("read header: %v: %w", err, domain.ErrIndexCorrupt)
	}
	if [4]byte(hdr[:4]) != magic {
		return nil, fmt.Errorf("bad magic %q: %w", hdr[:4], domain.ErrIndexCorrupt)
	}
	dim := uint64(binary.LittleEndian.Uint32(hdr[4:8]))
	rows := uint64(binary.LittleEndian.Uint32(hdr[8:12]))
	if dim == 0 {
		return nil, fmt.Errorf("zero dimension: %w", domain.ErrIndexCorrupt)
	}

	// Both factors fit in 32 bits, so the product cannot wrap a uint64.
	values := rows * dim
	if values > maxValues {
		return nil, fmt.Errorf("header claims %d rows of dim %d: %w", rows, dim, domain.ErrIndexCorrupt)
	}
	if size >= 0 && values*4 != uint64(size)-headerSize {
		return nil, fmt.Errorf("header claims %d rows of dim %d, file has %d bytes: %w",
			rows, dim, size, domain.ErrIndexCorrupt)
	}

	f := &Flat{dim: int(dim), data: make([]float32, 0, min(values, preallocLimit))}
	var buf [4]byte
	for range values {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, fmt.Errorf("read vectors: %v: %w", err, domain.ErrIndexCorrupt)
		}
		f.data = append(f.data, math.Float32frombits(binary.LittleEndian.Uint32(buf[:])))
	}
	if _, err := br.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after %d rows: %w", rows, domain.ErrIndexCorrupt)
	}
	return f, nil
}

// WriteFile persists the index to path via a temp file in the same directory
// and a rename, so readers never see a partial file.
func (f *Flat) WriteFile(path string) error {
	return atomicfile.Write(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// ReadFile loads an index from path.
func ReadFile(path string) (*Flat, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}
	f, err := read(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	return f, nil
}

package vectorindex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/fundsearch/internal/domain"
)

func newIndex(t *testing.T, vectors ...[]float32) *Flat {
	t.Helper()
	f, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Add(vectors...); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNew_InvalidDim(t *testing.T) {
	if _, err := New(0); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestAdd_DimensionMismatch(t *testing.T) {
	f := newIndex(t)
	err := f.Add([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("partial add: Len = %d", f.Len())
	}
}

func TestSearch_Ordering(t *testing.T) {
	f := newIndex(t,
		[]float32{10, 10},
		[]float32{0, 0},
		[]float32{1, 0},
		[]float32{0, 1},
		[]float32{3, 4},
	)

	got, err := f.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []Neighbor{{Row: 1, Distance: 0}, {Row: 2, Distance: 1}, {Row: 3, Distance: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d neighbours, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("neighbour %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	f := newIndex(t, []float32{1, 1}, []float32{2, 2})
	got, err := f.Search([]float32{2, 2}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Row != 1 || got[1].Distance != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestSearch_EmptyAndBadQuery(t *testing.T) {
	f := newIndex(t)
	got, err := f.Search([]float32{0, 0}, 5)
	if err != nil || len(got) != 0 {
		t.Errorf("empty index: %v %v", got, err)
	}
	if _, err := f.Search([]float32{0}, 5); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearch_MatchesBruteForce(t *testing.T) {
	f, _ := New(3)
	var vecs [][]float32
	for i := range 50 {
		x := float32((i * 37) % 23)
		vecs = append(vecs, []float32{x, float32(i % 7), float32(50 - i)})
	}
	if err := f.Add(vecs...); err != nil {
		t.Fatal(err)
	}
	q := []float32{5, 3, 20}
	got, _ := f.Search(q, 7)
	all, _ := f.Search(q, 50)
	for i := range got {
		if got[i] != all[i] {
			t.Errorf("k=7 result %d = %+v, full scan has %+v", i, got[i], all[i])
		}
	}
}

func TestFile_RoundTrip(t *testing.T) {
	f := newIndex(t, []float32{1.5, -2}, []float32{0.25, 8})
	path := filepath.Join(t.TempDir(), "idx.bin")
	if err := f.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != headerSize+2*2*4 {
		t.Errorf("file size = %d", info.Size())
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Dim() != 2 || loaded.Len() != 2 {
		t.Fatalf("loaded dim=%d len=%d", loaded.Dim(), loaded.Len())
	}
	if v := loaded.Vector(1); v[0] != 0.25 || v[1] != 8 {
		t.Errorf("row 1 = %v", v)
	}
}

func TestRead_Corrupt(t *testing.T) {
	f := newIndex(t, []float32{1, 2})
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	good := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("XXXX"), good[4:]...)},
		{"truncated", good[:len(good)-1]},
		{"trailing", append(append([]byte{}, good...), 0)},
		{"huge header", []byte{'F', 'L', 'I', '1', 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"rows beyond data", append([]byte{'F', 'L', 'I', '1', 2, 0, 0, 0, 0, 0, 0, 0x10}, good[headerSize:]...)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Read(bytes.NewReader(tc.data)); !errors.Is(err, domain.ErrIndexCorrupt) {
				t.Errorf("expected ErrIndexCorrupt, got %v", err)
			}
		})
	}
}

func TestReadFile_SizeMismatch(t *testing.T) {
	f := newIndex(t, []float32{1, 2}, []float32{3, 4})
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	binary.LittleEndian.PutUint32(data[8:12], 1_000_000)

	path := filepath.Join(t.TempDir(), "idx.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); !errors.Is(err, domain.ErrIndexCorrupt) {
		t.Errorf("expected ErrIndexCorrupt, got %v", err)
	}
}

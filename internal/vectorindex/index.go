// Package vectorindex is an exact (brute-force) squared-L2 nearest-neighbour
// index over fixed-dimension float32 vectors.
package vectorindex

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/fundsearch/internal/domain"
)

// Neighbor is one search hit: the row the vector was added at and its squared L2 distance.
type Neighbor struct {
	Row      int
	Distance float32
}

// Flat stores vectors contiguously and scans all of them on search.
// A Flat is not safe for concurrent mutation; searches on a fully built index are.
type Flat struct {
	dim  int
	data []float32
}

// New creates an empty index for vectors of dimension dim.
func New(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("new index: dimension %d: %w", dim, domain.ErrDimensionMismatch)
	}
	return &Flat{dim: dim}, nil
}

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.data) / f.dim }

// Add appends vectors; each gets the next row number.
func (f *Flat) Add(vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("add vector %d: got %d, want %d: %w", i, len(v), f.dim, domain.ErrDimensionMismatch)
		}
	}
	f.data = slices.Grow(f.data, len(vectors)*f.dim)
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Vector returns a copy of the vector stored at row.
func (f *Flat) Vector(row int) []float32 {
	return slices.Clone(f.data[row*f.dim : (row+1)*f.dim])
}

// Search returns up to k nearest rows to q, closest first. Ties keep row order.
func (f *Flat) Search(q []float32, k int) ([]Neighbor, error) {
	if len(q) != f.dim {
		return nil, fmt.Errorf("search: got %d, want %d: %w", len(q), f.dim, domain.ErrDimensionMismatch)
	}
	n := f.Len()
	if k <= 0 || n == 0 {
		return []Neighbor{}, nil
	}
	k = min(k, n)

	// Bounded max-heap keyed on distance; the worst kept hit sits at the root.
	h := make(neighborHeap, 0, k)
	for row := range n {
		d := squaredL2(q, f.data[row*f.dim:(row+1)*f.dim])
		switch {
		case len(h) < k:
			h.push(Neighbor{Row: row, Distance: d})
		case d < h[0].Distance:
			h[0] = Neighbor{Row: row, Distance: d}
			h.down(0)
		}
	}

	out := []Neighbor(h)
	slices.SortFunc(out, func(a, b Neighbor) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return a.Row - b.Row
		}
	})
	return out, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// neighborHeap orders by distance descending, then row descending, so the
// root is always the hit to evict first.
type neighborHeap []Neighbor

func (h neighborHeap) worse(i, j int) bool {
	if h[i].Distance != h[j].Distance {
		return h[i].Distance > h[j].Distance
	}
	return h[i].Row > h[j].Row
}

func (h *neighborHeap) push(n Neighbor) {
	*h = append(*h, n)
	s := *h
	i := len(s) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !s.worse(i, parent) {
			break
		}
		s[i], s[parent] = s[parent], s[i]
		i = parent
	}
}

func (h neighborHeap) down(i int) {
	n := len(h)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		worst := l
		if r := l + 1; r < n && h.worse(r, l) {
			worst = r
		}
		if !h.worse(worst, i) {
			return
		}
		h[i], h[worst] = h[worst], h[i]
		i = worst
	}
}

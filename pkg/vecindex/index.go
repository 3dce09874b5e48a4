package vecindex

import (
	"fmt"
	"math"
	"sort"
)

// Entry is one embedded vulnerability description.
type Entry struct {
	RecordID    string
	Vector      []float32
	Description string
}

// Hit is a query result.
type Hit struct {
	RecordID    string
	Description string
	Distance    float64
}

// DimensionMismatchError reports a vector whose length differs from the
// index dimension.
type DimensionMismatchError struct {
	Want  int
	Got   int
	Index int // position of the offending entry, -1 for a query vector
}

func (e *DimensionMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("vecindex: query dim %d != index dim %d", e.Got, e.Want)
	}
	return fmt.Sprintf("vecindex: entry %d has dim %d, index dim is %d", e.Index, e.Got, e.Want)
}

// Index is an exact brute-force L2 index. It is immutable once built and
// safe for concurrent queries.
type Index struct {
	dim   int
	data  []float32 // n*dim, row-major
	ids   []string
	descs []string
}

// Build stores entries contiguously in insertion order. The first entry
// fixes the dimension.
func Build(entries []Entry) (*Index, error) {
	idx := &Index{}
	if len(entries) == 0 {
		return idx, nil
	}
	dim := len(entries[0].Vector)
	if dim == 0 {
		return nil, &DimensionMismatchError{Want: 0, Got: 0, Index: 0}
	}
	idx.dim = dim
	idx.data = make([]float32, 0, dim*len(entries))
	idx.ids = make([]string, 0, len(entries))
	idx.descs = make([]string, 0, len(entries))
	for i, e := range entries {
		if len(e.Vector) != dim {
			return nil, &DimensionMismatchError{Want: dim, Got: len(e.Vector), Index: i}
		}
		idx.data = append(idx.data, e.Vector...)
		idx.ids = append(idx.ids, e.RecordID)
		idx.descs = append(idx.descs, e.Description)
	}
	return idx, nil
}

func (x *Index) Len() int { return len(x.ids) }

// Dim is 0 for an empty index.
func (x *Index) Dim() int { return x.dim }

// Entry returns a copy of the i-th entry.
func (x *Index) Entry(i int) Entry {
	return Entry{
		RecordID:    x.ids[i],
		Vector:      append([]float32(nil), x.row(i)...),
		Description: x.descs[i],
	}
}

func (x *Index) row(i int) []float32 {
	return x.data[i*x.dim : (i+1)*x.dim]
}

// Query returns the k nearest entries by Euclidean distance, closest first.
// k <= 0 or k larger than the index returns every entry. Equal distances
// keep insertion order.
func (x *Index) Query(vec []float32, k int) ([]Hit, error) {
	if x.Len() == 0 {
		return nil, nil
	}
	if len(vec) != x.dim {
		return nil, &DimensionMismatchError{Want: x.dim, Got: len(vec), Index: -1}
	}

	type scored struct {
		idx  int
		dist float64
	}
	scoreds := make([]scored, x.Len())
	for i := range scoreds {
		scoreds[i] = scored{idx: i, dist: l2(vec, x.row(i))}
	}
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].dist < scoreds[b].dist })

	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	hits := make([]Hit, k)
	for n := 0; n < k; n++ {
		s := scoreds[n]
		hits[n] = Hit{RecordID: x.ids[s.idx], Description: x.descs[s.idx], Distance: s.dist}
	}
	return hits, nil
}

func l2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return math.Sqrt(s)
}

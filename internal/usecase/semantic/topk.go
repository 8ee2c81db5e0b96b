package semantic

import (
	"container/heap"
	"sort"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// scored pairs an embedding record with its similarity score. The raw
// vector is dropped before retention to free memory.
type scored struct {
	record domain.EmbeddingRecord
	score  float64
}

// topK retains the K highest-scoring records from a stream using a bounded
// min-heap: the root is always the weakest retained item, so each candidate
// costs at most one O(log K) fix.
type topK struct {
	k     int
	items []scored
}

func newTopK(k int) *topK {
	return &topK{k: k, items: make([]scored, 0, k)}
}

// Add offers a candidate. It is retained only if fewer than K items are
// held or it beats the current minimum.
func (t *topK) Add(record domain.EmbeddingRecord, score float64) {
	record.RawVector = nil
	if len(t.items) < t.k {
		heap.Push(t, scored{record: record, score: score})
		return
	}
	if score > t.items[0].score {
		t.items[0] = scored{record: record, score: score}
		heap.Fix(t, 0)
	}
}

// Sorted returns the retained items by score descending.
func (t *topK) Sorted() []scored {
	out := make([]scored, len(t.items))
	copy(out, t.items)
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// heap.Interface

func (t *topK) Len() int           { return len(t.items) }
func (t *topK) Less(i, j int) bool { return t.items[i].score < t.items[j].score }
func (t *topK) Swap(i, j int)      { t.items[i], t.items[j] = t.items[j], t.items[i] }

func (t *topK) Push(x any) { t.items = append(t.items, x.(scored)) }

func (t *topK) Pop() any {
	old := t.items
	n := len(old)
	item := old[n-1]
	t.items = old[:n-1]
	return item
}

package blocktemplate

import "container/heap"

// candidateHeap is a container/heap max-heap over *TxInfo, ordered by a
// swappable less function so the same structure serves both the priority
// phase and the fee-rate phase (§4.6 steps 2-3).
type candidateHeap struct {
	items []*TxInfo
	less  func(a, b *TxInfo) bool
}

func newCandidateHeap(items []*TxInfo, less func(a, b *TxInfo) bool) *candidateHeap {
	h := &candidateHeap{items: items, less: less}
	heap.Init(h)

	return h
}

func (h *candidateHeap) Len() int { return len(h.items) }

func (h *candidateHeap) Less(i, j int) bool {
	// container/heap is a min-heap; inverting here makes Pop return the
	// maximum, matching "heap-sort by priority/fee-rate descending."
	return h.less(h.items[j], h.items[i])
}

func (h *candidateHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *candidateHeap) Push(x interface{}) {
	h.items = append(h.items, x.(*TxInfo))
}

func (h *candidateHeap) Pop() interface{} {
	n := len(h.items)
	item := h.items[n-1]
	h.items = h.items[:n-1]

	return item
}

func priorityLess(a, b *TxInfo) bool {
	return a.EffectivePriority() < b.EffectivePriority()
}

func feeRateLess(a, b *TxInfo) bool {
	return a.FeeRate() < b.FeeRate()
}

func popHeap(h *candidateHeap) *TxInfo {
	return heap.Pop(h).(*TxInfo)
}

// fixHeap restores the heap invariant after items were appended directly
// to h.items (as happens when a dependent becomes eligible mid-phase).
func fixHeap(h *candidateHeap) {
	heap.Init(h)
}

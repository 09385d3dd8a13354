package mosaic

// pendingEntry is a split candidate. The score is copied from the node so the
// heap never touches the arena; node errors never change after analysis, so
// entries need no re-keying.
type pendingEntry struct {
	id    NodeID
	score float64
}

// pendingQueue implements container/heap.Interface as a max-heap on score.
// Equal scores pop in creation order (lowest NodeID first).
type pendingQueue []pendingEntry

func (q pendingQueue) Len() int { return len(q) }

func (q pendingQueue) Less(i, j int) bool {
	if q[i].score != q[j].score {
		return q[i].score > q[j].score
	}
	return q[i].id < q[j].id
}

func (q pendingQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pendingQueue) Push(x any) { *q = append(*q, x.(pendingEntry)) }

func (q *pendingQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

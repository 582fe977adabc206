package neat

import "sync"

// connShape is the memoization key for an add-connection event.
type connShape struct {
	From, To int
}

// splitRecord holds everything a node-split innovation produces: the new
// hidden node id and the innovation ids of the two replacement connections.
type splitRecord struct {
	NodeID   int
	InInnov  int64
	OutInnov int64
}

// InnovationTracker assigns stable lineage identifiers to structural
// mutations. It is shared by the whole population for one evolutionary run:
// when two genomes independently discover the same structural change (the same
// connection endpoints, or a split of the same connection), both receive
// identical ids, which is the entire basis for gene alignment in crossover.
//
// The tracker is a single mutex-guarded table. Correctness depends on a strict
// "first mutation of this shape this run wins the id" rule, so if the mutation
// phase is ever parallelized across genomes, all access still funnels through
// the one lock here.
type InnovationTracker struct {
	mu sync.Mutex

	nextInnovation int64
	nextNodeID     int

	connections map[connShape]int64
	splits      map[int64]splitRecord
	issued      map[int64]struct{}
}

// NewInnovationTracker creates a tracker for a new run. firstNodeID must be
// one past the highest node id used by the seed genomes, so that node ids
// handed out for splits never collide with seed nodes.
func NewInnovationTracker(firstNodeID int) *InnovationTracker {
	t := &InnovationTracker{}
	t.Reset(firstNodeID)
	return t
}

// Reset clears all memoized assignments and restarts the counters. Tracker
// state is scoped to one run; callers must reset at run start and never share
// a tracker across runs, or innovation ids from unrelated histories would
// alias.
func (t *InnovationTracker) Reset(firstNodeID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextInnovation = 0
	t.nextNodeID = firstNodeID
	t.connections = make(map[connShape]int64)
	t.splits = make(map[int64]splitRecord)
	t.issued = make(map[int64]struct{})
}

// AssignConnection returns the innovation id for a connection between from and
// to. The first request for a given endpoint pair this run allocates a fresh
// monotonically increasing id; every later request for the same pair, from any
// genome, returns the same id.
func (t *InnovationTracker) AssignConnection(from, to int) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	shape := connShape{From: from, To: to}
	if id, ok := t.connections[shape]; ok {
		return id, nil
	}
	id, err := t.allocate()
	if err != nil {
		return 0, err
	}
	t.connections[shape] = id
	return id, nil
}

// AssignNodeSplit returns the node id and the two replacement connection
// innovations for splitting the connection identified by splitInnovation.
// Like AssignConnection it is memoized: two genomes splitting the same gene
// obtain the same hidden node id and the same pair of innovation ids.
func (t *InnovationTracker) AssignNodeSplit(splitInnovation int64) (nodeID int, inInnov, outInnov int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec, ok := t.splits[splitInnovation]; ok {
		return rec.NodeID, rec.InInnov, rec.OutInnov, nil
	}

	nodeID = t.nextNodeID
	t.nextNodeID++

	inInnov, err = t.allocate()
	if err != nil {
		return 0, 0, 0, err
	}
	outInnov, err = t.allocate()
	if err != nil {
		return 0, 0, 0, err
	}

	t.splits[splitInnovation] = splitRecord{NodeID: nodeID, InInnov: inInnov, OutInnov: outInnov}
	return nodeID, inInnov, outInnov, nil
}

// NextNodeID reports the next node id the tracker would assign. Useful for
// persisting and resuming a run.
func (t *InnovationTracker) NextNodeID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextNodeID
}

// NextInnovation reports the next innovation id the tracker would assign.
func (t *InnovationTracker) NextInnovation() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextInnovation
}

// allocate hands out the next innovation id. The caller must hold t.mu.
// Handing out an id twice means the counter was corrupted by unsynchronized
// access; that breaks alignment population-wide, so it aborts the generation
// rather than continuing.
func (t *InnovationTracker) allocate() (int64, error) {
	id := t.nextInnovation
	if _, dup := t.issued[id]; dup {
		return 0, ErrDuplicateInnovation
	}
	t.issued[id] = struct{}{}
	t.nextInnovation++
	return id, nil
}

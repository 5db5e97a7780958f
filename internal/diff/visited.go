package diff

// DiffStatus is the outcome of comparing two types.
type DiffStatus int

const (
	NoDiff DiffStatus = iota
	IndirectDiff
	DirectDiff
)

func (s DiffStatus) String() string {
	switch s {
	case NoDiff:
		return "no_diff"
	case IndirectDiff:
		return "indirect_diff"
	case DirectDiff:
		return "direct_diff"
	}
	return "unknown"
}

// worse returns the more severe of a and b.
func worse(a, b DiffStatus) DiffStatus {
	return max(a, b)
}

// typePair identifies one comparison: an old self type against a new one.
type typePair struct {
	old, new string
}

type visit struct {
	status DiffStatus
	done   bool
}

// visitedSet remembers which type pairs a session has compared.
//
// A pair is entered before its comparison starts and finished when it
// returns. Looking up an entered but unfinished pair means the graph
// recursed back into it. Not safe for concurrent use; each Session owns one.
type visitedSet struct {
	pairs map[typePair]*visit
}

func newVisitedSet() *visitedSet {
	return &visitedSet{pairs: make(map[typePair]*visit)}
}

// lookup returns the known status of p. ok is false for a pair never seen.
// A pair still in progress reports NoDiff.
func (v *visitedSet) lookup(p typePair) (DiffStatus, bool) {
	e, ok := v.pairs[p]
	if !ok {
		return NoDiff, false
	}
	if !e.done {
		return NoDiff, true
	}
	return e.status, true
}

func (v *visitedSet) enter(p typePair) {
	v.pairs[p] = &visit{}
}

func (v *visitedSet) finish(p typePair, s DiffStatus) {
	v.pairs[p] = &visit{status: s, done: true}
}

// abandon forgets p after a fatal error so the set stays consistent.
func (v *visitedSet) abandon(p typePair) {
	delete(v.pairs, p)
}

// Len returns the number of pairs seen.
func (v *visitedSet) Len() int {
	return len(v.pairs)
}

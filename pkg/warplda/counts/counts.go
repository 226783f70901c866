// Package counts maintains the dense count tables WarpLDA's proposals
// and acceptance ratios read from: n_wk (word x topic), n_dk (doc x
// topic), and n_k (topic totals), plus a parallel delta copy used by
// the distributed coordinator to merge per-shard changes additively.
package counts

import "github.com/cognicore/warplda/pkg/warplda/corpus"

// Tables holds the three dense count tables a collapsed Gibbs sampler needs.
// Cells use 32-bit integers, per the design's tolerance for corpora
// with T <= 2^31 tokens; NK is kept as int64 since it is a small
// per-topic accumulator and summing V rows of int32 into it risks
// overflow sooner than any individual cell would.
type Tables struct {
	NWK [][]int32 // V x K
	NDK [][]int32 // D x K
	NK  []int64   // K

	// deltaNWK/deltaNK mirror NWK/NK and accumulate local changes since
	// the last ResetLocal, for distributed merging (LocalDelta/ApplyDelta).
	deltaNWK [][]int32
	deltaNK  []int64

	v, d, k int
}

// New allocates zeroed count tables for a corpus of vocab size v,
// d documents, and k topics.
func New(v, d, k int) *Tables {
	t := &Tables{v: v, d: d, k: k}
	t.NWK = make2D(v, k)
	t.NDK = make2D(d, k)
	t.NK = make([]int64, k)
	t.deltaNWK = make2D(v, k)
	t.deltaNK = make([]int64, k)
	return t
}

func make2D(rows, cols int) [][]int32 {
	flat := make([]int32, rows*cols)
	out := make([][]int32, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return out
}

// InitFromStore builds the initial counts from every token's current
// (z_new) assignment: fit binds the token
// store, then builds initial counts from the random seed assignments.
func InitFromStore(s *corpus.Store, k int) *Tables {
	t := New(s.Vocab(), s.Docs(), k)
	for i := range s.Tokens {
		tok := &s.Tokens[i]
		t.NDK[tok.Doc][tok.ZNew]++
		t.NWK[tok.Word][tok.ZNew]++
		t.NK[tok.ZNew]++
	}
	return t
}

// Add assigns one token of document d, word w to topic k, updating all
// three tables (and the local delta, for distributed use).
func (t *Tables) Add(d, w, k int32) {
	t.NDK[d][k]++
	t.NWK[w][k]++
	t.NK[k]++
	t.deltaNWK[w][k]++
	t.deltaNK[k]++
}

// Remove un-assigns one token of document d, word w from topic k.
func (t *Tables) Remove(d, w, k int32) {
	t.NDK[d][k]--
	t.NWK[w][k]--
	t.NK[k]--
	t.deltaNWK[w][k]--
	t.deltaNK[k]--
}

// AddDocOnly updates only n_dk, for the doc sweep (which never touches
// n_wk/n_k; the doc sweep lives in the sweep package).
func (t *Tables) AddDocOnly(d, k int32) { t.NDK[d][k]++ }

// RemoveDocOnly updates only n_dk.
func (t *Tables) RemoveDocOnly(d, k int32) { t.NDK[d][k]-- }

// AddWordOnly updates n_wk and n_k (and the local delta), for the word
// sweep in fit mode.
func (t *Tables) AddWordOnly(w, k int32) {
	t.NWK[w][k]++
	t.NK[k]++
	t.deltaNWK[w][k]++
	t.deltaNK[k]++
}

// RemoveWordOnly updates n_wk and n_k (and the local delta).
func (t *Tables) RemoveWordOnly(w, k int32) {
	t.NWK[w][k]--
	t.NK[k]--
	t.deltaNWK[w][k]--
	t.deltaNK[k]--
}

// Global is an immutable snapshot of the word-side tables, shipped to
// distributed workers at the start of each outer iteration.
type Global struct {
	NWK [][]int32
	NK  []int64
}

// SnapshotGlobal copies the current n_wk/n_k tables for broadcast to
// workers. n_dk is never shared: documents are partitioned, not replicated.
func (t *Tables) SnapshotGlobal() Global {
	nwk := make2D(t.v, t.k)
	for w := range t.NWK {
		copy(nwk[w], t.NWK[w])
	}
	nk := make([]int64, t.k)
	copy(nk, t.NK)
	return Global{NWK: nwk, NK: nk}
}

// ApplyGlobal overwrites the local word-side tables with a broadcast
// snapshot. Used by a distributed worker at the start of its sweep.
func (t *Tables) ApplyGlobal(g Global) {
	for w := range t.NWK {
		copy(t.NWK[w], g.NWK[w])
	}
	copy(t.NK, g.NK)
}

// Delta is a count table of per-sweep changes, additively mergeable
// across disjoint document shards.
type Delta struct {
	NWK [][]int32
	NK  []int64
}

// LocalDelta returns the accumulated changes to n_wk/n_k since the last
// ResetLocal.
func (t *Tables) LocalDelta() Delta {
	nwk := make2D(t.v, t.k)
	for w := range t.deltaNWK {
		copy(nwk[w], t.deltaNWK[w])
	}
	nk := make([]int64, t.k)
	copy(nk, t.deltaNK)
	return Delta{NWK: nwk, NK: nk}
}

// ResetLocal zeroes the delta accumulator without touching NWK/NDK/NK.
func (t *Tables) ResetLocal() {
	for w := range t.deltaNWK {
		for k := range t.deltaNWK[w] {
			t.deltaNWK[w][k] = 0
		}
	}
	for k := range t.deltaNK {
		t.deltaNK[k] = 0
	}
}

// ApplyDelta adds a worker's delta onto the global tables element-wise.
// Correct because each shard's delta is the count difference produced
// by that shard's own (disjoint) token moves.
func (g *Global) ApplyDelta(d Delta) {
	for w := range g.NWK {
		for k := range g.NWK[w] {
			g.NWK[w][k] += d.NWK[w][k]
		}
	}
	for k := range g.NK {
		g.NK[k] += d.NK[k]
	}
}

// CheckInvariants verifies, for every topic k, that
// sum_w n_wk[w][k] == n_k[k] == sum_d n_dk[d][k].
// Exposed for property tests; not used in the hot path.
func (t *Tables) CheckInvariants() bool {
	fromWK := make([]int64, t.k)
	for w := range t.NWK {
		for k, c := range t.NWK[w] {
			fromWK[k] += int64(c)
		}
	}
	fromDK := make([]int64, t.k)
	for d := range t.NDK {
		for k, c := range t.NDK[d] {
			fromDK[k] += int64(c)
		}
	}
	for k := 0; k < t.k; k++ {
		if fromWK[k] != t.NK[k] || fromDK[k] != t.NK[k] {
			return false
		}
	}
	return true
}

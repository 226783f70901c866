// Package distributed implements the shard-parallel coordinator:
// each worker owns a disjoint document shard and a local model sharing
// K, α, β; the coordinator ships global counts out, collects per-shard
// deltas back, and reduces them by addition.
//
// The worker/coordinator split is message-passing over channels, not a
// shared mutable environment: work indices go down one channel, finished
// results come back up another, and workers never touch each other's state.
package distributed

import (
	"math/rand"

	"github.com/cognicore/warplda/pkg/warplda/corpus"
	"github.com/cognicore/warplda/pkg/warplda/counts"
	"github.com/cognicore/warplda/pkg/warplda/sweep"
)

// Shard is one worker's slice of the corpus: its own token store (built
// over only its documents) and its own local count tables, seeded from
// the global snapshot at the start of each outer iteration.
type Shard struct {
	Store  *corpus.Store
	Tables *counts.Tables
	rng    *rand.Rand
}

// NewShard builds a worker's local state from its document slice of the
// CSR matrix and the shared hyperparameters.
func NewShard(m corpus.Matrix, k int, seed int64) (*Shard, error) {
	rng := rand.New(rand.NewSource(seed))
	store, err := corpus.Build(m, k, rng)
	if err != nil {
		return nil, err
	}
	tables := counts.InitFromStore(store, k)
	return &Shard{Store: store, Tables: tables, rng: rng}, nil
}

// workResult is what a worker reports back after one outer iteration:
// its local delta (for additive merge) and its local pseudo-likelihood
// contribution, the two things the coordinator needs and nothing else.
type workResult struct {
	index int
	delta counts.Delta
	ll    float64
}

// Coordinator drives W workers through repeated outer iterations. It
// never touches a worker's n_dk (never shared) and only ever
// reduces n_wk/n_k deltas into the global tables.
type Coordinator struct {
	Shards []*Shard
	Params sweep.Params
}

// NewCoordinator wires a set of pre-built shards together.
func NewCoordinator(shards []*Shard, p sweep.Params) *Coordinator {
	return &Coordinator{Shards: shards, Params: p}
}

// RunIteration executes one outer iteration of the protocol:
//  1. broadcast the current global snapshot to every worker
//  2. each worker resets its local delta, runs one doc sweep and one
//     word sweep over its own shard, and reports back
//  3. the coordinator reduces deltas into global by addition and sums
//     the per-shard pseudo-log-likelihoods as the iteration score.
func (c *Coordinator) RunIteration(global *counts.Tables, llOf func(*counts.Tables) float64) float64 {
	snapshot := global.SnapshotGlobal()

	push := make(chan int, len(c.Shards))
	results := make(chan workResult, len(c.Shards))

	for i := range c.Shards {
		push <- i
	}
	close(push)

	for w := 0; w < len(c.Shards); w++ {
		go func() {
			for i := range push {
				shard := c.Shards[i]
				shard.Tables.ApplyGlobal(snapshot)
				shard.Tables.ResetLocal()

				sweep.Doc(shard.rng, shard.Store, shard.Tables, c.Params)
				sweep.Word(shard.rng, shard.Store, shard.Tables, c.Params, true)

				results <- workResult{
					index: i,
					delta: shard.Tables.LocalDelta(),
					ll:    llOf(shard.Tables),
				}
			}
		}()
	}

	// snapshot is read-only for the lifetime of the fan-out above; only
	// now, once every worker has finished reading it, do we fold their
	// deltas in. Applying deltas to snapshot while a straggler worker
	// might still call ApplyGlobal(snapshot) would be a data race.
	deltas := make([]workResult, 0, len(c.Shards))
	var totalLL float64
	for range c.Shards {
		deltas = append(deltas, <-results)
	}
	for _, r := range deltas {
		snapshot.ApplyDelta(r.delta)
		totalLL += r.ll
	}

	global.ApplyGlobal(snapshot)
	return totalLL
}

// GatherDocTopic concatenates every shard's n_dk into a single global
// D_total x K matrix, in shard order. This resolves the open question
// shards partition documents, so concatenation (not a numeric
// reduction) is the correct merge for the doc-topic side.
func GatherDocTopic(shards []*Shard) [][]int32 {
	var out [][]int32
	for _, s := range shards {
		out = append(out, s.Tables.NDK...)
	}
	return out
}

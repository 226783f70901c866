package distributed

import (
	"math"
	"testing"

	"github.com/cognicore/warplda/pkg/warplda/corpus"
	"github.com/cognicore/warplda/pkg/warplda/counts"
	"github.com/cognicore/warplda/pkg/warplda/sampler"
	"github.com/cognicore/warplda/pkg/warplda/sweep"
	"github.com/cognicore/warplda/pkg/warplda/train"
)

func shardMatrix(rows [][2]int) corpus.Matrix {
	// each row is a tiny two-word doc over vocab {a,b,c,d}
	indptr := []int{0}
	var indices []int
	var data []uint32
	for _, r := range rows {
		indices = append(indices, r[0], r[1])
		data = append(data, 1, 1)
		indptr = append(indptr, len(indices))
	}
	return corpus.Matrix{
		ColLabels: []string{"a", "b", "c", "d"},
		Indptr:    indptr,
		Indices:   indices,
		Data:      data,
	}
}

func TestRunIterationMergesDeltasAdditively(t *testing.T) {
	shard1, err := NewShard(shardMatrix([][2]int{{0, 1}, {0, 1}}), 2, 1)
	if err != nil {
		t.Fatalf("NewShard: %v", err)
	}
	shard2, err := NewShard(shardMatrix([][2]int{{2, 3}, {2, 3}}), 2, 2)
	if err != nil {
		t.Fatalf("NewShard: %v", err)
	}

	// The global word-side tables start as the sum of both shards'
	// initial n_wk/n_k, so they count all 8 tokens before the merge.
	global := counts.New(4, 0, 2)
	for _, sh := range []*Shard{shard1, shard2} {
		for w, row := range sh.Tables.NWK {
			for k, c := range row {
				global.NWK[w][k] += c
			}
		}
		for k, c := range sh.Tables.NK {
			global.NK[k] += c
		}
	}
	coord := NewCoordinator([]*Shard{shard1, shard2}, sweep.Params{K: 2, Alpha: 0.1, Beta: 0.1, VBeta: 0.4})

	betaCache := sampler.NewLGammaCache(0.1, 16)
	vbetaCache := sampler.NewLGammaCache(0.4, 16)
	llOf := func(t *counts.Tables) float64 {
		ll, _ := train.PseudoLogLikelihood(t, betaCache, vbetaCache)
		return ll
	}

	totalLL := coord.RunIteration(global, llOf)
	wantLL := llOf(shard1.Tables) + llOf(shard2.Tables)
	if math.Abs(totalLL-wantLL) > 1e-9 {
		t.Fatalf("totalLL = %v, want %v (sum of per-shard pseudo-log-likelihoods)", totalLL, wantLL)
	}

	var sumNK int64
	for _, v := range global.NK {
		sumNK += v
	}
	if sumNK != 8 {
		t.Fatalf("sum(global.NK) = %d, want 8 (4 tokens per shard x 2 shards)", sumNK)
	}
}

func TestGatherDocTopicConcatenatesShards(t *testing.T) {
	shard1, err := NewShard(shardMatrix([][2]int{{0, 1}}), 2, 1)
	if err != nil {
		t.Fatalf("NewShard: %v", err)
	}
	shard2, err := NewShard(shardMatrix([][2]int{{2, 3}, {2, 3}}), 2, 2)
	if err != nil {
		t.Fatalf("NewShard: %v", err)
	}

	gathered := GatherDocTopic([]*Shard{shard1, shard2})
	if len(gathered) != 3 {
		t.Fatalf("len(gathered) = %d, want 3 (1 doc from shard1 + 2 docs from shard2)", len(gathered))
	}
}

// Package train drives the alternating doc/word sweeps: n_iter
// iterations, with a pseudo-log-likelihood convergence probe every
// n_check_convergence iterations.
package train

import (
	cryptorand "crypto/rand"
	"fmt"
	"math"
	mrand "math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/warplda/pkg/warplda/corpus"
	"github.com/cognicore/warplda/pkg/warplda/counts"
	"github.com/cognicore/warplda/pkg/warplda/internalerr"
	"github.com/cognicore/warplda/pkg/warplda/sampler"
	"github.com/cognicore/warplda/pkg/warplda/sweep"
)

// ProgressEvent is delivered to the progress sink at every convergence
// check: (iter, ℓ, elapsed).
type ProgressEvent struct {
	Iter    int
	LL      float64
	Elapsed time.Duration
}

// ProgressSink receives progress events. Implementations are expected
// to be cheap (e.g. logging); the trainer only calls this at check
// points, never per-token.
type ProgressSink interface {
	Report(ProgressEvent)
}

// NoopSink discards progress events.
type NoopSink struct{}

// Report implements ProgressSink.
func (NoopSink) Report(ProgressEvent) {}

// Checkpoint records one convergence check's result. Result keeps every
// checkpoint of a run, in order, so callers can inspect why training
// stopped without re-deriving it from logs.
type Checkpoint struct {
	Iter int
	LL   float64
}

// Config bundles the trainer's inputs.
type Config struct {
	NIter             int
	ConvergenceTol    float64 // negative disables early stop
	NCheckConvergence int
	UpdateTopics      bool
	Sink              ProgressSink
}

// Result is what a completed (or cancelled) training run leaves behind.
type Result struct {
	RunID       string // monotonic ULID stamped at the start of the run
	Iterations  int    // iterations actually executed
	Checkpoints []Checkpoint
	Converged   bool
}

var entropySource = ulid.Monotonic(cryptorand.Reader, 0)

// NewRunID mints a monotonic ULID identifying one training run.
func NewRunID() string {
	return ulid.MustNew(ulid.Now(), entropySource).String()
}

// Run alternates doc and word sweeps for cfg.NIter iterations (or until
// cancel reports true between sweeps), checking convergence every
// cfg.NCheckConvergence iterations. Run creates its own LGammaCache
// pair (for β and Vβ) to memoize the pseudo-log-likelihood's lgamma
// evaluations across checks.
func Run(rng *mrand.Rand, store *corpus.Store, t *counts.Tables, p sweep.Params, cfg Config, cancel func() bool) Result {
	if cfg.Sink == nil {
		cfg.Sink = NoopSink{}
	}
	start := time.Now()
	res := Result{RunID: NewRunID()}

	betaCache := sampler.NewLGammaCache(p.Beta, store.NumTokens()+1)
	vbetaCache := sampler.NewLGammaCache(p.VBeta, store.NumTokens()+1)

	for i := 1; i <= cfg.NIter; i++ {
		sweep.Doc(rng, store, t, p)
		sweep.Word(rng, store, t, p, cfg.UpdateTopics)
		res.Iterations = i

		if cfg.NCheckConvergence > 0 && i%cfg.NCheckConvergence == 0 {
			ll, err := PseudoLogLikelihood(t, betaCache, vbetaCache)
			if err != nil {
				return res
			}
			res.Checkpoints = append(res.Checkpoints, Checkpoint{Iter: i, LL: ll})
			cfg.Sink.Report(ProgressEvent{Iter: i, LL: ll, Elapsed: time.Since(start)})

			if cfg.ConvergenceTol >= 0 && len(res.Checkpoints) >= 2 {
				prev := res.Checkpoints[len(res.Checkpoints)-2].LL
				curr := ll
				if curr != 0 && prev/curr-1 < cfg.ConvergenceTol {
					res.Converged = true
					return res
				}
			}
		}

		if cancel != nil && cancel() {
			return res
		}
	}
	return res
}

// PseudoLogLikelihood computes ℓ = Σ_w Σ_k lgamma(n_wk[w][k]+β) −
// Σ_k lgamma(n_k[k]+Vβ), the collapsed log-marginal over the
// topic-word Dirichlet (per-document terms omitted by design).
// Returns internalerr.ErrNumerical if the result is non-finite.
func PseudoLogLikelihood(t *counts.Tables, betaCache, vbetaCache *sampler.LGammaCache) (float64, error) {
	var ll float64
	for _, row := range t.NWK {
		for _, c := range row {
			ll += betaCache.LGamma(c)
		}
	}
	for _, nk := range t.NK {
		ll -= vbetaCache.LGamma(clampInt32(nk))
	}
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		return 0, fmt.Errorf("train: %w at pseudo-log-likelihood computation", internalerr.ErrNumerical)
	}
	return ll, nil
}

// clampInt32 guards the LGammaCache key type; n_k only exceeds
// math.MaxInt32 for corpora far beyond what a dense in-memory sampler
// can hold in the first place.
func clampInt32(n int64) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}

// Package sampler implements WarpLDA's two O(1) proposal distributions
// and the Metropolis-Hastings acceptance ratio they feed.
//
// Both proposals are drawn against *unnormalized* proportional values:
// the MH ratio only ever needs p(t)/p(s) and q(s)/q(t), so the shared
// normalizing constants of p and q cancel without ever being computed.
package sampler

import (
	"math"
	"math/rand"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxWordProposalAttempts bounds the rejection loop in DrawWordProposal.
// Acceptance probability is vbeta/(n_k[k]+vbeta) which is at worst the
// ratio of the smallest to largest denominator seen in practice; a few
// retries is enough, and the bounded fallback keeps sampling O(1).
const maxWordProposalAttempts = 8

// DrawDocProposal draws k' ~ q_d(k) ∝ n_dk[d][k] + α in O(1) amortized:
// with probability docLen/(docLen+Kα) it copies the topic of a
// uniformly chosen existing token of d (docTokenZ(i) returns that
// token's current topic); otherwise it draws a topic uniformly.
func DrawDocProposal(rng *rand.Rand, docLen int, k int, alpha float64, docTokenZ func(i int) int32) int32 {
	if docLen == 0 {
		return int32(rng.Intn(k))
	}
	r := rng.Float64() * (float64(docLen) + float64(k)*alpha)
	if r < float64(docLen) {
		return docTokenZ(rng.Intn(docLen))
	}
	return int32(rng.Intn(k))
}

// DrawWordProposal draws k' ~ q_w(k) ∝ (n_wk[w][k] + β)/(n_k[k] + Vβ)
// in O(1) amortized: with probability wordLen/(wordLen+Kβ) it copies
// the topic of a uniformly chosen existing token of w (wordTokenZ);
// otherwise it samples a topic uniformly and accepts it with
// probability proportional to 1/(n_k[k] + Vβ), via rejection sampling
// against the bound 1/Vβ (the largest value 1/(n_k[k]+Vβ) can take).
func DrawWordProposal(rng *rand.Rand, wordLen int, k int, beta, vbeta float64, nk []int64, wordTokenZ func(i int) int32) int32 {
	if wordLen == 0 {
		return int32(rng.Intn(k))
	}
	if rng.Float64() < float64(wordLen)/(float64(wordLen)+float64(k)*beta) {
		return wordTokenZ(rng.Intn(wordLen))
	}
	for attempt := 0; attempt < maxWordProposalAttempts; attempt++ {
		cand := rng.Intn(k)
		threshold := vbeta / (float64(nk[cand]) + vbeta)
		if rng.Float64() < threshold {
			return int32(cand)
		}
	}
	return int32(rng.Intn(k))
}

// Target returns the unnormalized collapsed Gibbs target
// (n_dk[d][k]+α)(n_wk[w][k]+β)/(n_k[k]+Vβ) for topic k, given the
// relevant count-table cells.
func Target(ndk int32, nwk int32, nk int64, alpha, beta, vbeta float64) float64 {
	return (float64(ndk) + alpha) * (float64(nwk) + beta) / (float64(nk) + vbeta)
}

// DocProposalWeight returns the unnormalized q_d(k) = n_dk[d][k] + α.
func DocProposalWeight(ndk int32, alpha float64) float64 {
	return float64(ndk) + alpha
}

// WordProposalWeight returns the unnormalized q_w(k) = (n_wk[w][k]+β)/(n_k[k]+Vβ).
func WordProposalWeight(nwk int32, nk int64, beta, vbeta float64) float64 {
	return (float64(nwk) + beta) / (float64(nk) + vbeta)
}

// Accept computes the Metropolis-Hastings acceptance probability
// π = min(1, [p(t)/p(s)]·[q(s)/q(t)]) and draws whether to accept.
// pS, pT are the (unnormalized) collapsed Gibbs target at the current
// and proposed topics; qS, qT are the (unnormalized) proposal weight
// at the same two topics, under whichever proposal distribution drew t.
func Accept(rng *rand.Rand, pS, pT, qS, qT float64) bool {
	if qT <= 0 {
		return false
	}
	ratio := (pT / pS) * (qS / qT)
	if ratio >= 1 {
		return true
	}
	return rng.Float64() < ratio
}

// LGammaCache memoizes lgamma(float64(count)+prior) for the trainer's
// pseudo-log-likelihood probe: with a fixed prior, the same small set
// of integer counts recurs across every (word, topic) cell and every
// convergence check, so caching pays for itself after a handful of
// iterations over a sizeable vocabulary.
type LGammaCache struct {
	prior float64
	cache *lru.Cache[int32, float64]
}

// NewLGammaCache creates a cache for lgamma(x+prior), sized for size
// distinct count values (a sane default tracks the largest per-cell
// count seen in the corpus).
func NewLGammaCache(prior float64, size int) *LGammaCache {
	if size < 1 {
		size = 1
	}
	c, _ := lru.New[int32, float64](size)
	return &LGammaCache{prior: prior, cache: c}
}

// LGamma returns lgamma(float64(count) + prior), memoized.
func (c *LGammaCache) LGamma(count int32) float64 {
	if v, ok := c.cache.Get(count); ok {
		return v
	}
	v, _ := math.Lgamma(float64(count) + c.prior)
	c.cache.Add(count, v)
	return v
}

// Package sweep implements the two WarpLDA sweep kinds: the doc
// sweep groups tokens by document and resamples with the doc-proposal
// against stale word-side counts; the word sweep groups tokens by word
// and resamples with the word-proposal against stale doc-side counts.
package sweep

import (
	"math/rand"

	"github.com/cognicore/warplda/pkg/warplda/corpus"
	"github.com/cognicore/warplda/pkg/warplda/counts"
	"github.com/cognicore/warplda/pkg/warplda/sampler"
)

// Params bundles the hyperparameters a sweep needs.
type Params struct {
	K     int
	Alpha float64
	Beta  float64
	VBeta float64
}

// Doc runs one doc sweep over every document in store, resampling each
// token with the doc-proposal. n_wk/n_k are never touched here (they
// are the stale side); only n_dk changes, which is why a doc sweep
// takes no updateTopics flag: update_topics gates the n_wk/n_k updates
// of the *word* sweep, and this sweep makes none.
func Doc(rng *rand.Rand, store *corpus.Store, t *counts.Tables, p Params) {
	for d := 0; d < store.Docs(); d++ {
		idx := store.DocTokenIndices(d)
		if len(idx) == 0 {
			continue // empty document: doc sweep is a no-op
		}
		tokenZ := func(i int) int32 { return store.GetZ(idx[i]) }

		for _, ti := range idx {
			tok := store.Tokens[ti]
			s := tok.ZOld
			w := tok.Word

			// Leave-one-out: remove this token's current contribution
			// to n_dk before drawing and scoring a replacement, the
			// standard collapsed-Gibbs convention. n_dk currently holds
			// this token under s (tok.ZOld), not tok.ZNew: the previous
			// word sweep's SetZ already shifted the doc sweep's last
			// accepted topic into ZOld and stamped its own decision into
			// ZNew.
			t.RemoveDocOnly(int32(d), s)

			proposed := sampler.DrawDocProposal(rng, len(idx), p.K, p.Alpha, tokenZ)

			pS := sampler.Target(t.NDK[d][s], t.NWK[w][s], t.NK[s], p.Alpha, p.Beta, p.VBeta)
			pT := sampler.Target(t.NDK[d][proposed], t.NWK[w][proposed], t.NK[proposed], p.Alpha, p.Beta, p.VBeta)
			qS := sampler.DocProposalWeight(t.NDK[d][s], p.Alpha)
			qT := sampler.DocProposalWeight(t.NDK[d][proposed], p.Alpha)

			accepted := s
			if sampler.Accept(rng, pS, pT, qS, qT) {
				accepted = proposed
			}

			t.AddDocOnly(int32(d), accepted)
			store.SetZ(ti, accepted)
		}
	}
}

// Word runs one word sweep over every word in store, resampling each
// token with the word-proposal. When updateTopics is false (inference
// mode against a frozen model), the proposal and MH test still run,
// to keep the token's z_old/z_new chain valid, but n_wk/n_k are left
// untouched.
func Word(rng *rand.Rand, store *corpus.Store, t *counts.Tables, p Params, updateTopics bool) {
	for w := 0; w < store.Vocab(); w++ {
		idx := store.WordTokenIndices(w)
		if len(idx) == 0 {
			continue // word never occurs: word sweep is a no-op
		}
		tokenZ := func(i int) int32 { return store.GetZ(idx[i]) }

		for _, ti := range idx {
			tok := store.Tokens[ti]
			s := tok.ZOld
			d := tok.Doc

			// n_wk currently holds this token under s (tok.ZOld), not
			// tok.ZNew: the previous doc sweep's SetZ already shifted the
			// word sweep's last accepted topic into ZOld and stamped its
			// own decision into ZNew.
			if updateTopics {
				t.RemoveWordOnly(int32(w), s)
			}

			proposed := sampler.DrawWordProposal(rng, len(idx), p.K, p.Beta, p.VBeta, t.NK, tokenZ)

			pS := sampler.Target(t.NDK[d][s], t.NWK[w][s], t.NK[s], p.Alpha, p.Beta, p.VBeta)
			pT := sampler.Target(t.NDK[d][proposed], t.NWK[w][proposed], t.NK[proposed], p.Alpha, p.Beta, p.VBeta)
			qS := sampler.WordProposalWeight(t.NWK[w][s], t.NK[s], p.Beta, p.VBeta)
			qT := sampler.WordProposalWeight(t.NWK[w][proposed], t.NK[proposed], p.Beta, p.VBeta)

			accepted := s
			if sampler.Accept(rng, pS, pT, qS, qT) {
				accepted = proposed
			}

			if updateTopics {
				t.AddWordOnly(int32(w), accepted)
			}
			store.SetZ(ti, accepted)
		}
	}
}

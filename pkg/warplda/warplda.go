// Package warplda is the top-level model façade: it binds the
// token store (corpus), count tables (counts), sweep engine (sweep)
// and trainer (train) behind the lifecycle and normalization contracts
// new, fit_transform, transform, topic_word_distribution,
// doc_topic_distribution.
package warplda

import (
	"fmt"
	"math/rand"

	"github.com/cognicore/warplda/pkg/warplda/corpus"
	"github.com/cognicore/warplda/pkg/warplda/counts"
	"github.com/cognicore/warplda/pkg/warplda/internalerr"
	"github.com/cognicore/warplda/pkg/warplda/sweep"
	"github.com/cognicore/warplda/pkg/warplda/train"
)

// state is the model's lifecycle position.
type state int

const (
	uninitialized state = iota
	fitted
)

// Model is a WarpLDA topic model. The zero value is not usable; build
// one with New.
type Model struct {
	k     int
	alpha float64
	beta  float64

	state state
	vocab []string // fit-time column labels, in order; fixes transform's contract

	store  *corpus.Store
	tables *counts.Tables

	rng *rand.Rand

	// last fit/transform run, kept for callers inspecting convergence
	// behaviour (e.g. a CLI reporting iterations/checkpoints).
	LastResult train.Result
}

// New constructs an uninitialized model with K topics and symmetric
// Dirichlet priors α (doc-topic) and β (topic-word).
func New(k int, alpha, beta float64) (*Model, error) {
	if k < 1 {
		return nil, fmt.Errorf("warplda: %w: K must be >= 1", internalerr.ErrInvalidHyperparameter)
	}
	if alpha <= 0 {
		return nil, fmt.Errorf("warplda: %w: doc_topic_prior must be > 0", internalerr.ErrInvalidHyperparameter)
	}
	if beta <= 0 {
		return nil, fmt.Errorf("warplda: %w: topic_word_prior must be > 0", internalerr.ErrInvalidHyperparameter)
	}
	return &Model{k: k, alpha: alpha, beta: beta}, nil
}

// FromPersisted rebuilds a fitted model's façade state from a
// previously saved n_wk/n_k and vocabulary (see modelstore/sqlite),
// skipping fit entirely. The returned model supports Transform,
// TopicWordDistribution and DocTopicDistribution (the latter returns
// an empty matrix: a reloaded model has no bound documents, and
// Transform does not bind any).
func FromPersisted(k int, alpha, beta float64, vocab []string, nwk [][]int32, nk []int64) (*Model, error) {
	m, err := New(k, alpha, beta)
	if err != nil {
		return nil, err
	}
	m.vocab = append([]string(nil), vocab...)
	m.tables = &counts.Tables{NWK: nwk, NK: nk}
	m.state = fitted
	return m, nil
}

// FitConfig bundles the trainer knobs fit_transform exposes, mirroring
// train.Config minus the fields the façade owns (UpdateTopics is
// always true for a fit run).
type FitConfig struct {
	NIter             int
	ConvergenceTol    float64
	NCheckConvergence int
	Seed              int64
	Sink              train.ProgressSink
}

// FitTransform binds X as the fit vocabulary, runs the trainer with
// update_topics=true, and returns the D×K doc-topic distribution.
func (m *Model) FitTransform(x corpus.Matrix, cfg FitConfig) ([][]float64, error) {
	if len(x.ColLabels) == 0 {
		return nil, fmt.Errorf("warplda: %w", internalerr.ErrMissingVocabulary)
	}

	m.rng = rand.New(rand.NewSource(cfg.Seed))
	store, err := corpus.Build(x, m.k, m.rng)
	if err != nil {
		return nil, err
	}
	tables := counts.InitFromStore(store, m.k)

	vbeta := float64(x.Vocab()) * m.beta
	p := sweep.Params{K: m.k, Alpha: m.alpha, Beta: m.beta, VBeta: vbeta}

	res := train.Run(m.rng, store, tables, p, train.Config{
		NIter:             cfg.NIter,
		ConvergenceTol:    cfg.ConvergenceTol,
		NCheckConvergence: cfg.NCheckConvergence,
		UpdateTopics:      true,
		Sink:              cfg.Sink,
	}, nil)

	m.store = store
	m.tables = tables
	m.vocab = append([]string(nil), x.ColLabels...)
	m.state = fitted
	m.LastResult = res

	return m.docTopicDistribution(store, tables), nil
}

// TransformConfig bundles the trainer knobs transform exposes.
// UpdateTopics is always false: transform samples against a frozen
// topic-word model.
type TransformConfig struct {
	NIter             int
	ConvergenceTol    float64
	NCheckConvergence int
	Seed              int64
	Sink              train.ProgressSink
}

// Transform infers a D×K doc-topic distribution for X against the
// frozen n_wk/n_k learned by fit. X's columns must match the fit
// vocabulary exactly and in order.
func (m *Model) Transform(x corpus.Matrix, cfg TransformConfig) ([][]float64, error) {
	if m.state != fitted {
		return nil, fmt.Errorf("warplda: %w", internalerr.ErrNotFitted)
	}
	if err := m.checkVocabMatch(x); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	store, err := corpus.Build(x, m.k, rng)
	if err != nil {
		return nil, err
	}
	tables := counts.New(x.Vocab(), x.Docs(), m.k)
	seedDocCounts(store, tables)
	// Share the fitted n_wk/n_k directly rather than copying: update_topics
	// is false for the whole transform run, so sweep.Word never mutates
	// them (RemoveWordOnly/AddWordOnly are gated behind updateTopics).
	tables.NWK = m.tables.NWK
	tables.NK = m.tables.NK

	vbeta := float64(x.Vocab()) * m.beta
	p := sweep.Params{K: m.k, Alpha: m.alpha, Beta: m.beta, VBeta: vbeta}

	train.Run(rng, store, tables, p, train.Config{
		NIter:             cfg.NIter,
		ConvergenceTol:    cfg.ConvergenceTol,
		NCheckConvergence: cfg.NCheckConvergence,
		UpdateTopics:      false,
		Sink:              cfg.Sink,
	}, nil)

	return m.docTopicDistribution(store, tables), nil
}

// seedDocCounts fills a fresh Tables' n_dk from a store's initial
// random z_new assignments, the doc-side half of InitFromStore (the
// word side is overwritten with the frozen fit tables right after).
func seedDocCounts(s *corpus.Store, t *counts.Tables) {
	for i := range s.Tokens {
		tok := &s.Tokens[i]
		t.NDK[tok.Doc][tok.ZNew]++
	}
}

func (m *Model) checkVocabMatch(x corpus.Matrix) error {
	if len(x.ColLabels) != len(m.vocab) {
		return fmt.Errorf("warplda: %w: column count %d != fit vocabulary %d",
			internalerr.ErrVocabularyMismatch, len(x.ColLabels), len(m.vocab))
	}
	for i, label := range x.ColLabels {
		if label != m.vocab[i] {
			return fmt.Errorf("warplda: %w: column %d is %q, fit vocabulary has %q",
				internalerr.ErrVocabularyMismatch, i, label, m.vocab[i])
		}
	}
	return nil
}

// docTopicDistribution normalizes n_dk into P(k|d) = (n_dk[d][k]+α) /
// (Σ_k' n_dk[d][k']+Kα).
func (m *Model) docTopicDistribution(s *corpus.Store, t *counts.Tables) [][]float64 {
	out := make([][]float64, s.Docs())
	for d := range out {
		row := make([]float64, m.k)
		var total float64
		for k := 0; k < m.k; k++ {
			v := float64(t.NDK[d][k]) + m.alpha
			row[k] = v
			total += v
		}
		for k := range row {
			row[k] /= total
		}
		out[d] = row
	}
	return out
}

// TopicWordDistribution returns the K×V row-stochastic matrix
// P(w|k) = (n_wk[w][k]+β) / (Σ_w' n_wk[w'][k]+Vβ), derived from the
// fitted n_wk.
func (m *Model) TopicWordDistribution() ([][]float64, error) {
	if m.state != fitted {
		return nil, fmt.Errorf("warplda: %w", internalerr.ErrNotFitted)
	}
	v := len(m.vocab)
	colTotals := make([]float64, m.k)
	for w := 0; w < v; w++ {
		for k := 0; k < m.k; k++ {
			colTotals[k] += float64(m.tables.NWK[w][k])
		}
	}
	vbeta := float64(v) * m.beta
	for k := range colTotals {
		colTotals[k] += vbeta
	}

	out := make([][]float64, m.k)
	for k := 0; k < m.k; k++ {
		row := make([]float64, v)
		for w := 0; w < v; w++ {
			row[w] = (float64(m.tables.NWK[w][k]) + m.beta) / colTotals[k]
		}
		out[k] = row
	}
	return out, nil
}

// DocTopicDistribution returns the D×K row-stochastic matrix derived
// from the fitted n_dk, i.e. the same output fit_transform already
// returned, re-exposed as its own named operation.
// A model rebuilt via FromPersisted has no bound documents (its fit
// token store was never saved), so this returns an empty matrix.
// Transform builds its own token store and does not change what this
// returns.
func (m *Model) DocTopicDistribution() ([][]float64, error) {
	if m.state != fitted {
		return nil, fmt.Errorf("warplda: %w", internalerr.ErrNotFitted)
	}
	if m.store == nil {
		return nil, nil
	}
	return m.docTopicDistribution(m.store, m.tables), nil
}

// Vocab returns the fit-time column labels, in order.
func (m *Model) Vocab() []string {
	return append([]string(nil), m.vocab...)
}

// K returns the number of topics.
func (m *Model) K() int { return m.k }

// Alpha returns the doc-topic Dirichlet prior.
func (m *Model) Alpha() float64 { return m.alpha }

// Beta returns the topic-word Dirichlet prior.
func (m *Model) Beta() float64 { return m.beta }

// Tables exposes the fitted count tables for persistence (see
// modelstore/sqlite). Returns nil if the model is not fitted.
func (m *Model) Tables() *counts.Tables { return m.tables }

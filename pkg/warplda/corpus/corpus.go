// Package corpus holds the token-level store WarpLDA samples over: one
// record per word occurrence, reachable both in document order and in
// word order without re-sorting.
package corpus

import (
	"fmt"
	"math/rand"

	"github.com/cognicore/warplda/pkg/warplda/internalerr"
)

// Matrix is a compressed sparse row document-term matrix with string
// column labels serving as the vocabulary. RowLabels are passed through
// to callers unchanged; ColLabels fix the vocabulary order.
type Matrix struct {
	RowLabels []string
	ColLabels []string
	Indptr    []int    // length D+1
	Indices   []int    // length nnz, column ids into ColLabels
	Data      []uint32 // length nnz, non-negative cell counts
}

// Docs returns the number of rows (documents) in the matrix.
func (m Matrix) Docs() int { return len(m.Indptr) - 1 }

// Vocab returns the number of columns (vocabulary size).
func (m Matrix) Vocab() int { return len(m.ColLabels) }

// Validate checks the CSR invariants and the MissingVocabulary contract.
func (m Matrix) Validate() error {
	if len(m.ColLabels) == 0 {
		return fmt.Errorf("corpus: %w", internalerr.ErrMissingVocabulary)
	}
	if len(m.Indptr) < 1 {
		return fmt.Errorf("corpus: indptr must have at least one entry")
	}
	if len(m.Indices) != len(m.Data) {
		return fmt.Errorf("corpus: indices/data length mismatch")
	}
	if m.Indptr[0] != 0 || m.Indptr[len(m.Indptr)-1] != len(m.Indices) {
		return fmt.Errorf("corpus: malformed indptr")
	}
	for _, col := range m.Indices {
		if col < 0 || col >= len(m.ColLabels) {
			return fmt.Errorf("corpus: column index %d out of range", col)
		}
	}
	return nil
}

// Token is one word occurrence in one document. Both z_old and z_new are
// tracked so the sampler can compute a Metropolis-Hastings acceptance
// ratio against the pre-sweep assignment (see sampler.Accept).
type Token struct {
	Doc   int32
	Word  int32
	ZOld  int32
	ZNew  int32
}

// Store is the corpus token store. Tokens is the single backing
// array, laid out doc-major; the by-word view is an index permutation
// into it, so a topic update made through one iteration order is
// immediately visible through the other; both views share record
// identity, not copies.
type Store struct {
	Tokens []Token

	// docOffsets delimits Tokens itself: Tokens is built doc-major by
	// Build, so the by-document view needs no separate permutation.
	docOffsets []int32

	// byWord is a permutation of token indices grouped by word, with
	// wordOffsets delimiting it the way docOffsets delimits Tokens.
	byWord      []int32
	wordOffsets []int32

	docs  int
	vocab int
}

// Build expands a CSR document-term matrix into a token store, drawing
// one initial topic uniformly at random over [0, k) per token occurrence
// and seeding both z_old and z_new to it: before any sweep has run, a
// token has only one assignment, not two. rng is the caller's seeded
// source (see train.Run for reproducibility).
func Build(m Matrix, k int, rng *rand.Rand) (*Store, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("corpus: %w: k must be >= 1", internalerr.ErrInvalidHyperparameter)
	}

	d := m.Docs()
	v := m.Vocab()

	total := 0
	for _, c := range m.Data {
		total += int(c)
	}
	if total == 0 || v == 0 {
		return nil, fmt.Errorf("corpus: %w", internalerr.ErrEmptyCorpus)
	}

	s := &Store{
		Tokens:     make([]Token, 0, total),
		docOffsets: make([]int32, d+1),
		docs:       d,
		vocab:      v,
	}

	wordCounts := make([]int32, v)
	for doc := 0; doc < d; doc++ {
		s.docOffsets[doc] = int32(len(s.Tokens))
		for cell := m.Indptr[doc]; cell < m.Indptr[doc+1]; cell++ {
			word := m.Indices[cell]
			count := m.Data[cell]
			wordCounts[word] += int32(count)
			for i := uint32(0); i < count; i++ {
				z := int32(rng.Intn(k))
				s.Tokens = append(s.Tokens, Token{
					Doc:  int32(doc),
					Word: int32(word),
					ZOld: z,
					ZNew: z,
				})
			}
		}
	}
	s.docOffsets[d] = int32(len(s.Tokens))

	s.wordOffsets = make([]int32, v+1)
	for w := 0; w < v; w++ {
		s.wordOffsets[w+1] = s.wordOffsets[w] + wordCounts[w]
	}
	cursor := append([]int32(nil), s.wordOffsets[:v]...)
	s.byWord = make([]int32, len(s.Tokens))
	for idx := range s.Tokens {
		w := s.Tokens[idx].Word
		s.byWord[cursor[w]] = int32(idx)
		cursor[w]++
	}

	return s, nil
}

// NumTokens returns T, the total number of token occurrences.
func (s *Store) NumTokens() int { return len(s.Tokens) }

// Docs returns D.
func (s *Store) Docs() int { return s.docs }

// Vocab returns V.
func (s *Store) Vocab() int { return s.vocab }

// IterByDoc returns the slice of tokens belonging to document d, in the
// store's own backing array: mutating an element mutates the store.
func (s *Store) IterByDoc(d int) []Token {
	return s.Tokens[s.docOffsets[d]:s.docOffsets[d+1]]
}

// DocTokenIndices returns the indices into Tokens for document d. Use
// this (rather than IterByDoc) when the caller needs to mutate
// Tokens[i] in place while also reading another token's assignment,
// e.g. the doc-proposal's "pick an existing token's topic" step.
func (s *Store) DocTokenIndices(d int) []int32 {
	lo, hi := s.docOffsets[d], s.docOffsets[d+1]
	idx := make([]int32, hi-lo)
	for i := range idx {
		idx[i] = lo + int32(i)
	}
	return idx
}

// DocLen returns the number of tokens in document d.
func (s *Store) DocLen(d int) int {
	return int(s.docOffsets[d+1] - s.docOffsets[d])
}

// WordTokenIndices returns the indices into Tokens for word w, grouped
// via the by-word permutation built in Build.
func (s *Store) WordTokenIndices(w int) []int32 {
	return s.byWord[s.wordOffsets[w]:s.wordOffsets[w+1]]
}

// WordLen returns the number of token occurrences of word w.
func (s *Store) WordLen(w int) int {
	return int(s.wordOffsets[w+1] - s.wordOffsets[w])
}

// GetZ returns the current (z_new) topic of token index t.
func (s *Store) GetZ(t int32) int32 { return s.Tokens[t].ZNew }

// SetZ advances token t's state: z_old becomes the previous z_new, and
// z_new becomes k.
func (s *Store) SetZ(t int32, k int32) {
	tok := &s.Tokens[t]
	tok.ZOld = tok.ZNew
	tok.ZNew = k
}

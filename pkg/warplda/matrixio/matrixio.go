// Package matrixio loads a bag-of-words corpus from a JSONL file (one
// document's token list per line) into a CSR corpus.Matrix: read the
// whole file, split on newlines, unmarshal each line independently,
// skipping and logging malformed ones rather than failing the batch.
package matrixio

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/cognicore/warplda/pkg/warplda/corpus"
)

// Doc is one JSONL line: a document identified by ID (optional, falls
// back to its line's row index) and its raw token list. Repeated
// tokens within Tokens contribute repeated counts.
type Doc struct {
	ID     string   `json:"id"`
	Tokens []string `json:"tokens"`
}

// LoadJSONL reads a JSONL bag-of-words file and builds a CSR matrix
// over the vocabulary observed across all documents, in sorted token
// order (so ColLabels is reproducible independent of input order).
func LoadJSONL(path string) (corpus.Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return corpus.Matrix{}, fmt.Errorf("matrixio: read file %s: %w", path, err)
	}

	var docs []Doc
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var d Doc
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			log.Printf("matrixio: skipping malformed JSON at line %d in %s: %v", i+1, path, err)
			continue
		}
		if d.ID == "" {
			d.ID = fmt.Sprintf("doc-%d", len(docs))
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return corpus.Matrix{}, fmt.Errorf("matrixio: no valid documents found in %s", path)
	}

	vocabSet := make(map[string]struct{})
	for _, d := range docs {
		for _, tok := range d.Tokens {
			vocabSet[tok] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(vocabSet))
	for tok := range vocabSet {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)

	colIndex := make(map[string]int, len(vocab))
	for i, tok := range vocab {
		colIndex[tok] = i
	}

	m := corpus.Matrix{
		ColLabels: vocab,
		RowLabels: make([]string, len(docs)),
		Indptr:    make([]int, len(docs)+1),
	}
	for i, d := range docs {
		m.RowLabels[i] = d.ID
		counts := make(map[int]uint32)
		for _, tok := range d.Tokens {
			counts[colIndex[tok]]++
		}
		cols := make([]int, 0, len(counts))
		for col := range counts {
			cols = append(cols, col)
		}
		sort.Ints(cols)
		for _, col := range cols {
			m.Indices = append(m.Indices, col)
			m.Data = append(m.Data, counts[col])
		}
		m.Indptr[i+1] = len(m.Indices)
	}

	return m, nil
}

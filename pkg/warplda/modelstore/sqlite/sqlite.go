// Package sqlite persists a fitted model's vocabulary and count tables
// to a SQLite database: open, enable WAL, create tables if absent,
// then a handful of upsert/load methods.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cognicore/warplda/pkg/warplda/counts"
)

// Store persists fitted model state: hyperparameters, vocabulary, and
// the n_wk/n_k tables a frozen model needs for transform.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at path, enabling WAL mode and
// initializing the schema if it does not already exist.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("modelstore: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("modelstore: %w", err)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("modelstore: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS models (
	run_id TEXT PRIMARY KEY,
	k INTEGER NOT NULL,
	alpha REAL NOT NULL,
	beta REAL NOT NULL,
	vocab_size INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS model_vocab (
	run_id TEXT NOT NULL,
	word_id INTEGER NOT NULL,
	term TEXT NOT NULL,
	PRIMARY KEY(run_id, word_id),
	FOREIGN KEY(run_id) REFERENCES models(run_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS model_nwk (
	run_id TEXT NOT NULL,
	word_id INTEGER NOT NULL,
	topic_id INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, word_id, topic_id),
	FOREIGN KEY(run_id) REFERENCES models(run_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS model_nk (
	run_id TEXT NOT NULL,
	topic_id INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, topic_id),
	FOREIGN KEY(run_id) REFERENCES models(run_id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveModel persists a fitted model's hyperparameters, vocabulary, and
// n_wk/n_k tables under runID, replacing any prior save under the same
// ID.
func (s *Store) SaveModel(ctx context.Context, runID string, k int, alpha, beta float64, vocab []string, t *counts.Tables) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	defer tx.Rollback()

	// Child rows are deleted explicitly: ON DELETE CASCADE only fires
	// when foreign_keys is enabled on the connection, which Open does not do.
	for _, table := range []string{"model_vocab", "model_nwk", "model_nk", "models"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id=?`, runID); err != nil {
			return fmt.Errorf("modelstore: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO models (run_id, k, alpha, beta, vocab_size) VALUES (?, ?, ?, ?, ?)
`, runID, k, alpha, beta, len(vocab)); err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}

	vocabStmt, err := tx.PrepareContext(ctx, `INSERT INTO model_vocab (run_id, word_id, term) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	defer vocabStmt.Close()
	for w, term := range vocab {
		if _, err := vocabStmt.ExecContext(ctx, runID, w, term); err != nil {
			return fmt.Errorf("modelstore: %w", err)
		}
	}

	nwkStmt, err := tx.PrepareContext(ctx, `INSERT INTO model_nwk (run_id, word_id, topic_id, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	defer nwkStmt.Close()
	for w, row := range t.NWK {
		for topic, c := range row {
			if c == 0 {
				continue // sparse by construction: most (word, topic) cells are zero
			}
			if _, err := nwkStmt.ExecContext(ctx, runID, w, topic, c); err != nil {
				return fmt.Errorf("modelstore: %w", err)
			}
		}
	}

	nkStmt, err := tx.PrepareContext(ctx, `INSERT INTO model_nk (run_id, topic_id, count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	defer nkStmt.Close()
	for topic, c := range t.NK {
		if _, err := nkStmt.ExecContext(ctx, runID, topic, c); err != nil {
			return fmt.Errorf("modelstore: %w", err)
		}
	}

	return tx.Commit()
}

// LoadedModel is a model's persisted state, as read back by LoadModel.
type LoadedModel struct {
	K     int
	Alpha float64
	Beta  float64
	Vocab []string
	NWK   [][]int32
	NK    []int64
}

// LoadModel reads back a model previously saved under runID.
func (s *Store) LoadModel(ctx context.Context, runID string) (LoadedModel, error) {
	var lm LoadedModel
	var vocabSize int
	err := s.db.QueryRowContext(ctx, `SELECT k, alpha, beta, vocab_size FROM models WHERE run_id=?`, runID).
		Scan(&lm.K, &lm.Alpha, &lm.Beta, &vocabSize)
	if err != nil {
		return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
	}

	lm.Vocab = make([]string, vocabSize)
	vocabRows, err := s.db.QueryContext(ctx, `SELECT word_id, term FROM model_vocab WHERE run_id=? ORDER BY word_id`, runID)
	if err != nil {
		return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
	}
	defer vocabRows.Close()
	for vocabRows.Next() {
		var wordID int
		var term string
		if err := vocabRows.Scan(&wordID, &term); err != nil {
			return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
		}
		lm.Vocab[wordID] = term
	}
	if err := vocabRows.Err(); err != nil {
		return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
	}

	lm.NWK = make([][]int32, vocabSize)
	for w := range lm.NWK {
		lm.NWK[w] = make([]int32, lm.K)
	}
	nwkRows, err := s.db.QueryContext(ctx, `SELECT word_id, topic_id, count FROM model_nwk WHERE run_id=?`, runID)
	if err != nil {
		return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
	}
	defer nwkRows.Close()
	for nwkRows.Next() {
		var wordID, topicID int
		var count int32
		if err := nwkRows.Scan(&wordID, &topicID, &count); err != nil {
			return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
		}
		lm.NWK[wordID][topicID] = count
	}
	if err := nwkRows.Err(); err != nil {
		return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
	}

	lm.NK = make([]int64, lm.K)
	nkRows, err := s.db.QueryContext(ctx, `SELECT topic_id, count FROM model_nk WHERE run_id=?`, runID)
	if err != nil {
		return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
	}
	defer nkRows.Close()
	for nkRows.Next() {
		var topicID int
		var count int64
		if err := nkRows.Scan(&topicID, &count); err != nil {
			return LoadedModel{}, fmt.Errorf("modelstore: %w", err)
		}
		lm.NK[topicID] = count
	}
	return lm, nkRows.Err()
}

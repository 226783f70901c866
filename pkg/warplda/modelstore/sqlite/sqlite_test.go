package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cognicore/warplda/pkg/warplda/counts"
)

func TestSaveAndLoadModelRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "model.db")

	st, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	tbl := counts.New(4, 0, 2)
	tbl.NWK[0][0] = 3
	tbl.NWK[1][1] = 2
	tbl.NK[0] = 3
	tbl.NK[1] = 2

	vocab := []string{"a", "b", "c", "d"}
	if err := st.SaveModel(ctx, "run-1", 2, 0.1, 0.05, vocab, tbl); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	loaded, err := st.LoadModel(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.K != 2 || loaded.Alpha != 0.1 || loaded.Beta != 0.05 {
		t.Fatalf("unexpected hyperparameters: %+v", loaded)
	}
	for i, term := range vocab {
		if loaded.Vocab[i] != term {
			t.Errorf("Vocab[%d] = %q, want %q", i, loaded.Vocab[i], term)
		}
	}
	if loaded.NWK[0][0] != 3 || loaded.NWK[1][1] != 2 {
		t.Fatalf("unexpected NWK: %+v", loaded.NWK)
	}
	if loaded.NK[0] != 3 || loaded.NK[1] != 2 {
		t.Fatalf("unexpected NK: %+v", loaded.NK)
	}
}

func TestLoadModelUnknownRunReturnsError(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "model.db")

	st, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if _, err := st.LoadModel(ctx, "does-not-exist"); err == nil {
		t.Fatal("LoadModel on unknown run_id should return an error")
	}
}

package counts

import (
	"math/rand"
	"testing"

	"github.com/cognicore/warplda/pkg/warplda/corpus"
)

func tinyStore(t *testing.T) *corpus.Store {
	t.Helper()
	m := corpus.Matrix{
		ColLabels: []string{"a", "b", "c", "d"},
		Indptr:    []int{0, 2, 4},
		Indices:   []int{0, 1, 2, 3},
		Data:      []uint32{2, 2, 2, 2},
	}
	s, err := corpus.Build(m, 2, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestInitFromStoreSatisfiesInvariants(t *testing.T) {
	s := tinyStore(t)
	tbl := InitFromStore(s, 2)
	if !tbl.CheckInvariants() {
		t.Fatal("CheckInvariants failed after InitFromStore")
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	s := tinyStore(t)
	tbl := InitFromStore(s, 2)

	tbl.Remove(0, 0, 0)
	tbl.Add(0, 0, 1)
	if !tbl.CheckInvariants() {
		t.Fatal("CheckInvariants failed after Add/Remove")
	}
}

func TestDeltaRoundTrip(t *testing.T) {
	s := tinyStore(t)
	tbl := InitFromStore(s, 2)
	snapshot := tbl.SnapshotGlobal()

	tbl.ResetLocal()
	tbl.AddWordOnly(0, 1)
	tbl.AddWordOnly(0, 1)
	delta := tbl.LocalDelta()

	snapshot.ApplyDelta(delta)
	if snapshot.NWK[0][1] != tbl.NWK[0][1] {
		t.Fatalf("snapshot NWK[0][1] = %d, want %d", snapshot.NWK[0][1], tbl.NWK[0][1])
	}
	if snapshot.NK[1] != tbl.NK[1] {
		t.Fatalf("snapshot NK[1] = %d, want %d", snapshot.NK[1], tbl.NK[1])
	}
}

func TestApplyGlobalOverwritesWordSide(t *testing.T) {
	s := tinyStore(t)
	tbl := InitFromStore(s, 2)
	snapshot := tbl.SnapshotGlobal()

	tbl.AddWordOnly(1, 0)
	tbl.ApplyGlobal(snapshot)
	if tbl.NWK[1][0] != snapshot.NWK[1][0] {
		t.Fatalf("NWK[1][0] = %d, want snapshot value %d", tbl.NWK[1][0], snapshot.NWK[1][0])
	}
}

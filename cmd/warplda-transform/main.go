// Command warplda-transform infers doc-topic distributions for a new
// JSONL bag-of-words corpus against a model previously fitted and
// persisted by warplda-fit, and prints a JSON report to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/warplda/pkg/warplda"
	"github.com/cognicore/warplda/pkg/warplda/matrixio"
	modelstore "github.com/cognicore/warplda/pkg/warplda/modelstore/sqlite"
)

type report struct {
	DocTopic [][]float64 `json:"doc_topic"`
}

func main() {
	var (
		input      = flag.String("input", "", "Path to JSONL bag-of-words corpus (required)")
		modelDB    = flag.String("model-db", "", "Path to a SQLite model saved by warplda-fit (required)")
		runID      = flag.String("run-id", "", "Run ID of the saved model to load (required)")
		nIter      = flag.Int("n-iter", 100, "Inference sweep iterations")
		convTol    = flag.Float64("convergence-tol", -1, "Convergence tolerance (negative disables early stop)")
		checkEvery = flag.Int("check-every", 10, "Iterations between convergence checks")
		seed       = flag.Int64("seed", 0, "RNG seed")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}
	if *modelDB == "" {
		log.Fatal("--model-db required")
	}
	if *runID == "" {
		log.Fatal("--run-id required")
	}

	ctx := context.Background()
	store, err := modelstore.Open(ctx, *modelDB)
	if err != nil {
		log.Fatalf("open model db: %v", err)
	}
	defer store.Close()

	loaded, err := store.LoadModel(ctx, *runID)
	if err != nil {
		log.Fatalf("load model: %v", err)
	}

	m, err := warplda.FromPersisted(loaded.K, loaded.Alpha, loaded.Beta, loaded.Vocab, loaded.NWK, loaded.NK)
	if err != nil {
		log.Fatalf("reconstruct model: %v", err)
	}

	x, err := matrixio.LoadJSONL(*input)
	if err != nil {
		log.Fatalf("load corpus: %v", err)
	}

	docTopic, err := m.Transform(x, warplda.TransformConfig{
		NIter:             *nIter,
		ConvergenceTol:    *convTol,
		NCheckConvergence: *checkEvery,
		Seed:              *seed,
	})
	if err != nil {
		log.Fatalf("transform: %v", err)
	}

	out, err := json.MarshalIndent(report{DocTopic: docTopic}, "", "  ")
	if err != nil {
		log.Fatalf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

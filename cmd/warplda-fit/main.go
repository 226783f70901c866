// Command warplda-fit fits a WarpLDA model over a JSONL bag-of-words
// corpus and prints a JSON report (run ID, convergence checkpoints,
// and the doc-topic distribution) to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	modelstore "github.com/cognicore/warplda/pkg/warplda/modelstore/sqlite"

	"github.com/cognicore/warplda/pkg/warplda"
	"github.com/cognicore/warplda/pkg/warplda/config"
	"github.com/cognicore/warplda/pkg/warplda/matrixio"
	"github.com/cognicore/warplda/pkg/warplda/train"
)

type report struct {
	RunID       string             `json:"run_id"`
	Iterations  int                `json:"iterations"`
	Converged   bool               `json:"converged"`
	Checkpoints []train.Checkpoint `json:"checkpoints"`
	DocTopic    [][]float64        `json:"doc_topic"`
}

type logSink struct{}

func (logSink) Report(e train.ProgressEvent) {
	log.Printf("iter=%d ll=%.4f elapsed=%s", e.Iter, e.LL, e.Elapsed)
}

func main() {
	var (
		input      = flag.String("input", "", "Path to JSONL bag-of-words corpus (required)")
		optionsCfg = flag.String("options", "", "Path to YAML hyperparameter options file (required)")
		modelDB    = flag.String("model-db", "", "Optional: SQLite path to persist the fitted model")
		verbose    = flag.Bool("verbose", false, "Log progress at each convergence check")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}
	if *optionsCfg == "" {
		log.Fatal("--options required")
	}

	opt, err := config.Load(*optionsCfg)
	if err != nil {
		log.Fatalf("load options: %v", err)
	}
	if err := opt.Validate(); err != nil {
		log.Fatalf("invalid options: %v", err)
	}

	x, err := matrixio.LoadJSONL(*input)
	if err != nil {
		log.Fatalf("load corpus: %v", err)
	}

	m, err := warplda.New(opt.NTopics, opt.DocTopicPrior, opt.TopicWordPrior)
	if err != nil {
		log.Fatalf("new model: %v", err)
	}

	var sink train.ProgressSink
	if *verbose || opt.Verbose {
		sink = logSink{}
	}

	docTopic, err := m.FitTransform(x, warplda.FitConfig{
		NIter:             opt.NIter,
		ConvergenceTol:    opt.ConvergenceTol,
		NCheckConvergence: opt.NCheckConvergence,
		Seed:              opt.Seed,
		Sink:              sink,
	})
	if err != nil {
		log.Fatalf("fit_transform: %v", err)
	}

	if *modelDB != "" {
		ctx := context.Background()
		store, err := modelstore.Open(ctx, *modelDB)
		if err != nil {
			log.Fatalf("open model db: %v", err)
		}
		defer store.Close()

		if err := store.SaveModel(ctx, m.LastResult.RunID, m.K(), m.Alpha(), m.Beta(), m.Vocab(), m.Tables()); err != nil {
			log.Fatalf("save model: %v", err)
		}
	}

	rep := report{
		RunID:       m.LastResult.RunID,
		Iterations:  m.LastResult.Iterations,
		Converged:   m.LastResult.Converged,
		Checkpoints: m.LastResult.Checkpoints,
		DocTopic:    docTopic,
	}
	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

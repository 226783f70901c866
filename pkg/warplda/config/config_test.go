package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/warplda/pkg/warplda/internalerr"
)

func writeTempOptions(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "options.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesAllFields(t *testing.T) {
	path := writeTempOptions(t, `
n_topics: 10
doc_topic_prior: 0.1
topic_word_prior: 0.05
n_iter: 500
convergence_tol: 0.001
n_check_convergence: 10
verbose: true
seed: 42
`)
	opt, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opt.NTopics != 10 || opt.DocTopicPrior != 0.1 || opt.TopicWordPrior != 0.05 {
		t.Fatalf("unexpected options: %+v", opt)
	}
	if opt.NIter != 500 || opt.NCheckConvergence != 10 || opt.Seed != 42 || !opt.Verbose {
		t.Fatalf("unexpected options: %+v", opt)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load on missing file should return an error")
	}
}

func TestValidateRejectsNonPositivePriors(t *testing.T) {
	opt := Options{NTopics: 5, DocTopicPrior: 0, TopicWordPrior: 0.1, NIter: 10, NCheckConvergence: 1}
	if err := opt.Validate(); !errors.Is(err, internalerr.ErrInvalidHyperparameter) {
		t.Fatalf("Validate() = %v, want ErrInvalidHyperparameter", err)
	}
}

func TestValidateAcceptsWellFormedOptions(t *testing.T) {
	opt := Options{NTopics: 5, DocTopicPrior: 0.1, TopicWordPrior: 0.1, NIter: 10, NCheckConvergence: 1}
	if err := opt.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

// Package config loads a model's hyperparameters and trainer options
// from a YAML options file: os.ReadFile followed by yaml.Unmarshal, no
// further indirection.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/warplda/pkg/warplda/internalerr"
)

// Options is the full set of hyperparameters and trainer knobs a fit
// run needs.
type Options struct {
	NTopics           int     `yaml:"n_topics"`
	DocTopicPrior     float64 `yaml:"doc_topic_prior"`
	TopicWordPrior    float64 `yaml:"topic_word_prior"`
	NIter             int     `yaml:"n_iter"`
	ConvergenceTol    float64 `yaml:"convergence_tol"`
	NCheckConvergence int     `yaml:"n_check_convergence"`
	Verbose           bool    `yaml:"verbose"`
	Seed              int64   `yaml:"seed"`
}

// Load reads and parses an options file. It does not validate
// hyperparameter positivity; that is the model constructor's job
// (InvalidHyperparameter), since the same Options value may be reused
// across several New calls with overrides applied in between.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: %w", err)
	}

	var opt Options
	if err := yaml.Unmarshal(data, &opt); err != nil {
		return Options{}, fmt.Errorf("config: %w", err)
	}
	return opt, nil
}

// Validate checks the fields New/Run actually require to be positive,
// returning internalerr.ErrInvalidHyperparameter with context on the
// first violation found.
func (o Options) Validate() error {
	if o.NTopics < 1 {
		return fmt.Errorf("config: n_topics must be >= 1: %w", internalerr.ErrInvalidHyperparameter)
	}
	if o.DocTopicPrior <= 0 {
		return fmt.Errorf("config: doc_topic_prior must be > 0: %w", internalerr.ErrInvalidHyperparameter)
	}
	if o.TopicWordPrior <= 0 {
		return fmt.Errorf("config: topic_word_prior must be > 0: %w", internalerr.ErrInvalidHyperparameter)
	}
	if o.NIter < 1 {
		return fmt.Errorf("config: n_iter must be >= 1: %w", internalerr.ErrInvalidHyperparameter)
	}
	if o.NCheckConvergence < 1 {
		return fmt.Errorf("config: n_check_convergence must be >= 1: %w", internalerr.ErrInvalidHyperparameter)
	}
	return nil
}

// Package internalerr collects the sentinel errors shared across the
// warplda packages.
package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidHyperparameter = errors.New("invalid hyperparameter")
	ErrEmptyCorpus           = errors.New("empty corpus")
	ErrMissingVocabulary     = errors.New("missing vocabulary")
	ErrVocabularyMismatch    = errors.New("vocabulary mismatch")
	ErrNotFitted             = errors.New("model not fitted")
	ErrNumerical             = errors.New("non-finite value in pseudo-log-likelihood")
)

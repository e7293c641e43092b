package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Ingestion input errors, rejected before any paid API call
	ErrNoInput             = errors.New("no ingestion input provided")
	ErrAmbiguousInput      = errors.New("more than one ingestion input provided")
	ErrInvalidQAPairs      = errors.New("qa pairs must be a list of question/answer objects")
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// Bot errors
	ErrBotNotFound      = errors.New("bot not found")
	ErrBotLimitExceeded = errors.New("bot limit exceeded")

	// API key errors
	ErrAPIKeyNotFound = errors.New("api key not found")

	// Vector index errors
	ErrIndexNotFound = errors.New("vector index not found")

	// Configuration errors, fatal at startup
	ErrDimensionMismatch = errors.New("embedding dimension does not match vector index dimension")

	// Ledger errors
	ErrInvalidCategory = errors.New("invalid usage category")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrPartialIngestion marks an ingestion call that spent embedding tokens but
// failed before all vectors were indexed. Matched with errors.Is.
var ErrPartialIngestion = errors.New("ingestion partially failed")

// PartialIngestionError reports an upsert failure that happened after
// embeddings were already purchased. TokensSpent must still be written to the
// usage ledger by the caller; no compensating transaction is performed.
type PartialIngestionError struct {
	TokensSpent int64
	Err         error
}

func (e *PartialIngestionError) Error() string {
	return fmt.Sprintf("ingestion partially failed after spending %d embedding tokens: %v", e.TokensSpent, e.Err)
}

func (e *PartialIngestionError) Unwrap() error { return e.Err }

func (e *PartialIngestionError) Is(target error) bool { return target == ErrPartialIngestion }

package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunkingConfig indicates the chunk size and overlap cannot produce windows.
	// Overlap must be strictly smaller than the chunk size.
	ErrInvalidChunkingConfig = errors.New("invalid chunking configuration")

	// Model Errors.

	// ErrUnknownModel indicates the model identifier is not in the catalog.
	ErrUnknownModel = errors.New("unknown embedding model")

	// ErrRuntimeUnavailable indicates the local model runtime cannot be reached.
	ErrRuntimeUnavailable = errors.New("model runtime unavailable")

	// ErrEmbeddingModelNotLoaded indicates no embedding model is resident.
	ErrEmbeddingModelNotLoaded = errors.New("embedding model not loaded")

	// ErrEmbeddingModelFailed indicates the selected embedding model failed to load.
	// Embedding calls are refused until the model is loaded again explicitly.
	ErrEmbeddingModelFailed = errors.New("embedding model failed to load")

	// ErrDimensionMismatch indicates a vector length differs from the model dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrGenerationModelNotLoaded indicates no language model is loaded for answering.
	ErrGenerationModelNotLoaded = errors.New("generation model not loaded: load a language model before asking questions")

	// ErrModelLoadInProgress indicates a load is already running.
	ErrModelLoadInProgress = errors.New("model load in progress")

	// ErrModelLoadCancelled indicates a model download or load was cancelled.
	ErrModelLoadCancelled = errors.New("model load cancelled")

	// Index Errors.

	// ErrIndexEmpty indicates no articles are indexed yet.
	ErrIndexEmpty = errors.New("no articles indexed: rebuild the index first")

	// ErrStaleIndexWrite indicates a newer indexing run for the same article superseded this one.
	ErrStaleIndexWrite = errors.New("stale index write discarded")
)

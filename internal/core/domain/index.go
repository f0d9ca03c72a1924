package domain

import "time"

// IndexMetadata records what produced the stored chunks.
// There is a single record, overwritten on every full rebuild.
type IndexMetadata struct {
	// ModelID is the embedding model used for the build.
	ModelID string

	// ChunkingVersion is ChunkingConfig.Version() at build time.
	ChunkingVersion string

	// Dimensions is the vector length of the model.
	Dimensions int

	// BuiltAt is when the rebuild started.
	BuiltAt time.Time
}

// ArticleIndexStatus records the last successful indexing of one article.
type ArticleIndexStatus struct {
	ArticleID  int64
	ChunkCount int
	IndexedAt  time.Time
}

// IndexStatus describes the index contents and its freshness.
type IndexStatus struct {
	// TotalChunks is the number of stored chunks.
	TotalChunks int

	// IndexedArticles is the number of articles with a status row.
	IndexedArticles int

	// TotalArticles is the number of articles known to the article provider.
	TotalArticles int

	// CurrentModel is the selected embedding model.
	CurrentModel string

	// IndexedModel is the model recorded in the metadata, empty if never built.
	IndexedModel string

	// CurrentChunkingVersion is the configured chunking version.
	CurrentChunkingVersion string

	// IndexedChunkingVersion is the version recorded in the metadata.
	IndexedChunkingVersion string

	// Dimensions is the dimensionality recorded in the metadata.
	Dimensions int

	// CurrentDimensions is the dimensionality of the selected model.
	CurrentDimensions int

	// BuiltAt is when the last rebuild ran.
	BuiltAt time.Time

	// ModelMismatch is true when the selected model differs from the indexed one.
	ModelMismatch bool

	// ChunkingMismatch is true when the chunking configuration changed.
	ChunkingMismatch bool

	// DimensionMismatch is true when the selected model's dimensionality
	// differs from the indexed vectors, e.g. after a catalog override.
	DimensionMismatch bool

	// RequiresReindex is true when any of the mismatches is.
	RequiresReindex bool
}

// RebuildResult summarises a full rebuild.
type RebuildResult struct {
	// RunID identifies the rebuild in logs.
	RunID string

	Indexed int
	Failed  int
	Total   int

	// FailedIDs lists the articles that could not be indexed.
	FailedIDs []int64

	// Chunks is the number of chunks written.
	Chunks int

	Duration time.Duration
}

// RebuildProgress is reported after each article during a rebuild.
type RebuildProgress struct {
	Done      int
	Total     int
	ArticleID int64
	Err       error
}

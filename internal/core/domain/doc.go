// Package domain defines the core business entities for Recall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Article: An archived article and its comments
//   - Chunk: A word window of an article with its embedding
//   - IndexMetadata: Which model and chunking configuration built the index
//   - EmbeddingModelDescriptor: A catalog entry for an embedding model
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements both stores through a
// single database connection:
//
//   - ArticleStore: the article archive and its comments
//   - ChunkStore: chunk text, embeddings, per-article status and index metadata
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// Embeddings are stored as little-endian float32 blobs. Every chunk row records
// the embedding model that produced it so searches never compare vectors from
// different models.
//
// # Data Location
//
// By default, the database is stored at ~/.recall/data/recall.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite

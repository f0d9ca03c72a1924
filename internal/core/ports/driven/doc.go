// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - ArticleProvider / ArticleStore: The article archive (SQLite)
//   - ChunkStore: Chunk, indexing status and index metadata persistence (SQLite)
//   - EmbeddingRuntime: Loads embedding models and computes vectors (Ollama)
//   - GenerationRuntime: Loads language models and generates text (Ollama)
//   - ConfigStore: Application configuration (TOML)
//   - PromptStore: User-editable prompt templates
//   - CatalogStore: User additions to the embedding model catalog (YAML)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driving package
package driven

// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The services here form the retrieval core: EmbeddingProvider and
// GenerationModel own the two resident models, IndexService maintains the
// chunk index and AnswerService answers questions from it.
package services

package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// errNoQuestionService is reported by the ask tool when answering is not wired.
var errNoQuestionService = errors.New("question answering is not available")

// Failures are reported in the output as {"success": false, "error": "..."}
// rather than as protocol errors, so clients always get the same shape.

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query         string  `json:"query" jsonschema:"what to look for, in natural language"`
	Limit         int     `json:"limit,omitempty" jsonschema:"maximum number of articles to return (default 10)"`
	MinSimilarity *float64 `json:"min_similarity,omitempty" jsonschema:"drop matches below this cosine similarity (default: no floor)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ArticleID   int64   `json:"article_id"`
	Title       string  `json:"title,omitempty"`
	Similarity  float64 `json:"similarity"`
	MatchedText string  `json:"matched_text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the archived articles"`
	MaxChunks int    `json:"max_chunks,omitempty" jsonschema:"maximum number of context chunks (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Answer    string         `json:"answer,omitempty"`
	NoContext bool           `json:"no_context,omitempty"`
	Sources   []SourceOutput `json:"sources,omitempty"`
}

// SourceOutput is an article cited by an answer.
type SourceOutput struct {
	ArticleID  int64   `json:"article_id"`
	Title      string  `json:"title"`
	Date       string  `json:"date,omitempty"`
	Similarity float64 `json:"similarity"`
}

// StatusInput is the (empty) input schema for the index_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the index_status tool.
type StatusOutput struct {
	Success           bool   `json:"success"`
	Error             string `json:"error,omitempty"`
	TotalChunks       int    `json:"total_chunks"`
	IndexedArticles   int    `json:"indexed_articles"`
	TotalArticles     int    `json:"total_articles"`
	CurrentModel      string `json:"current_model"`
	IndexedModel      string `json:"indexed_model"`
	ChunkingVersion   string `json:"chunking_version"`
	ModelMismatch     bool   `json:"model_mismatch"`
	ChunkingMismatch  bool   `json:"chunking_mismatch"`
	DimensionMismatch bool   `json:"dimension_mismatch"`
	RequiresReindex   bool   `json:"requires_reindex"`
}

// RebuildInput is the (empty) input schema for the rebuild_index tool.
type RebuildInput struct{}

// RebuildOutput is the output schema for the rebuild_index tool.
type RebuildOutput struct {
	Success   bool    `json:"success"`
	Error     string  `json:"error,omitempty"`
	Indexed   int     `json:"indexed"`
	Failed    int     `json:"failed"`
	Total     int     `json:"total"`
	FailedIDs []int64 `json:"failed_ids,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search over the archived articles. Returns the best matching passage per article.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the archived articles with the local language model, citing sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report index size and whether it must be rebuilt after a model or chunking change",
	}, s.handleIndexStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rebuild_index",
		Description: "Rebuild the whole index with the selected embedding model",
	}, s.handleRebuild)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	opts := domain.SearchOptions{Limit: limit, MinSimilarity: input.MinSimilarity}
	hits, err := s.ports.Index.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{Error: err.Error(), Results: []SearchResultOutput{}}, nil
	}

	output := SearchOutput{
		Success: true,
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i, h := range hits {
		output.Results[i] = SearchResultOutput{
			ArticleID:   h.ArticleID,
			Title:       s.articleTitle(ctx, h.ArticleID),
			Similarity:  h.Similarity,
			MatchedText: h.MatchedText,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Question == nil {
		return nil, AskOutput{Error: errNoQuestionService.Error()}, nil
	}

	result, err := s.ports.Question.Ask(ctx, input.Question, domain.AskOptions{MaxChunks: input.MaxChunks})
	if err != nil {
		return nil, AskOutput{Error: err.Error()}, nil
	}

	output := AskOutput{
		Success:   true,
		Answer:    result.Answer,
		NoContext: result.NoContext,
	}
	for _, src := range result.Sources {
		out := SourceOutput{
			ArticleID:  src.Article.ID,
			Title:      src.Article.Title,
			Similarity: src.Similarity,
		}
		if !src.Article.Date.IsZero() {
			out.Date = src.Article.Date.Format("2006-01-02")
		}
		output.Sources = append(output.Sources, out)
	}

	return nil, output, nil
}

// handleIndexStatus handles the index_status tool invocation.
func (s *Server) handleIndexStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.Index.Status(ctx)
	if err != nil {
		return nil, StatusOutput{Error: err.Error()}, nil
	}

	return nil, StatusOutput{
		Success:           true,
		TotalChunks:       status.TotalChunks,
		IndexedArticles:   status.IndexedArticles,
		TotalArticles:     status.TotalArticles,
		CurrentModel:      status.CurrentModel,
		IndexedModel:      status.IndexedModel,
		ChunkingVersion:   status.CurrentChunkingVersion,
		ModelMismatch:     status.ModelMismatch,
		ChunkingMismatch:  status.ChunkingMismatch,
		DimensionMismatch: status.DimensionMismatch,
		RequiresReindex:   status.RequiresReindex,
	}, nil
}

// handleRebuild handles the rebuild_index tool invocation.
// The partial result is reported alongside the error when the rebuild stops early.
func (s *Server) handleRebuild(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ RebuildInput,
) (*mcp.CallToolResult, RebuildOutput, error) {
	result, err := s.ports.Index.RebuildIndex(ctx, driving.RebuildOptions{})

	output := RebuildOutput{
		Success:   err == nil,
		Indexed:   result.Indexed,
		Failed:    result.Failed,
		Total:     result.Total,
		FailedIDs: result.FailedIDs,
	}
	if err != nil {
		output.Error = err.Error()
	}
	return nil, output, nil
}

// articleTitle resolves a title for display. Missing articles yield "".
func (s *Server) articleTitle(ctx context.Context, id int64) string {
	if s.ports.Articles == nil {
		return ""
	}
	a, err := s.ports.Articles.Get(ctx, id)
	if err != nil {
		return ""
	}
	return a.Title
}

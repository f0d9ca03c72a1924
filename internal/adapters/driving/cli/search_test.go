package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search articles by meaning", searchCmd.Short)
}

func TestSearchCmd_Long(t *testing.T) {
	assert.Contains(t, searchCmd.Long, "semantic search")
	assert.Contains(t, searchCmd.Long, "best chunk")
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd_HasMinFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("min")
	require.NotNil(t, flag, "min flag should exist")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_PrintsResultsWithTitles(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.articles = newMockArticleService(&domain.Article{ID: 3, Title: "Cats"})
	articleService = ts.articles
	ts.index.hits = []domain.SearchHit{
		{ArticleID: 3, ChunkIndex: 0, Similarity: 0.87, MatchedText: "Cats purr when content."},
		{ArticleID: 9, ChunkIndex: 2, Similarity: 0.41, MatchedText: "unknown article"},
	}

	out, err := runCommand(t, "search", "purring")

	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] Cats (#3, 0.87)")
	assert.Contains(t, out, "Cats purr when content.")
	assert.Contains(t, out, "[2] Article 9 (#9, 0.41)")
	assert.Equal(t, "purring", ts.index.lastQuery)
}

func TestSearchCmd_PassesFlags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "search", "--limit", "25", "--min", "0.5", "test query")

	require.NoError(t, err)
	assert.Equal(t, 25, ts.index.lastOpts.Limit)
	require.NotNil(t, ts.index.lastOpts.MinSimilarity)
	assert.InDelta(t, 0.5, *ts.index.lastOpts.MinSimilarity, 1e-9)
}

func TestSearchCmd_NoResults(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.err = domain.ErrIndexEmpty

	_, err := runCommand(t, "search", "anything")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexEmpty)
	assert.Contains(t, err.Error(), "search failed")
}

func TestSearchCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.hits = []domain.SearchHit{{ArticleID: 1, Similarity: 0.9, MatchedText: "match"}}

	out, err := runCommand(t, "search", "--json", "query")
	require.NoError(t, err)

	var env struct {
		Success bool           `json:"success"`
		Data    []searchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.True(t, env.Success)
	require.Len(t, env.Data, 1)
	assert.Equal(t, int64(1), env.Data[0].ArticleID)
	assert.Equal(t, "Article 1", env.Data[0].Title)
	assert.Equal(t, "match", env.Data[0].MatchedText)
}

func TestSearchCmd_JSONError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.err = errors.New("boom")

	out, err := runCommand(t, "search", "--json", "query")

	require.Error(t, err)
	var reported *reportedError
	assert.True(t, errors.As(err, &reported))
	assert.Contains(t, out, `"success": false`)
	assert.Contains(t, out, "search failed: boom")
}

func TestSearchCmd_NoService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	indexService = nil

	_, err := runCommand(t, "search", "query")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

package domain

// Default search parameters. A floor of -1 keeps every hit.
const (
	DefaultSearchLimit   = 10
	DefaultMinSimilarity = -1.0
)

// SearchOptions configures a semantic search.
type SearchOptions struct {
	// Limit is the maximum number of results (one per article).
	Limit int

	// MinSimilarity drops hits scoring below this cosine similarity.
	// Nil ranks and truncates without a floor.
	MinSimilarity *float64
}

// Similarity returns a pointer to v for the optional threshold fields.
func Similarity(v float64) *float64 {
	return &v
}

// SearchHit is the best matching chunk of one article.
type SearchHit struct {
	// ArticleID is the article the chunk belongs to.
	ArticleID int64

	// ChunkIndex is the position of the matching chunk.
	ChunkIndex int

	// Similarity is the cosine similarity with the query.
	Similarity float64

	// MatchedText is the chunk content.
	MatchedText string
}

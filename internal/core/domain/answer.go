package domain

// Default question answering parameters.
const (
	DefaultAnswerMaxChunks       = 5
	DefaultAnswerMinSimilarity   = 0.3
	DefaultAnswerMaxContextChars = 6000
)

// NoContextAnswer is returned when retrieval finds nothing relevant.
const NoContextAnswer = "No relevant context found: none of your articles appear to cover this question."

// AskOptions configures question answering. Zero or nil fields use defaults.
type AskOptions struct {
	// MaxChunks is the desired number of context chunks.
	MaxChunks int

	// MinSimilarity drops retrieved chunks below this score.
	// Nil means DefaultAnswerMinSimilarity; any value in [-1, 1] is honoured.
	MinSimilarity *float64

	// MaxContextChars bounds the total context length.
	MaxContextChars int
}

// WithDefaults fills unset fields.
func (o AskOptions) WithDefaults() AskOptions {
	if o.MaxChunks <= 0 {
		o.MaxChunks = DefaultAnswerMaxChunks
	}
	if o.MinSimilarity == nil {
		o.MinSimilarity = Similarity(DefaultAnswerMinSimilarity)
	}
	if o.MaxContextChars <= 0 {
		o.MaxContextChars = DefaultAnswerMaxContextChars
	}
	return o
}

// Threshold returns the similarity floor, or the default when unset.
func (o AskOptions) Threshold() float64 {
	if o.MinSimilarity == nil {
		return DefaultAnswerMinSimilarity
	}
	return *o.MinSimilarity
}

// SourceRef is an article cited by an answer.
type SourceRef struct {
	Article    ArticleRef
	Similarity float64
}

// AskResult is a grounded answer.
type AskResult struct {
	// Answer is the model output with conversational labels stripped.
	Answer string

	// Sources are the distinct articles behind the context, best first.
	Sources []SourceRef

	// NoContext is true when nothing relevant was retrieved and the model was not called.
	NoContext bool

	// ContextChunks is the number of chunks placed in the prompt.
	ContextChunks int
}

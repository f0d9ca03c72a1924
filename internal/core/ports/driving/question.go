package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// QuestionService answers questions from the indexed articles.
type QuestionService interface {
	// Ask retrieves relevant chunks and generates a grounded answer.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.AskResult, error)
}

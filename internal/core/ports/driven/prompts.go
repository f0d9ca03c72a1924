package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the current template for name. Edited templates are
	// picked up without a restart. Unknown names are an error.
	Load(name string) (string, error)
}

// Well-known prompt names used throughout the application.
const (
	// PromptRAGSystem constrains the model to the supplied context.
	// This prompt has no format placeholders.
	PromptRAGSystem = "rag_system"

	// PromptRAGUser wraps the retrieved context and the question.
	// The template expects %s (context) then %s (question).
	PromptRAGUser = "rag_user"
)

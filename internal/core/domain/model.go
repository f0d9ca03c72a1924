package domain

// EmbeddingModelDescriptor is a catalog entry for an embedding model.
type EmbeddingModelDescriptor struct {
	// ID is the stable identifier persisted in settings and index metadata.
	ID string `yaml:"id"`

	// Name is the display name.
	Name string `yaml:"name"`

	// Ref is the model reference understood by the runtime.
	Ref string `yaml:"ref"`

	// Dimensions is the output vector length.
	Dimensions int `yaml:"dimensions"`

	// ApproxSizeMB is the approximate download size.
	ApproxSizeMB int `yaml:"approx_size_mb"`
}

// DefaultEmbeddingModelID is used when no model has been selected.
const DefaultEmbeddingModelID = "all-minilm"

// DefaultGenerationModel is the language model suggested for answering.
const DefaultGenerationModel = "llama3.2:3b"

// EmbeddingModelCatalog lists the built-in embedding models.
func EmbeddingModelCatalog() []EmbeddingModelDescriptor {
	return []EmbeddingModelDescriptor{
		{ID: "all-minilm", Name: "all-MiniLM-L6-v2", Ref: "all-minilm:l6-v2", Dimensions: 384, ApproxSizeMB: 46},
		{ID: "nomic-embed-text", Name: "Nomic Embed Text v1.5", Ref: "nomic-embed-text:v1.5", Dimensions: 768, ApproxSizeMB: 274},
		{ID: "mxbai-embed-large", Name: "mxbai-embed-large v1", Ref: "mxbai-embed-large:335m", Dimensions: 1024, ApproxSizeMB: 670},
		{ID: "bge-m3", Name: "BGE-M3 (multilingual)", Ref: "bge-m3:567m", Dimensions: 1024, ApproxSizeMB: 1200},
	}
}

// MergeEmbeddingCatalog appends custom descriptors to the built-in catalog.
// A custom descriptor replaces a built-in one with the same ID.
func MergeEmbeddingCatalog(custom []EmbeddingModelDescriptor) []EmbeddingModelDescriptor {
	merged := EmbeddingModelCatalog()
	for _, c := range custom {
		replaced := false
		for i := range merged {
			if merged[i].ID == c.ID {
				merged[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, c)
		}
	}
	return merged
}

// FindEmbeddingModel looks up a descriptor by id.
func FindEmbeddingModel(catalog []EmbeddingModelDescriptor, id string) (EmbeddingModelDescriptor, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return EmbeddingModelDescriptor{}, false
}

// ModelState is the lifecycle state of a resident model.
type ModelState string

// Model lifecycle states.
const (
	ModelStateUnloaded  ModelState = "unloaded"
	ModelStateLoading   ModelState = "loading"
	ModelStateLoaded    ModelState = "loaded"
	ModelStateUnloading ModelState = "unloading"
	ModelStateFailed    ModelState = "failed"
)

// String returns the string representation.
func (s ModelState) String() string {
	return string(s)
}

// ModelStatus describes the embedding model slot.
type ModelStatus struct {
	// ModelID is the resident (or loading) model, empty when unloaded.
	ModelID string

	// SelectedID is the persisted selection.
	SelectedID string

	State ModelState

	// Error is the load failure message when State is ModelStateFailed.
	Error string

	Dimensions int
}

// GenerationStatus describes the language model slot.
type GenerationStatus struct {
	Loaded  bool
	Loading bool

	// Model is the resident or loading model.
	Model string

	// Error is the last load failure message.
	Error string

	// Progress is the latest download progress while loading.
	Progress PullProgress
}

// PullProgress reports a model download.
type PullProgress struct {
	// Status is the runtime's phase description, e.g. "pulling manifest".
	Status string

	Completed int64
	Total     int64
}

// Fraction returns the completed share in [0, 1], or 0 when unknown.
func (p PullProgress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Completed) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

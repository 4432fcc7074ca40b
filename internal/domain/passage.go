package domain

import "time"

// DefaultKnowledgeType tags passages that carry tenant-specific knowledge.
const DefaultKnowledgeType = "specific_knowledge"

// Passage is the atomic stored unit: one chunk of source text plus the
// provenance metadata the index keeps alongside its embedding.
type Passage struct {
	ID            string
	TenantID      string
	Source        string
	Content       string
	KnowledgeType string
	// SourceID is "{chunk_index}_{source}", stable within one document's
	// chunk sequence. Re-ingesting the same source produces colliding
	// SourceIDs unless the caller deduplicates first.
	SourceID   string
	ChunkIndex int
	Embedding  []float32
	CreatedAt  time.Time
}

// RetrievalResult is one search hit shaped for callers.
type RetrievalResult struct {
	Content string
	Title   string
	Score   float64
}

// Default retrieval settings applied when the caller omits them.
const (
	DefaultTopK           = 10
	DefaultScoreThreshold = 0.4
)

// RetrievalSetting controls nearest-neighbor retrieval. A zero TopK means
// "use the default"; ScoreThreshold zero is a valid explicit threshold, so
// callers that want the default must use DefaultRetrievalSetting or the
// request-level pointer handling in the API layer.
type RetrievalSetting struct {
	TopK           int
	ScoreThreshold float64
}

func DefaultRetrievalSetting() RetrievalSetting {
	return RetrievalSetting{
		TopK:           DefaultTopK,
		ScoreThreshold: DefaultScoreThreshold,
	}
}

// Normalize replaces a non-positive TopK with the default.
func (s RetrievalSetting) Normalize() RetrievalSetting {
	if s.TopK <= 0 {
		s.TopK = DefaultTopK
	}
	return s
}

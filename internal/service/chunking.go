package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/tenantex/internal/domain"
)

// tokensPerChar is a fixed linear approximation of tokenizer output per
// character of a word. It only needs to keep chunks near a target size,
// not match a real tokenizer.
const tokensPerChar = 1.3

// ChunkConfig controls passage chunking for ingestion.
type ChunkConfig struct {
	// ChunkSize is the estimated token budget per passage.
	ChunkSize int
	// KnowledgeType tags every produced passage.
	KnowledgeType string
}

// DefaultChunkConfig provides the standard chunking parameters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:     500,
		KnowledgeType: domain.DefaultKnowledgeType,
	}
}

// SplitContent splits content into passages of approximately ChunkSize
// estimated tokens. Words are taken in order by whitespace splitting and
// greedily packed: a non-empty chunk closes when the next word would push
// its estimate over the budget. An empty chunk accepts its first word
// unconditionally, so a single pathological word larger than the budget
// still lands alone in its own passage, never split. Empty content yields
// no passages.
//
// Joining the produced passages' Content with single spaces reconstructs
// the whitespace-normalized input exactly.
func SplitContent(content, source string, cfg ChunkConfig) []domain.Passage {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkConfig().ChunkSize
	}
	if cfg.KnowledgeType == "" {
		cfg.KnowledgeType = domain.DefaultKnowledgeType
	}

	words := strings.Fields(content)
	passages := make([]domain.Passage, 0, len(words)/64+1)

	var current []string
	tokenCount := 0.0
	chunkIndex := 0

	flush := func() {
		passages = append(passages, domain.Passage{
			Source:        source,
			Content:       strings.Join(current, " "),
			KnowledgeType: cfg.KnowledgeType,
			SourceID:      fmt.Sprintf("%d_%s", chunkIndex, source),
			ChunkIndex:    chunkIndex,
		})
		chunkIndex++
	}

	for _, word := range words {
		estimated := float64(len(word)) * tokensPerChar
		if len(current) > 0 && tokenCount+estimated > float64(cfg.ChunkSize) {
			flush()
			current = []string{word}
			tokenCount = estimated
			continue
		}
		current = append(current, word)
		tokenCount += estimated
	}

	if len(current) > 0 {
		flush()
	}

	return passages
}

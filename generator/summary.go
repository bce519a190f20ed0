package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/amorin/promptforge/schedule"
	"github.com/amorin/promptforge/tokens"
)

// Summary captures everything needed to reason about a run after the
// fact: the seed makes it reproducible, the counts and token estimates
// make it sizeable against rate limits.
type Summary struct {
	RunID              string `json:"run_id"`
	CreatedAt          string `json:"created_at"`
	Seed               int64  `json:"seed"`
	TotalRequests      int    `json:"total_requests"`
	MultimodalRequests int    `json:"multimodal_requests"`
	TextRequests       int    `json:"text_requests"`
	ImagesPerRequest   int    `json:"images_per_request"`
	TotalImages        int    `json:"total_images"`
	Quality            string `json:"quality"`
	CatalogSize        int    `json:"catalog_size"`
	CorpusSize         int    `json:"corpus_size"`
	TextTokens         int    `json:"text_tokens_estimate"`
	ImageTokens        int    `json:"image_tokens_estimate"`
	ElapsedMs          int64  `json:"elapsed_ms"`
}

// summarize derives run statistics from the plan and the assigned texts.
// Image token costs come from catalog dimensions, so no embedded payload
// needs re-decoding.
func (g *Generator) summarize(plan *schedule.Plan, texts []string, elapsed time.Duration) *Summary {
	cfg := g.config

	s := &Summary{
		RunID:              uuid.New().String(),
		CreatedAt:          time.Now().Format(time.RFC3339),
		Seed:               cfg.Seed,
		TotalRequests:      cfg.TotalMessages,
		MultimodalRequests: plan.MultimodalCount,
		TextRequests:       plan.TextCount(),
		ImagesPerRequest:   cfg.ImagesPerRequest,
		Quality:            string(cfg.Quality),
		CorpusSize:         g.corpus.Len(),
		ElapsedMs:          elapsed.Milliseconds(),
	}
	if g.catalog != nil {
		s.CatalogSize = g.catalog.Len()
	}

	// Per-request wrapping plus prompt text. The system prompt rides
	// along on every request that carries one.
	messagesPerRequest := 1
	if cfg.SystemPrompt != "" {
		messagesPerRequest = 2
	}
	systemTokens := tokens.Text(cfg.SystemPrompt)
	for _, text := range texts {
		s.TextTokens += tokens.Overhead(messagesPerRequest) + systemTokens + tokens.Text(text)
	}

	detail := cfg.Quality.Detail()
	for _, slot := range plan.Slots {
		for _, idx := range slot.Images {
			asset := g.catalog.Asset(idx)
			s.ImageTokens += tokens.Image(asset.Width, asset.Height, detail)
			s.TotalImages++
		}
	}

	return s
}

// WriteFile writes the summary as an indented JSON manifest
func (s *Summary) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

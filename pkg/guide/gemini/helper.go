package gemini

import (
	"log/slog"
	"math/rand"

	"google.golang.org/genai"

	"ciceronego/pkg/model"
)

// resolveModel returns the target model name and configuration for the given intent.
func (c *Client) resolveModel(intent string) (string, *genai.GenerateContentConfig) {
	targetModel := c.modelName // Default

	if profileModel, ok := c.profiles[intent]; ok && profileModel != "" {
		targetModel = profileModel
	}

	cfg := &genai.GenerateContentConfig{}

	// Enable Google Search for research (text generation).
	// Note: Google Search is incompatible with JSON mode, which identify uses.
	if intent == "research" {
		cfg.Tools = []*genai.Tool{
			{
				GoogleSearch: &genai.GoogleSearch{},
			},
		}

		if c.temperature > 0 {
			temp := sampleTemperature(c.temperature, 0.2)
			cfg.Temperature = &temp
		}
	}

	return targetModel, cfg
}

// sampleTemperature samples from a normal distribution centered on base.
// Uses jitter as the approximate range (±jitter), with σ = jitter/2.
// Result is clamped to [base-jitter, base+jitter] and minimum 0.1.
func sampleTemperature(base, jitter float32) float32 {
	if jitter <= 0 {
		return base
	}

	sigma := float64(jitter) / 2.0
	sample := float64(base) + rand.NormFloat64()*sigma

	minTemp := float64(base) - float64(jitter)
	maxTemp := float64(base) + float64(jitter)
	if sample < minTemp {
		sample = minTemp
	}
	if sample > maxTemp {
		sample = maxTemp
	}

	if sample < 0.1 {
		sample = 0.1
	}

	return float32(sample)
}

// extractSources converts grounding chunks into citation records.
// Chunks without a web reference are skipped.
func extractSources(meta *genai.GroundingMetadata) []model.Source {
	if meta == nil {
		return nil
	}

	var sources []model.Source
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		if chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, model.Source{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return sources
}

// logGoogleSearchUsage logs the usage of the Google Search tool.
// It is extracted for unit testing and nil-safety.
func logGoogleSearchUsage(name string, meta *genai.GroundingMetadata) {
	used := false
	query := ""
	snippets := 0

	if meta != nil {
		snippets = len(meta.GroundingChunks)
		if len(meta.WebSearchQueries) > 0 {
			used = true
			query = meta.WebSearchQueries[0]
		}
		if meta.SearchEntryPoint != nil {
			used = true
			if query == "" {
				query = "[embedded in RenderedContent]"
			}
		}
		if snippets > 0 {
			used = true
		}
	}

	if used {
		slog.Info("Gemini: Google Search used",
			"intent", name,
			"snippets", snippets,
			"search_query", query)
	} else {
		slog.Warn("Gemini: Google Search tool configured but NOT used by model", "intent", name)
	}
}

package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"ciceronego/pkg/guide"
	"ciceronego/pkg/model"
)

// IdentifyLandmark names the landmark in a photograph.
// The response is requested as JSON and validated structurally.
func (c *Client) IdentifyLandmark(ctx context.Context, image []byte, mimeType string) (*model.LandmarkInfo, error) {
	client, err := c.client()
	if err != nil {
		return nil, err
	}

	prompt, err := c.prompts.Render("identify.tmpl", map[string]any{
		"Language": c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("render identify prompt: %w", err)
	}

	modelName, cfg := c.resolveModel("identify")
	cfg.ResponseMIMEType = "application/json"

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		c.logPrompt("identify", prompt, fmt.Sprintf("ERROR: %v", err))
		c.tracker.TrackAPIFailure("gemini")
		return nil, fmt.Errorf("identify landmark: %w", err)
	}
	c.tracker.TrackLatency("gemini", time.Since(start))

	text, err := getResponseText(resp)
	if err != nil {
		c.logPrompt("identify", prompt, fmt.Sprintf("TEXT_PARSE_ERROR: %v", err))
		c.tracker.TrackAPIFailure("gemini")
		return nil, &guide.MalformedResponseError{Reason: "no text in identify response", Err: err}
	}

	cleaned := cleanJSONBlock(text)
	c.logPrompt("identify", prompt, cleaned)

	var info model.LandmarkInfo
	if err := json.Unmarshal([]byte(cleaned), &info); err != nil {
		c.tracker.TrackAPIFailure("gemini")
		return nil, &guide.MalformedResponseError{Reason: "identify response is not valid JSON", Err: err}
	}

	if err := guide.ValidateLandmark(&info); err != nil {
		c.tracker.TrackAPIFailure("gemini")
		return nil, err
	}

	c.tracker.TrackAPISuccess("gemini")
	return &info, nil
}

// ResearchLandmark writes the landmark's story using Google Search grounding.
func (c *Client) ResearchLandmark(ctx context.Context, landmark *model.LandmarkInfo) (*model.DetailedHistory, error) {
	client, err := c.client()
	if err != nil {
		return nil, err
	}

	prompt, err := c.prompts.Render("research.tmpl", map[string]any{
		"Name":        landmark.Name,
		"Description": landmark.ShortDescription,
		"Language":    c.language,
		"MaxWords":    c.storyMaxWords,
	})
	if err != nil {
		return nil, fmt.Errorf("render research prompt: %w", err)
	}

	modelName, cfg := c.resolveModel("research")

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), cfg)
	if err != nil {
		c.logPrompt("research", prompt, fmt.Sprintf("ERROR: %v", err))
		c.tracker.TrackAPIFailure("gemini")
		return nil, fmt.Errorf("research landmark: %w", err)
	}
	c.tracker.TrackLatency("gemini", time.Since(start))

	var sources []model.Source
	if len(resp.Candidates) > 0 {
		meta := resp.Candidates[0].GroundingMetadata
		logGoogleSearchUsage("research", meta)
		sources = extractSources(meta)
	}

	text, err := getResponseText(resp)
	if err != nil {
		c.logPrompt("research", prompt, fmt.Sprintf("TEXT_PARSE_ERROR: %v", err))
		c.tracker.TrackAPIFailure("gemini")
		return nil, &guide.MalformedResponseError{Reason: "no text in research response", Err: err}
	}

	c.logPrompt("research", prompt, text)

	hist := &model.DetailedHistory{
		FullStory: text,
		Sources:   sources,
	}
	if err := guide.ValidateHistory(hist); err != nil {
		c.tracker.TrackAPIFailure("gemini")
		return nil, err
	}

	c.tracker.TrackAPISuccess("gemini")
	return hist, nil
}

// SynthesizeNarration renders the story about the named landmark as speech
// using the TTS model. Returns base64-encoded 16-bit little-endian PCM at
// 24 kHz.
func (c *Client) SynthesizeNarration(ctx context.Context, name, story string) (string, error) {
	client, err := c.client()
	if err != nil {
		return "", err
	}

	prompt, err := c.prompts.Render("narrate.tmpl", map[string]any{
		"Name":  name,
		"Story": story,
	})
	if err != nil {
		return "", fmt.Errorf("render narrate prompt: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: c.voice,
				},
			},
		},
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, c.speechModel, genai.Text(prompt), cfg)
	if err != nil {
		c.logPrompt("narrate", prompt, fmt.Sprintf("ERROR: %v", err))
		c.tracker.TrackAPIFailure("gemini")
		return "", fmt.Errorf("synthesize narration: %w", err)
	}
	c.tracker.TrackLatency("gemini", time.Since(start))

	audio := findAudioData(resp)
	if len(audio) == 0 {
		c.logPrompt("narrate", prompt, "ERROR: no audio data in response")
		c.tracker.TrackAPIFailure("gemini")
		return "", guide.ErrNoAudio
	}

	c.logPrompt("narrate", prompt, fmt.Sprintf("[%d bytes of audio]", len(audio)))
	c.tracker.TrackAPISuccess("gemini")
	return base64.StdEncoding.EncodeToString(audio), nil
}

// findAudioData returns the first inline audio payload in the response.
func findAudioData(resp *genai.GenerateContentResponse) []byte {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

package gemini

import (
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestCleanJSONBlock(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  \n", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanJSONBlock(tc.input); got != tc.want {
				t.Errorf("cleanJSONBlock(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestResolveModelProfiles(t *testing.T) {
	c := &Client{
		modelName: "gemini-2.5-flash",
		profiles: map[string]string{
			"identify": "gemini-2.5-pro",
		},
	}

	name, _ := c.resolveModel("identify")
	if name != "gemini-2.5-pro" {
		t.Errorf("identify resolved to %q", name)
	}

	name, _ = c.resolveModel("research")
	if name != "gemini-2.5-flash" {
		t.Errorf("research fell back to %q", name)
	}
}

func TestResolveModelResearchTools(t *testing.T) {
	c := &Client{modelName: "gemini-2.5-flash", temperature: 1.0}

	_, cfg := c.resolveModel("research")
	if len(cfg.Tools) != 1 || cfg.Tools[0].GoogleSearch == nil {
		t.Error("research config missing Google Search tool")
	}
	if cfg.Temperature == nil {
		t.Error("research config missing temperature")
	}

	_, cfg = c.resolveModel("identify")
	if len(cfg.Tools) != 0 {
		t.Error("identify config should not carry tools (JSON mode)")
	}
}

func TestSampleTemperature(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := sampleTemperature(1.0, 0.2)
		if got < 0.8 || got > 1.2 {
			t.Fatalf("sample %v outside [0.8, 1.2]", got)
		}
	}

	if got := sampleTemperature(0.5, 0); got != 0.5 {
		t.Errorf("zero jitter should return base, got %v", got)
	}
}

func TestExtractSources(t *testing.T) {
	meta := &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{Title: "Wikipedia", URI: "https://example.org/a"}},
			{Web: nil},
			nil,
			{Web: &genai.GroundingChunkWeb{Title: "", URI: ""}},
			{Web: &genai.GroundingChunkWeb{Title: "Britannica", URI: "https://example.org/b"}},
		},
	}

	sources := extractSources(meta)
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Title != "Wikipedia" || sources[1].URI != "https://example.org/b" {
		t.Errorf("unexpected sources: %+v", sources)
	}

	if got := extractSources(nil); got != nil {
		t.Errorf("nil metadata should yield nil sources, got %+v", got)
	}
}

func TestLogGoogleSearchUsageNilSafety(t *testing.T) {
	// Must not panic on nil or partially filled metadata.
	logGoogleSearchUsage("research", nil)
	logGoogleSearchUsage("research", &genai.GroundingMetadata{})
	logGoogleSearchUsage("research", &genai.GroundingMetadata{
		WebSearchQueries: []string{"eiffel tower history"},
	})
}

func TestGetResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "hello "},
				nil,
				{Text: "world"},
			}}},
		},
	}
	got, err := getResponseText(resp)
	if err != nil {
		t.Fatalf("getResponseText failed: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}

	if _, err := getResponseText(&genai.GenerateContentResponse{}); err == nil {
		t.Error("empty response should be an error")
	}

	// Safety-blocked candidates carry no content; that is an error, not a panic.
	blocked := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: nil}},
	}
	if _, err := getResponseText(blocked); err == nil {
		t.Error("content-less candidate should be an error")
	}
}

func TestFindAudioData(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "some text"},
				{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte{1, 2, 3}}},
			}}},
		},
	}

	got := findAudioData(resp)
	if len(got) != 3 {
		t.Errorf("got %d bytes, want 3", len(got))
	}

	empty := &genai.GenerateContentResponse{}
	if findAudioData(empty) != nil {
		t.Error("empty response should yield no audio")
	}
}

func TestWordWrap(t *testing.T) {
	text := strings.Repeat("word ", 30)
	wrapped := wordWrap(strings.TrimSpace(text), 40)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 45 {
			t.Errorf("line too long: %q", line)
		}
	}
}

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-3-flash-preview"
	defaultTimeout = 60 * time.Second
)

// GeminiConfig configures the HTTP client for the Gemini generateContent API.
type GeminiConfig struct {
	// APIKey is the credential from the API_KEY environment variable.
	// An empty key is allowed at construction; Generate fails with
	// ErrMissingAPIKey before any network I/O.
	APIKey  string
	Model   string
	BaseURL string
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiClient constructs the client with defaults filled in.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &GeminiClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// Generate runs one generation call. The context cancels the round trip
// when the caller abandons interest in the result.
func (c *GeminiClient) Generate(ctx context.Context, request Request) (Result, error) {
	if c.apiKey == "" {
		return Result{}, ErrMissingAPIKey
	}

	payload := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: buildPrompt(request)}}},
		},
	}
	if request.Action == ActionSEO {
		payload.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, &GenerationError{err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, &GenerationError{err: err}
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("x-goog-api-key", c.apiKey)

	response, err := c.client.Do(httpRequest)
	if err != nil {
		return Result{}, &GenerationError{err: err}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return Result{}, &GenerationError{
			Status: response.StatusCode,
			err:    errors.New(strings.TrimSpace(string(detail))),
		}
	}

	var decoded generateResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return Result{}, &GenerationError{err: fmt.Errorf("decode response: %w", err)}
	}

	text := firstCandidateText(decoded)
	if text == "" {
		return Result{}, &GenerationError{err: errors.New("empty response")}
	}

	result := Result{Text: text}
	if request.Action == ActionSEO {
		result.SEO = parseSEOReport(text)
	}
	return result, nil
}

func firstCandidateText(response generateResponse) string {
	for _, candidate := range response.Candidates {
		var builder strings.Builder
		for _, part := range candidate.Content.Parts {
			builder.WriteString(part.Text)
		}
		if builder.Len() > 0 {
			return builder.String()
		}
	}
	return ""
}

// parseSEOReport tries the structured SEO contract and returns nil on
// malformed JSON, leaving the raw text as the caller's fallback.
func parseSEOReport(text string) *SEOReport {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var report SEOReport
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &report); err != nil {
		return nil
	}
	if report.TitleSuggestion == "" && len(report.Keywords) == 0 && len(report.ImprovementTips) == 0 {
		return nil
	}
	return &report
}

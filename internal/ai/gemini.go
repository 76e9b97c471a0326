package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/logger"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"

	maxErrorBody = 4096
)

// GeminiClient implements Provider against the Gemini generateContent API.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// NewGeminiClient creates a client. An empty model selects DefaultModel and
// a nil httpClient selects http.DefaultClient. Timeouts come from the
// caller's context.
func NewGeminiClient(httpClient *http.Client, apiKey, model string) *GeminiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClient{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		model:      model,
		apiKey:     apiKey,
	}
}

// WithBaseURL points the client at another endpoint root.
func (c *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// NewProvider returns a Gemini client when apiKey is set and the fallback
// provider otherwise.
func NewProvider(httpClient *http.Client, apiKey, model string) Provider {
	if strings.TrimSpace(apiKey) == "" {
		logger.Warn("GEMINI_API_KEY is not set, ride descriptions will use fallback text")
		return FallbackProvider{}
	}
	return NewGeminiClient(httpClient, apiKey, model)
}

// Generate asks the model for ride copy. Any failure is logged and replaced
// by Fallback.
func (c *GeminiClient) Generate(ctx context.Context, p RidePrompt) RideCopy {
	if c.apiKey == "" {
		return Fallback(p)
	}

	out, err := c.complete(ctx, p)
	if err != nil {
		logger.Warn("AI description unavailable, using fallback",
			"model", c.model,
			"title", p.Title,
			"error", err)
		return Fallback(p)
	}
	if strings.TrimSpace(out.Description) == "" {
		out.Description = defaultDescription
	}
	if strings.TrimSpace(out.Tips) == "" {
		out.Tips = defaultTips
	}
	return out
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
}

func (c *GeminiClient) complete(ctx context.Context, p RidePrompt) (RideCopy, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildPrompt(p)}},
		}},
		GenerationConfig: geminiGenerationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return RideCopy{}, errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return RideCopy{}, errors.Wrap(err, errors.ErrCodeInternalError, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RideCopy{}, errors.Wrap(err, errors.ErrCodeAIUnavailable, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return RideCopy{}, errors.New(errors.ErrCodeAIUnavailable,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var wire geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return RideCopy{}, errors.Wrap(err, errors.ErrCodeAIUnavailable, "malformed response envelope")
	}

	text := wire.text()
	if text == "" {
		return RideCopy{}, errors.New(errors.ErrCodeAIUnavailable, "no response text")
	}

	var out RideCopy
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &out); err != nil {
		return RideCopy{}, errors.Wrap(err, errors.ErrCodeAIUnavailable, "response text is not JSON")
	}
	return out, nil
}

// stripCodeFence removes a ```json fence some models wrap around raw JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Wire types for generateContent.

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (r geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}

package treechat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoText is returned when the model answered without any text part.
var ErrNoText = errors.New("model returned no text")

// Model produces the tree's reply to a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini calls the generateContent endpoint of the Gemini API.
type Gemini struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewGemini creates a Gemini client. baseURL is e.g. https://generativelanguage.googleapis.com/v1beta.
func NewGemini(baseURL, model, apiKey string, timeout time.Duration, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Gemini{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt as a single user turn and returns the first text part.
// Any JSON answer without text, including an error body, yields ErrNoText.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	raw, err := json.Marshal(generateRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	g.logger.Debug("gemini call", zap.String("model", g.model), zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		g.logger.Warn("gemini returned an error", zap.Int("status", resp.StatusCode))
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
		return "", ErrNoText
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
)

var _ ports.TextGenerator = (*AnthropicService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
)

// AnthropicService TextGenerator sobre la Messages API de Anthropic.
type AnthropicService struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewAnthropicService construye el adaptador. Sin apiKey las llamadas devuelven error.
func NewAnthropicService(apiKey, model string) *AnthropicService {
	return &AnthropicService{apiKey: apiKey, model: model, url: anthropicMessagesURL, client: newHTTPClient(25 * time.Second)}
}

// WithURL apunta el adaptador a otro endpoint de mensajes.
func (s *AnthropicService) WithURL(u string) *AnthropicService {
	s.url = u
	return s
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func anthropicErrorMessage(raw []byte) string {
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) != nil || body.Error.Message == "" {
		return ""
	}
	return body.Error.Type + ": " + body.Error.Message
}

// GenerateAnalysis envía el resumen del dashboard y devuelve los bloques de texto concatenados.
func (s *AnthropicService) GenerateAnalysis(ctx context.Context, digest, analysisType string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("anthropic: ANTHROPIC_API_KEY no configurado")
	}

	payload := anthropicRequest{
		Model:       s.model,
		MaxTokens:   1024,
		Temperature: 0.3,
		System:      SystemPrompt(analysisType),
		Messages:    []anthropicMessage{{Role: "user", Content: digest}},
	}
	headers := map[string]string{
		"x-api-key":         s.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var out anthropicResponse
	if err := postJSON(ctx, s.client, "anthropic", s.url, headers, payload, &out, anthropicErrorMessage); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	text := cleanText(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic: %w", errEmptyText)
	}
	return text, nil
}

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

var _ ports.TextGenerator = (*GeminiService)(nil)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiService TextGenerator sobre generateContent de Gemini.
type GeminiService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiService construye el adaptador; model p. ej. "gemini-1.5-flash".
func NewGeminiService(apiKey, model string) *GeminiService {
	return &GeminiService{apiKey: apiKey, model: model, baseURL: geminiBaseURL, client: newHTTPClient(20 * time.Second)}
}

// WithBaseURL apunta el adaptador a otro host (proxy o servidor de pruebas).
func (s *GeminiService) WithBaseURL(u string) *GeminiService {
	s.baseURL = strings.TrimRight(u, "/")
	return s
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float32 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

func geminiErrorMessage(raw []byte) string {
	var body struct {
		Error struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) != nil || body.Error.Message == "" {
		return ""
	}
	return strings.TrimSpace(body.Error.Status + " " + body.Error.Message)
}

// GenerateAnalysis envía el resumen del dashboard y devuelve el texto del modelo.
func (s *GeminiService) GenerateAnalysis(ctx context.Context, digest, analysisType string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("gemini: GEMINI_API_KEY no configurado")
	}

	var payload geminiRequest
	payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: SystemPrompt(analysisType)}}}
	payload.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: digest}}}}
	payload.GenerationConfig.Temperature = 0.3
	payload.GenerationConfig.MaxOutputTokens = 768

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	var out geminiResponse
	if err := postJSON(ctx, s.client, "gemini", url, nil, payload, &out, geminiErrorMessage); err != nil {
		return "", err
	}

	var sb strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := cleanText(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini: %w", errEmptyText)
	}
	return text, nil
}

package ai

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

	"github.com/jhoicas/tienda-pos/internal/application/ports"
)

var _ ports.LLMService = (*AnthropicService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"

	systemPrompt = `Eres el asistente de una tienda de barrio. Responde en español, en máximo tres frases,
usando solo los datos de la tienda que se te entregan. Si la pregunta no se puede responder con esos datos,
dilo con claridad y sugiere preguntar por precios, stock, más vendidos o ventas del día.`
)

// ErrNotConfigured la clave de API está vacía.
var ErrNotConfigured = errors.New("AI: ANTHROPIC_API_KEY no configurado")

// AnthropicService adaptador de LLMService sobre la API Messages de Anthropic.
type AnthropicService struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// Option ajusta el adaptador (pruebas).
type Option func(*AnthropicService)

// WithEndpoint cambia la URL de la API.
func WithEndpoint(url string) Option { return func(s *AnthropicService) { s.endpoint = url } }

// WithHTTPClient reemplaza el cliente HTTP.
func WithHTTPClient(c *http.Client) Option { return func(s *AnthropicService) { s.httpClient = c } }

// NewAnthropicService construye el adaptador. Si apiKey está vacío, Answer devuelve ErrNotConfigured.
func NewAnthropicService(apiKey, model string, opts ...Option) *AnthropicService {
	s := &AnthropicService{
		apiKey:     apiKey,
		model:      model,
		endpoint:   anthropicMessagesURL,
		httpClient: &http.Client{Timeout: 25 * time.Second},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Answer envía la pregunta junto al resumen de la tienda y devuelve el texto de la respuesta.
func (s *AnthropicService) Answer(ctx context.Context, question, storeContext string) (string, error) {
	if s.apiKey == "" {
		return "", ErrNotConfigured
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 300,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: fmt.Sprintf("Datos de la tienda:\n%s\nPregunta: %s", storeContext, question)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("AI: leer respuesta: %w", err)
	}

	var out anthropicResponse
	jsonErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		if jsonErr == nil && out.Error != nil {
			return "", fmt.Errorf("AI: Anthropic error (%s): %s", out.Error.Type, out.Error.Message)
		}
		return "", fmt.Errorf("AI: Anthropic HTTP %d: %s", resp.StatusCode, string(raw))
	}
	if jsonErr != nil {
		return "", fmt.Errorf("AI: deserializar respuesta: %w", jsonErr)
	}

	var b strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("AI: respuesta vacía")
	}
	return text, nil
}

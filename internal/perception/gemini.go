package perception

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"plantkeeper/internal/logging"

	"google.golang.org/genai"
)

// generator is the slice of the genai client we use; *genai.Models satisfies it.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for the Gemini analyzer.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	MinInterval time.Duration // spacing between requests
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:      apiKey,
		Model:       "gemini-2.5-flash",
		Timeout:     90 * time.Second,
		MinInterval: 500 * time.Millisecond,
	}
}

// GeminiAnalyzer implements Analyzer on the Gemini API.
type GeminiAnalyzer struct {
	models      generator
	model       string
	timeout     time.Duration
	minInterval time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer.
func NewGeminiAnalyzer(ctx context.Context, cfg GeminiConfig) (*GeminiAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiAnalyzer(client.Models, cfg), nil
}

func newGeminiAnalyzer(models generator, cfg GeminiConfig) *GeminiAnalyzer {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiAnalyzer{
		models:      models,
		model:       model,
		timeout:     cfg.Timeout,
		minInterval: cfg.MinInterval,
	}
}

// Model returns the configured model name.
func (a *GeminiAnalyzer) Model() string { return a.model }

// Identify asks the model to identify the plant in the image.
func (a *GeminiAnalyzer) Identify(ctx context.Context, imageBase64 string) (string, error) {
	return a.generate(ctx, "identify", imageBase64, identifyPrompt)
}

// AnalyzeHealth asks the model for a health assessment, with optional grower notes.
func (a *GeminiAnalyzer) AnalyzeHealth(ctx context.Context, imageBase64, userContext string) (string, error) {
	return a.generate(ctx, "analyze_health", imageBase64, buildHealthPrompt(userContext))
}

func (a *GeminiAnalyzer) generate(ctx context.Context, op, imageBase64, prompt string) (string, error) {
	data, mime, err := DecodeImage(imageBase64)
	if err != nil {
		return "", err
	}

	if err := a.throttle(ctx); err != nil {
		return "", err
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mime),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	temperature := float32(0.2)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	}

	timer := logging.StartTimer(logging.CategoryPerception, op)
	logging.PerceptionDebug("%s: sending %d byte %s image to %s", op, len(data), mime, a.model)
	resp, err := a.models.GenerateContent(ctx, a.model, contents, config)
	timer.StopWithThreshold(30 * time.Second)
	if err != nil {
		return "", fmt.Errorf("gemini %s failed: %w", op, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		// Blocked or empty candidates still yield a defaulted record downstream.
		logging.Get(logging.CategoryPerception).Warn("%s: %s returned no text", op, a.model)
		return "", nil
	}
	logging.Perception("%s: received %d chars from %s", op, len(text), a.model)
	return text, nil
}

// throttle spaces requests at least minInterval apart.
func (a *GeminiAnalyzer) throttle(ctx context.Context) error {
	a.mu.Lock()
	wait := a.minInterval - time.Since(a.lastRequest)
	if wait < 0 {
		wait = 0
	}
	a.lastRequest = time.Now().Add(wait)
	a.mu.Unlock()

	if wait == 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

const defaultModelTimeout = 60 * time.Second

// NewGenAIClient creates a Gemini API client
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

// GeminiModel is a TextModel backed by a Gemini generation model
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// NewGeminiModel creates a TextModel asking for JSON output
func NewGeminiModel(client *genai.Client, model string) *GeminiModel {
	return &GeminiModel{
		client:      client,
		model:       model,
		temperature: 0.7,
		timeout:     defaultModelTimeout,
	}
}

func (m *GeminiModel) Name() string {
	return m.model
}

// Invoke sends prompt and returns the raw response text
func (m *GeminiModel) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(m.temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", classifyGenAIError(err))
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("%w: model returned an empty response", ErrMalformedDraft)
	}
	return text, nil
}

// classifyGenAIError marks rate limiting, server faults and timeouts as
// transient. Everything else, including auth and bad requests, is returned
// unchanged.
func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return transient(err)
		}
		return err
	}
	if IsTransient(err) {
		return transient(err)
	}
	return err
}

package out

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"flux/internal/modules/coach/domain"
	coachout "flux/internal/modules/coach/port/out"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	analyzeMaxTokens = 300
	shortMaxTokens   = 80
	temperature      = 0.4
)

const analyzeSystemPrompt = `You classify a person's daily energy into one operating mode: "survival", "maintenance" or "expansion".
Use the energy level (0-100), tags, note and the recent check-in history.
Answer with a JSON object: {"context": <mode>, "reasoning": <one sentence>, "actionable_tip": <one short imperative>}.`

const coachSystemPrompt = `You are a concise habit coach. Reply with a single encouraging sentence under 20 words, adapted to the energy level.`

const summarySystemPrompt = `You close a person's day in a single warm sentence, mentioning what they completed and their energy.`

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIProvider talks to any OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(cfg OpenAIConfig) coachout.Provider {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: model}
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string, maxTokens int, jsonOut bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonOut {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) Analyze(ctx context.Context, request domain.AnalysisRequest) (domain.Analysis, error) {
	payload, err := json.Marshal(map[string]any{
		"energy_level": request.Level,
		"tags":         request.Tags,
		"note":         request.Note,
		"history":      request.History,
	})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("encode analysis request: %w", err)
	}
	content, err := p.complete(ctx, analyzeSystemPrompt, string(payload), analyzeMaxTokens, true)
	if err != nil {
		return domain.Analysis{}, err
	}
	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return domain.Analysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	if strings.TrimSpace(analysis.Context) == "" {
		return domain.Analysis{}, fmt.Errorf("analysis without context")
	}
	return analysis, nil
}

func (p *OpenAIProvider) MicroCoach(ctx context.Context, habitTitle string, level int) (string, error) {
	user := fmt.Sprintf("Habit: %s\nEnergy level: %d/100", habitTitle, level)
	return p.complete(ctx, coachSystemPrompt, user, shortMaxTokens, false)
}

func (p *OpenAIProvider) DailySummary(ctx context.Context, day domain.DaySummary, history string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"name":      day.Name,
		"goal":      day.Goal,
		"date":      day.Date,
		"energy":    day.Level,
		"mode":      day.Mode,
		"completed": day.Completed,
		"pending":   day.Pending,
		"note":      day.Note,
		"history":   history,
	})
	if err != nil {
		return "", fmt.Errorf("encode day summary: %w", err)
	}
	return p.complete(ctx, summarySystemPrompt, string(payload), shortMaxTokens, false)
}

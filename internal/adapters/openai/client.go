package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/core"
)

const promptFormat = `You are a phishing detection system. Analyze the following email and assess how risky it is.
Respond with a JSON object containing:
- risk_score: integer between 0 and 100 (higher means more dangerous)
- threat_type: string (short label for the threat, e.g. "phishing", "bank impersonation", "safe message")
- advice: string (one sentence telling the reader what to do)
- flags: array of objects {icon, title, description, severity} explaining the suspicious signals found
- actions: array of objects {icon, action, description} with recommended follow-ups

Email:
%s

Respond only with the JSON object and nothing else.`

// Client scores emails through the OpenAI chat API. It implements
// core.Analyzer.
type Client struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewClient creates a new OpenAI scoring client
func NewClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Client {
	return &Client{
		client:      openai.NewClient(apiKey),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Analyze scores the email text and returns a verdict
func (c *Client) Analyze(ctx context.Context, text string) (*core.Verdict, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a phishing detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(promptFormat, text),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: "json"}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	verdict.AnalyzedAt = time.Now()
	verdict.Provider = "openai/" + c.modelName
	verdict.ProcessingID = resp.ID
	if verdict.ProcessingID == "" {
		verdict.ProcessingID = uuid.NewString()
	}

	return verdict, nil
}

// parseVerdict decodes the model's JSON verdict, falling back to the first
// top-level object embedded in a chattier response
func parseVerdict(responseText string) (*core.Verdict, error) {
	var verdict core.Verdict
	if err := json.Unmarshal([]byte(responseText), &verdict); err != nil {
		jsonStart := -1
		jsonEnd := -1
		for i := 0; i < len(responseText); i++ {
			if responseText[i] == '{' {
				jsonStart = i
				break
			}
		}
		for i := len(responseText) - 1; i >= 0; i-- {
			if responseText[i] == '}' {
				jsonEnd = i + 1
				break
			}
		}
		if jsonStart < 0 || jsonStart >= jsonEnd {
			return nil, fmt.Errorf("failed to extract JSON from model response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &verdict); err != nil {
			return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
	}

	verdict.RiskScore = clampScore(verdict.RiskScore)
	return &verdict, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

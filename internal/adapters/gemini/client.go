package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"

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

// Client scores emails through Google Gemini. It implements core.Analyzer.
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewClient creates a new Gemini scoring client
func NewClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*Client, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Client{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close closes the Gemini client
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Analyze scores the email text and returns a verdict
func (c *Client) Analyze(ctx context.Context, text string) (*core.Verdict, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(promptFormat, text)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	verdict, err := parseVerdict(responseText)
	if err != nil {
		return nil, err
	}

	verdict.AnalyzedAt = time.Now()
	verdict.Provider = "gemini/" + c.modelName
	verdict.ProcessingID = uuid.NewString()

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

	if verdict.RiskScore < 0 {
		verdict.RiskScore = 0
	}
	if verdict.RiskScore > 100 {
		verdict.RiskScore = 100
	}
	return &verdict, nil
}

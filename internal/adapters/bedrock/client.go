package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"
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

// Client scores emails through Amazon Bedrock. It implements core.Analyzer.
type Client struct {
	client      *bedrockruntime.Client
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewClient creates a new Bedrock scoring client
func NewClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Client {
	return &Client{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Analyze scores the email text and returns a verdict
func (c *Client) Analyze(ctx context.Context, text string) (*core.Verdict, error) {
	prompt := fmt.Sprintf(promptFormat, text)

	payload, err := c.buildPayload(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	responseText, err := c.extractText(resp.Body)
	if err != nil {
		return nil, err
	}

	verdict, err := parseVerdict(responseText)
	if err != nil {
		return nil, err
	}

	verdict.AnalyzedAt = time.Now()
	verdict.Provider = "bedrock/" + c.modelID
	verdict.ProcessingID = uuid.NewString()

	return verdict, nil
}

// buildPayload shapes the request for the model family in use
func (c *Client) buildPayload(prompt string) ([]byte, error) {
	if c.isAnthropicModel() {
		return json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	}
	if c.isAmazonTitanModel() {
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	}
	return json.Marshal(map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"top_p":       c.topP,
	})
}

// extractText pulls the completion text out of the model-family specific
// response envelope
func (c *Client) extractText(body []byte) (string, error) {
	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	}

	if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	}
	return string(body), nil
}

func (c *Client) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

func (c *Client) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
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

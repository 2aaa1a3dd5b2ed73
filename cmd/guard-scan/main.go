package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/bridge"
	"github.com/aman/webmail-guard/internal/config"
	"github.com/aman/webmail-guard/internal/core"
	"github.com/aman/webmail-guard/internal/factory"
	"github.com/aman/webmail-guard/internal/logging"
)

var (
	// Agent flags
	agentAddr  = flag.String("agent", "127.0.0.1:8743", "Address of the running guard's bridge")
	targetHost = flag.String("target-host", "mail.google.com", "Webmail host the guard must be attached to")

	// Analyzer flags
	provider    = flag.String("provider", "http", "Verdict provider (http, openai, gemini, bedrock)")
	endpoint    = flag.String("endpoint", "http://127.0.0.1:8000/analyze", "Scoring service endpoint for the http provider")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for model responses")
	temperature = flag.Float64("temperature", 0.1, "Temperature for model generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for model generation")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4", "OpenAI model name")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
	} else {
		cfg = createConfigFromFlags()
	}

	if err := scan(cfg, logger); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// scan runs the manual pipeline: locate the guard, verify the page, request
// the open email, score it, push the verdict back for in-page display, and
// render the same verdict locally
func scan(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	agent := agentClient{
		base:       "http://" + *agentAddr,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	fmt.Println("Reading the open email...")

	// Locate the attached page; a dead agent is the "no eligible tab" case
	info, err := agent.pageInfo(ctx)
	if err != nil {
		fmt.Println("No webmail page attached. Is the guard running?")
		return err
	}
	if !onTargetHost(info.URL, cfg.GetString("page.target_host")) {
		fmt.Printf("Open %s first.\n", cfg.GetString("page.target_host"))
		return fmt.Errorf("guard is attached to %q", info.URL)
	}

	// Request the current email over the bridge
	resp, err := agent.send(ctx, &bridge.Request{Type: bridge.TypeGetEmail})
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	if !resp.OK || resp.Data == nil {
		fmt.Println("Open a message (not the list) and try again.")
		return fmt.Errorf("no open email: %s", resp.Error)
	}
	snapshot := resp.Data

	fmt.Println("Analyzing...")

	analyzerFactory := factory.NewAnalyzerFactory(cfg, logger)
	analyzerClient, err := analyzerFactory.CreateAnalyzer()
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	defer func() {
		if closer, ok := analyzerClient.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close analyzer", zap.Error(err))
			}
		}
	}()

	startTime := time.Now()
	verdict, err := analyzerClient.Analyze(ctx, snapshot.FullText())
	if err != nil {
		fmt.Printf("Scoring service unreachable. Make sure it is running (%s).\n",
			cfg.GetString("analyzer.endpoint"))
		return err
	}

	// Push the verdict into the page for the banner
	if pushResp, err := agent.send(ctx, &bridge.Request{Type: bridge.TypeShowResult, Result: verdict}); err != nil {
		logger.Warn("Failed to push verdict to page", zap.Error(err))
	} else if !pushResp.OK {
		logger.Warn("Page rejected verdict", zap.String("error", pushResp.Error))
	}

	display(snapshot, verdict, time.Since(startTime))
	return nil
}

// display renders the verdict summary locally, mirroring what the in-page
// banner shows plus the full flag and action lists
func display(snapshot *core.EmailSnapshot, verdict *core.Verdict, duration time.Duration) {
	tier := verdict.Tier()

	fmt.Printf("\n=== Email ===\n")
	fmt.Printf("From: %s\n", snapshot.Sender)
	fmt.Printf("Subject: %s\n", snapshot.Subject)
	fmt.Printf("Body length: %d bytes\n", len(snapshot.Body))

	fmt.Printf("\n=== Verdict ===\n")
	fmt.Printf("Risk score: %d%% (%s)\n", verdict.RiskScore, tier)
	threat := verdict.ThreatType
	if threat == "" {
		threat = "-"
	}
	fmt.Printf("Threat type: %s\n", threat)
	advice := verdict.Advice
	if advice == "" {
		advice = "-"
	}
	fmt.Printf("Advice: %s\n", advice)

	if len(verdict.Flags) > 0 {
		fmt.Printf("\nWhy:\n")
		for _, f := range verdict.Flags {
			fmt.Printf("  %s %s - %s\n", f.Icon, f.Title, f.Description)
		}
	}
	if len(verdict.Actions) > 0 {
		fmt.Printf("\nRecommended actions:\n")
		for _, a := range verdict.Actions {
			fmt.Printf("  %s %s - %s\n", a.Icon, a.Action, a.Description)
		}
	}

	fmt.Printf("\nProvider: %s\n", verdict.Provider)
	fmt.Printf("Processing time: %v\n", duration)
}

// agentClient talks to the guard's bridge over loopback HTTP
type agentClient struct {
	base       string
	httpClient *http.Client
}

func (c agentClient) pageInfo(ctx context.Context) (*bridge.PageInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/page", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page lookup returned status %d", resp.StatusCode)
	}
	var info bridge.PageInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c agentClient) send(ctx context.Context, breq *bridge.Request) (*bridge.Response, error) {
	payload, err := json.Marshal(breq)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/bridge", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var bresp bridge.Response
	if err := json.NewDecoder(resp.Body).Decode(&bresp); err != nil {
		return nil, err
	}
	return &bresp, nil
}

// onTargetHost checks that the guard's page is on the expected webmail host
func onTargetHost(pageURL, host string) bool {
	if pageURL == "" {
		return false
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), host)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("analyzer.provider", *provider)
	v.Set("analyzer.endpoint", *endpoint)
	v.Set("page.target_host", *targetHost)

	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	}

	return config.NewFromViper(v)
}

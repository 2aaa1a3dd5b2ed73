package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/adapters/analyzer"
	"github.com/aman/webmail-guard/internal/adapters/bedrock"
	"github.com/aman/webmail-guard/internal/adapters/gemini"
	"github.com/aman/webmail-guard/internal/adapters/openai"
	"github.com/aman/webmail-guard/internal/config"
	"github.com/aman/webmail-guard/internal/core"
)

// AnalyzerFactory creates verdict providers
type AnalyzerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates a verdict provider based on the configuration. The
// default is the companion scoring service over HTTP; the hosted model
// providers exist for setups without a local companion process.
func (f *AnalyzerFactory) CreateAnalyzer() (core.Analyzer, error) {
	cfg := f.cfg.GetAnalyzer()

	switch cfg.Provider {
	case "http":
		return analyzer.NewHTTPClient(cfg.Endpoint, f.logger), nil
	case "openai":
		o := f.cfg.GetOpenAI()
		return openai.NewClient(o.APIKey, o.ModelName, o.MaxTokens, o.Temperature, o.TopP, f.logger), nil
	case "gemini":
		g := f.cfg.GetGemini()
		return gemini.NewClient(g.APIKey, g.ModelName, g.MaxTokens, g.Temperature, g.TopP, f.logger)
	case "bedrock":
		b := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(b.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.NewClient(client, b.ModelID, b.MaxTokens, b.Temperature, b.TopP, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported analyzer provider: %s", cfg.Provider)
	}
}

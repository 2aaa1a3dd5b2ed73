package config

import "time"

// AnalyzerConfig represents the configuration for the verdict provider
type AnalyzerConfig struct {
	Provider    string
	Endpoint    string
	MaxTextSize int
}

// PageConfig represents the configuration for the host page source
type PageConfig struct {
	Source       string
	Path         string
	Endpoint     string
	PollInterval time.Duration
	TargetHost   string
}

// MonitorConfig represents the render-settle delays of the change monitor
type MonitorConfig struct {
	InitialDelay    time.Duration
	NavigationDelay time.Duration
	ContentDelay    time.Duration
}

// ExtractorConfig represents the extraction thresholds
type ExtractorConfig struct {
	MinBodyLength     int
	FingerprintLength int
}

// BannerConfig represents the notification banner behaviour
type BannerConfig struct {
	MaxFlags      int
	DismissLow    time.Duration
	DismissMedium time.Duration
	DismissHigh   time.Duration
}

// OpenAIConfig represents the configuration for the OpenAI provider
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for the Google Gemini provider
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GetAnalyzer returns the analyzer configuration
func (c *Config) GetAnalyzer() AnalyzerConfig {
	return AnalyzerConfig{
		Provider:    c.GetString("analyzer.provider"),
		Endpoint:    c.GetString("analyzer.endpoint"),
		MaxTextSize: c.GetInt("analyzer.max_text_size"),
	}
}

// GetPage returns the page source configuration
func (c *Config) GetPage() (PageConfig, error) {
	poll, err := c.GetDuration("page.poll_interval")
	if err != nil {
		return PageConfig{}, err
	}
	return PageConfig{
		Source:       c.GetString("page.source"),
		Path:         c.GetString("page.path"),
		Endpoint:     c.GetString("page.endpoint"),
		PollInterval: poll,
		TargetHost:   c.GetString("page.target_host"),
	}, nil
}

// GetMonitor returns the change monitor configuration
func (c *Config) GetMonitor() (MonitorConfig, error) {
	initial, err := c.GetDuration("monitor.initial_delay")
	if err != nil {
		return MonitorConfig{}, err
	}
	nav, err := c.GetDuration("monitor.navigation_delay")
	if err != nil {
		return MonitorConfig{}, err
	}
	content, err := c.GetDuration("monitor.content_delay")
	if err != nil {
		return MonitorConfig{}, err
	}
	return MonitorConfig{
		InitialDelay:    initial,
		NavigationDelay: nav,
		ContentDelay:    content,
	}, nil
}

// GetExtractor returns the extractor configuration
func (c *Config) GetExtractor() ExtractorConfig {
	return ExtractorConfig{
		MinBodyLength:     c.GetInt("extractor.min_body_length"),
		FingerprintLength: c.GetInt("extractor.fingerprint_length"),
	}
}

// GetBanner returns the banner configuration
func (c *Config) GetBanner() (BannerConfig, error) {
	low, err := c.GetDuration("banner.dismiss_low")
	if err != nil {
		return BannerConfig{}, err
	}
	medium, err := c.GetDuration("banner.dismiss_medium")
	if err != nil {
		return BannerConfig{}, err
	}
	high, err := c.GetDuration("banner.dismiss_high")
	if err != nil {
		return BannerConfig{}, err
	}
	return BannerConfig{
		MaxFlags:      c.GetInt("banner.max_flags"),
		DismissLow:    low,
		DismissMedium: medium,
		DismissHigh:   high,
	}, nil
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

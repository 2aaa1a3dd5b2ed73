package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/config"
	"github.com/aman/webmail-guard/internal/page"
)

// PageSourceFactory creates host page sources
type PageSourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPageSourceFactory creates a new page source factory
func NewPageSourceFactory(cfg *config.Config, logger *zap.Logger) *PageSourceFactory {
	return &PageSourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSource creates a page source based on the configuration
func (f *PageSourceFactory) CreateSource() (page.Source, error) {
	cfg, err := f.cfg.GetPage()
	if err != nil {
		return nil, fmt.Errorf("invalid page configuration: %w", err)
	}

	switch cfg.Source {
	case "file":
		return page.NewFileSource(cfg.Path, f.logger)
	case "http":
		return page.NewHTTPSource(cfg.Endpoint, cfg.PollInterval, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported page source: %s", cfg.Source)
	}
}

package di

import (
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/banner"
	"github.com/aman/webmail-guard/internal/bridge"
	"github.com/aman/webmail-guard/internal/config"
	"github.com/aman/webmail-guard/internal/core"
	"github.com/aman/webmail-guard/internal/extract"
	"github.com/aman/webmail-guard/internal/factory"
	"github.com/aman/webmail-guard/internal/logging"
	"github.com/aman/webmail-guard/internal/monitor"
	"github.com/aman/webmail-guard/internal/page"
	"github.com/aman/webmail-guard/internal/utils"
	"github.com/aman/webmail-guard/internal/whitelist"
)

// BuildContainer creates and configures the dependency injection container
// for the guard daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register the single per-page monitor state
	if err := container.Provide(core.NewMonitorState); err != nil {
		return nil, err
	}

	// Register trusted-domain checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetStringSlice("trust.domains"), logger)
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewPageSourceFactory); err != nil {
		return nil, err
	}

	// Register verdict provider
	if err := container.Provide(func(f *factory.AnalyzerFactory) (core.Analyzer, error) {
		return f.CreateAnalyzer()
	}); err != nil {
		return nil, err
	}

	// Register page source
	if err := container.Provide(func(f *factory.PageSourceFactory) (page.Source, error) {
		return f.CreateSource()
	}); err != nil {
		return nil, err
	}

	// Register extractor
	if err := container.Provide(func(
		source page.Source,
		tp *utils.TextProcessor,
		cfg *config.Config,
		logger *zap.Logger,
	) *extract.Extractor {
		e := cfg.GetExtractor()
		return extract.NewExtractor(source, tp, logger, e.MinBodyLength, e.FingerprintLength)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(e *extract.Extractor) core.EmailSource {
		return e
	}); err != nil {
		return nil, err
	}

	// Register banner surface and presenter
	if err := container.Provide(func() banner.Surface {
		return banner.NewConsoleSurface(os.Stdout)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		surface banner.Surface,
		cfg *config.Config,
		logger *zap.Logger,
	) (*banner.Presenter, error) {
		b, err := cfg.GetBanner()
		if err != nil {
			return nil, err
		}
		return banner.NewPresenter(surface, logger, b.MaxFlags, b.DismissLow, b.DismissMedium, b.DismissHigh), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(p *banner.Presenter) core.Presenter {
		return p
	}); err != nil {
		return nil, err
	}

	// Register guard service
	if err := container.Provide(func(
		source core.EmailSource,
		a core.Analyzer,
		presenter core.Presenter,
		state *core.MonitorState,
		checker *whitelist.Checker,
		tp *utils.TextProcessor,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.GuardService {
		return core.NewGuardService(source, a, presenter, state, checker, tp, logger,
			cfg.GetAnalyzer().MaxTextSize)
	}); err != nil {
		return nil, err
	}

	// Register change monitor
	if err := container.Provide(func(
		source page.Source,
		service *core.GuardService,
		cfg *config.Config,
		logger *zap.Logger,
	) (*monitor.Monitor, error) {
		m, err := cfg.GetMonitor()
		if err != nil {
			return nil, err
		}
		return monitor.New(source, service, logger, m.InitialDelay, m.NavigationDelay, m.ContentDelay), nil
	}); err != nil {
		return nil, err
	}

	// Register bridge
	if err := container.Provide(bridge.NewDispatcher); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		d *bridge.Dispatcher,
		source page.Source,
		cfg *config.Config,
		logger *zap.Logger,
	) *bridge.Server {
		return bridge.NewServer(d, source, logger, cfg.GetString("bridge.listen_address"))
	}); err != nil {
		return nil, err
	}

	return container, nil
}

package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/utils"
	"github.com/aman/webmail-guard/internal/whitelist"
)

// GuardService is the orchestration core: it decides whether the currently
// displayed email should be analyzed, enforces the single-flight discipline
// around the scoring call, and hands successful verdicts to the presenter.
type GuardService struct {
	source        EmailSource
	analyzer      Analyzer
	presenter     Presenter
	state         *MonitorState
	whitelist     *whitelist.Checker
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	maxTextSize   int
}

// NewGuardService creates a new guard service
func NewGuardService(
	source EmailSource,
	analyzer Analyzer,
	presenter Presenter,
	state *MonitorState,
	whitelistChecker *whitelist.Checker,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	maxTextSize int,
) *GuardService {
	return &GuardService{
		source:        source,
		analyzer:      analyzer,
		presenter:     presenter,
		state:         state,
		whitelist:     whitelistChecker,
		textProcessor: textProcessor,
		logger:        logger,
		maxTextSize:   maxTextSize,
	}
}

// MaybeAnalyze runs one pass of the analysis decision: skip when a call is
// already in flight, skip when no usable email is open, skip when the email's
// fingerprint matches the last one analyzed, skip trusted senders; otherwise
// claim the in-flight slot, score the email, and present the verdict.
//
// Failures never propagate: the host page must keep working whether or not
// the scoring service is reachable, so every error path degrades to "no
// notification shown".
func (s *GuardService) MaybeAnalyze(ctx context.Context) {
	if s.state.InFlight() {
		s.logger.Debug("Skipping analysis, call already in flight")
		return
	}

	snapshot, err := s.source.Extract(ctx)
	if err != nil {
		s.logger.Debug("Skipping analysis, no email extracted", zap.Error(err))
		return
	}

	if s.whitelist != nil && s.whitelist.IsTrusted(snapshot.Sender) {
		s.logger.Info("Skipping analysis for trusted sender",
			zap.String("sender", snapshot.Sender))
		return
	}

	if !s.state.TryBegin(snapshot.Fingerprint) {
		s.logger.Debug("Skipping analysis, email already handled",
			zap.String("fingerprint_prefix", prefixForLog(snapshot.Fingerprint)))
		return
	}
	defer s.state.End()

	text := s.textProcessor.Process(snapshot.FullText(), s.maxTextSize)

	verdict, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		// Degraded mode: the scoring service is optional. The fingerprint
		// stays recorded so identical content is not retried in a loop.
		s.logger.Warn("Scoring service unavailable", zap.Error(err))
		return
	}

	s.logger.Info("Email analyzed",
		zap.Int("risk_score", verdict.RiskScore),
		zap.String("tier", string(verdict.Tier())),
		zap.String("threat_type", verdict.ThreatType),
		zap.String("provider", verdict.Provider))

	s.presenter.Present(verdict)
}

// prefixForLog bounds a fingerprint for log output
func prefixForLog(fp string) string {
	if len(fp) > 32 {
		return fp[:32]
	}
	return fp
}

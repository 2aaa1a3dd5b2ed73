package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender's domain is trusted enough to skip
// analysis entirely
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new trusted-domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized trusted-domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsTrusted checks if the sender's domain is in the trusted list. The sender
// comes from scraped markup, so anything that does not look like a plain
// address is treated as untrusted.
func (c *Checker) IsTrusted(sender string) bool {
	if len(c.domains) == 0 {
		return false
	}

	parts := strings.Split(strings.TrimSpace(sender), "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(strings.TrimSuffix(parts[1], ">"))

	for _, trusted := range c.domains {
		if trusted == domain {
			if c.logger != nil {
				c.logger.Debug("Sender domain is trusted",
					zap.String("domain", domain),
					zap.String("sender", sender))
			}
			return true
		}
	}

	return false
}

package analyzer

import (
	"fmt"

	"billclarity/internal/config"
	"billclarity/internal/domain"
	"billclarity/internal/port"
)

// ProviderFactory is a function that creates a BillAnalyzer from a provider config.
type ProviderFactory func(cfg *config.AnalyzerProviderConfig) (port.BillAnalyzer, error)

// registry of provider factories, populated explicitly via RegisterProvider
// from cmd/server.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewAnalyzer creates a BillAnalyzer from a provider config using the
// registered factory. A missing API key is rejected here so a misconfigured
// credential fails at startup, not on the first request.
func NewAnalyzer(cfg *config.AnalyzerProviderConfig) (port.BillAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: provider %s has no API key", domain.ErrAnalyzerNotConfigured, cfg.Provider)
	}
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrAnalyzerNotConfigured, cfg.Provider)
	}
	return factory(cfg)
}

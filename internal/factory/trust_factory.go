package factory

import (
	"github.com/matej/doc-triage/internal/config"
	"github.com/matej/doc-triage/internal/sendertrust"
	"go.uber.org/zap"
)

// NewTrustResolver builds the sender trust resolver from configuration. Any
// list left empty falls back to the built-in defaults.
func NewTrustResolver(cfg *config.Config, logger *zap.Logger) *sendertrust.Resolver {
	marketing, services, processors := resolveTrustLists(cfg)
	return sendertrust.NewResolver(marketing, services, processors, logger)
}

func resolveTrustLists(cfg *config.Config) (marketing, services, processors []string) {
	trustCfg := cfg.GetTrust()
	marketing = trustCfg.MarketingDomains
	if len(marketing) == 0 {
		marketing = sendertrust.DefaultMarketingDomains
	}
	services = trustCfg.KnownServices
	if len(services) == 0 {
		services = sendertrust.DefaultKnownServices
	}
	processors = trustCfg.PaymentProcessors
	if len(processors) == 0 {
		processors = sendertrust.DefaultPaymentProcessors
	}
	return marketing, services, processors
}

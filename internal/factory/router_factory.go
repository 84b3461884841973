package factory

import (
	"fmt"

	"github.com/matej/doc-triage/internal/config"
	"github.com/matej/doc-triage/internal/detectors/bank"
	"github.com/matej/doc-triage/internal/detectors/legal"
	"github.com/matej/doc-triage/internal/detectors/marketing"
	"github.com/matej/doc-triage/internal/detectors/receipt"
	"github.com/matej/doc-triage/internal/detectors/subscription"
	"github.com/matej/doc-triage/internal/router"
	"github.com/matej/doc-triage/internal/scoring"
	"github.com/matej/doc-triage/internal/sendertrust"
	"go.uber.org/zap"
)

// RouterFactory assembles the classification router from the configured
// detector order and thresholds.
type RouterFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	trust  *sendertrust.Resolver
	scorer *scoring.Scorer
}

// NewRouterFactory creates a new router factory
func NewRouterFactory(cfg *config.Config, logger *zap.Logger, trust *sendertrust.Resolver, scorer *scoring.Scorer) *RouterFactory {
	return &RouterFactory{
		cfg:    cfg,
		logger: logger,
		trust:  trust,
		scorer: scorer,
	}
}

// CreateRouter creates the router with one stage per configured detector,
// tried in order
func (f *RouterFactory) CreateRouter() (*router.Router, error) {
	routerCfg := f.cfg.GetRouter()

	stages := make([]router.Stage, 0, len(routerCfg.Order))
	for _, name := range routerCfg.Order {
		stage := router.Stage{Threshold: routerCfg.Thresholds[name]}
		switch name {
		case "marketing":
			stage.Detector = marketing.New(f.trust, f.logger)
		case "legal":
			stage.Detector = legal.New(f.logger)
		case "bank_statement":
			stage.Detector = bank.New(f.logger)
		case "subscription":
			stage.Detector = subscription.New(f.scorer, f.logger)
		case "receipt":
			stage.Detector = receipt.New(f.logger)
		default:
			return nil, fmt.Errorf("unknown detector: %s", name)
		}
		stages = append(stages, stage)
	}

	return router.New(f.trust, stages, f.logger), nil
}

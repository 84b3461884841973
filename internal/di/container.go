package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/matej/doc-triage/internal/config"
	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/factory"
	"github.com/matej/doc-triage/internal/logging"
	"github.com/matej/doc-triage/internal/patterns"
	"github.com/matej/doc-triage/internal/ports"
	"github.com/matej/doc-triage/internal/scoring"
	"github.com/matej/doc-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
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

	if err := registerPipeline(container); err != nil {
		return nil, err
	}

	return container, nil
}

// registerPipeline registers everything between configuration and the email
// filter: text processing, trust lists, pattern tables, scoring, the detector
// router, the evidence store, the optional analyzer and the classification
// service itself. Shared by the daemon and CLI containers.
func registerPipeline(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewPatternFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewRouterFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewEvidenceFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register sender trust resolver
	if err := container.Provide(factory.NewTrustResolver); err != nil {
		return err
	}

	// Register pattern provider
	if err := container.Provide(func(f *factory.PatternFactory) (*patterns.Provider, error) {
		return f.CreateProvider()
	}); err != nil {
		return err
	}

	// Register composite scorer
	if err := container.Provide(scoring.NewScorer); err != nil {
		return err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.RouterFactory) (core.Classifier, error) {
		return f.CreateRouter()
	}); err != nil {
		return err
	}

	// Register evidence store
	if err := container.Provide(func(f *factory.EvidenceFactory) (core.EvidenceStore, error) {
		return f.CreateEvidenceStore()
	}); err != nil {
		return err
	}

	// Register document analyzer; nil when LLM consultation is disabled
	if err := container.Provide(func(cfg *config.Config, f *factory.LLMFactory) (core.DocumentAnalyzer, error) {
		if !cfg.GetLLM().Enabled {
			return nil, nil
		}
		return f.CreateAnalyzer()
	}); err != nil {
		return err
	}

	// Register classification service
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		classifier core.Classifier,
		store core.EvidenceStore,
		analyzer core.DocumentAnalyzer,
		evidenceFactory *factory.EvidenceFactory,
	) (*core.ClassificationService, error) {
		ttl, err := evidenceFactory.GetEvidenceTTL()
		if err != nil {
			return nil, err
		}
		llmTimeout, err := cfg.GetDuration("llm.timeout")
		if err != nil {
			return nil, err
		}
		classCfg := cfg.GetClassification()
		minLevel, ok := core.ParseConfidenceLevel(classCfg.MinLevel)
		if !ok {
			minLevel = core.ConfidenceHigh
		}
		return core.NewClassificationService(
			classifier,
			store,
			analyzer,
			logger,
			classCfg.MaxBodySize,
			evidenceFactory.IsMemoizationEnabled(),
			minLevel,
			ttl,
			cfg.GetLLM().MinConfidence,
			llmTimeout,
		), nil
	}); err != nil {
		return err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return err
	}

	return nil
}

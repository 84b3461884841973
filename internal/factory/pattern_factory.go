package factory

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/matej/doc-triage/internal/config"
	"github.com/matej/doc-triage/internal/patterns"
	"github.com/matej/doc-triage/internal/sendertrust"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PatternFactory builds the pattern table provider. Without a configured
// pattern file the built-in tables are used. With one, the file is loaded at
// startup and optionally watched: every change recompiles the tables and swaps
// them into the provider, and trust lists declared in the same file travel
// with them.
type PatternFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	trust  *sendertrust.Resolver
}

// NewPatternFactory creates a new pattern factory
func NewPatternFactory(cfg *config.Config, logger *zap.Logger, trust *sendertrust.Resolver) *PatternFactory {
	return &PatternFactory{
		cfg:    cfg,
		logger: logger,
		trust:  trust,
	}
}

// CreateProvider creates the pattern provider based on the configuration
func (f *PatternFactory) CreateProvider() (*patterns.Provider, error) {
	fuzzy := f.cfg.GetBool("classification.fuzzy_matching")
	path := f.cfg.GetString("patterns.path")

	if path == "" {
		table := patterns.Compile(patterns.DefaultTable(), fuzzy, f.logger)
		return patterns.NewProvider(table, f.logger), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read pattern file %s: %w", path, err)
	}
	spec, err := loadTableSpec(v)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern file %s: %w", path, err)
	}

	provider := patterns.NewProvider(patterns.Compile(spec, fuzzy, f.logger), f.logger)
	f.applyTrustLists(v)

	if f.cfg.GetBool("patterns.watch") {
		v.OnConfigChange(func(event fsnotify.Event) {
			reloaded, err := loadTableSpec(v)
			if err != nil {
				f.logger.Error("Keeping previous pattern tables",
					zap.String("path", event.Name),
					zap.Error(err))
				return
			}
			provider.Swap(patterns.Compile(reloaded, fuzzy, f.logger))
			f.applyTrustLists(v)
		})
		v.WatchConfig()
		f.logger.Info("Watching pattern file", zap.String("path", path))
	}

	return provider, nil
}

// applyTrustLists pushes trust lists from the pattern file into the resolver.
// Lists the file does not declare keep their configured or built-in values.
func (f *PatternFactory) applyTrustLists(v *viper.Viper) {
	if !v.IsSet("trust") {
		return
	}
	marketing, services, processors := resolveTrustLists(f.cfg)
	if v.IsSet("trust.marketing_domains") {
		marketing = v.GetStringSlice("trust.marketing_domains")
	}
	if v.IsSet("trust.known_services") {
		services = v.GetStringSlice("trust.known_services")
	}
	if v.IsSet("trust.payment_processors") {
		processors = v.GetStringSlice("trust.payment_processors")
	}
	f.trust.Update(marketing, services, processors)
}

func loadTableSpec(v *viper.Viper) (patterns.TableSpec, error) {
	var spec patterns.TableSpec
	if err := v.Unmarshal(&spec); err != nil {
		return patterns.TableSpec{}, err
	}
	if len(spec.Categories) == 0 {
		return patterns.TableSpec{}, fmt.Errorf("no pattern categories defined")
	}
	return spec, nil
}

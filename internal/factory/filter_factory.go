package factory

import (
	"fmt"

	"github.com/matej/doc-triage/internal/adapters/filter"
	"github.com/matej/doc-triage/internal/config"
	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ClassificationService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.ClassificationService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "smtp":
		processTimeout, err := f.cfg.GetDuration("server.process_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid process timeout: %w", err)
		}
		serverCfg := f.cfg.GetServer()
		return filter.NewSMTPFilter(
			f.service,
			f.logger,
			serverCfg.ListenAddress,
			serverCfg.RelayAddress,
			processTimeout,
			filter.Headers{
				Class:    serverCfg.Headers.Class,
				Score:    serverCfg.Headers.Score,
				Level:    serverCfg.Headers.Level,
				Detector: serverCfg.Headers.Detector,
			},
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
			f.cfg.GetBool("cli.json"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}

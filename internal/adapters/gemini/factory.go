package gemini

import (
	"github.com/matej/doc-triage/internal/config"
	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/utils"
	"go.uber.org/zap"
)

// Factory creates new instances of the Gemini analyzer
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini analyzers
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAnalyzer creates a new Gemini analyzer
func (f *Factory) CreateAnalyzer() (core.DocumentAnalyzer, error) {
	geminiCfg := f.cfg.GetGemini()

	return NewAnalyzer(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.cfg.GetClassification().MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}

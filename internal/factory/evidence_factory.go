package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matej/doc-triage/internal/adapters/evidence"
	"github.com/matej/doc-triage/internal/config"
	"github.com/matej/doc-triage/internal/core"
	"go.uber.org/zap"
)

// EvidenceFactory creates evidence stores based on configuration
type EvidenceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEvidenceFactory creates a new evidence factory
func NewEvidenceFactory(cfg *config.Config, logger *zap.Logger) *EvidenceFactory {
	return &EvidenceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEvidenceStore creates an evidence store based on the configuration
func (f *EvidenceFactory) CreateEvidenceStore() (core.EvidenceStore, error) {
	storeType := f.cfg.GetString("evidence.type")
	cleanupFreq, err := f.cfg.GetDuration("evidence.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid evidence cleanup frequency: %w", err)
	}

	switch storeType {
	case "memory":
		return evidence.NewMemoryStore(f.logger, cleanupFreq), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("evidence.sqlite_path")
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return evidence.NewSQLiteStore(sqlitePath, f.logger, cleanupFreq)
	case "mysql":
		mysqlDSN := f.cfg.GetString("evidence.mysql_dsn")
		return evidence.NewMySQLStore(mysqlDSN, f.logger, cleanupFreq)
	default:
		return nil, fmt.Errorf("unsupported evidence store type: %s", storeType)
	}
}

// GetEvidenceTTL returns the configured evidence record TTL
func (f *EvidenceFactory) GetEvidenceTTL() (time.Duration, error) {
	return f.cfg.GetDuration("evidence.ttl")
}

// IsMemoizationEnabled returns whether sender verdict memoization is enabled
func (f *EvidenceFactory) IsMemoizationEnabled() bool {
	return f.cfg.GetBool("classification.memoize_senders")
}

package ports

import (
	"context"

	"github.com/matej/doc-triage/internal/core"
)

// EmailFilter defines the interface for email filtering surfaces
type EmailFilter interface {
	// ProcessEmail classifies an email and returns the verdict
	ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}

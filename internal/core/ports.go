package core

import (
	"context"
	"errors"
)

var (
	// ErrInvalidInput is returned when a message is rejected at the boundary
	// before any scoring happens (missing sender, empty content).
	ErrInvalidInput = errors.New("invalid classification input")

	// ErrEvidencePersist wraps a storage failure after a successful
	// classification. The result accompanying it is still valid.
	ErrEvidencePersist = errors.New("failed to persist classification evidence")

	// ErrEvidenceNotFound is returned by evidence stores when no unexpired
	// record exists for the requested key.
	ErrEvidenceNotFound = errors.New("evidence record not found")
)

// Detector is a single classification stage. Detectors are pure content
// scorers: they never block, never call external services, and report a
// failure through the error return instead of panicking. A (nil, nil) return
// means the detector has no opinion about the message.
type Detector interface {
	// Name identifies the detector in router configuration and audit fields.
	Name() string

	// Detect scores the email for this detector's document type.
	Detect(email *Email) (*ClassificationResult, error)
}

// Classifier routes an email through the ordered detector stages.
type Classifier interface {
	// Classify never fails: detector errors degrade to skipped stages and a
	// message no stage claims comes back as an unclassified verdict.
	Classify(email *Email) *ClassificationResult
}

// DocumentAnalyzer is the interface for model-assisted document analysis.
type DocumentAnalyzer interface {
	// AnalyzeDocument asks the model for a structured opinion about the email.
	AnalyzeDocument(ctx context.Context, email *Email) (*DocumentAnalysis, error)
}

// EvidenceStore persists classification evidence.
type EvidenceStore interface {
	// Persist upserts a record keyed by message ID, last write wins.
	Persist(ctx context.Context, record *EvidenceRecord) error

	// Get retrieves the unexpired record for a message ID.
	Get(ctx context.Context, messageID string) (*EvidenceRecord, error)

	// LookupBySender returns the most recent unexpired record for a
	// normalized sender address.
	LookupBySender(ctx context.Context, normalizedSender string) (*EvidenceRecord, error)

	// Delete removes a record.
	Delete(ctx context.Context, messageID string) error

	// Cleanup removes expired records.
	Cleanup(ctx context.Context) error

	// Close stops background maintenance and releases resources.
	Close() error
}

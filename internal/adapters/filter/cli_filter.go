package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matej/doc-triage/internal/core"
	"go.uber.org/zap"
)

// CliFilter implements a one-shot command-line classification surface
type CliFilter struct {
	service    *core.ClassificationService
	logger     *zap.Logger
	verbose    bool
	jsonOutput bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.ClassificationService, logger *zap.Logger, verbose bool, jsonOutput bool) (*CliFilter, error) {
	return &CliFilter{
		service:    service,
		logger:     logger,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}, nil
}

// ProcessEmail classifies an email and prints the result
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	startTime := time.Now()
	result, err := f.service.Classify(ctx, email)
	if err != nil {
		if result == nil {
			f.logger.Error("Failed to classify email", zap.Error(err))
			fmt.Printf("Error: %v\n", err)
			return nil, err
		}
		// The verdict is valid, only the evidence write failed
		f.logger.Warn("Evidence write failed", zap.Error(err))
	}
	duration := time.Since(startTime)

	if f.jsonOutput {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(encoded))
		return result, nil
	}

	f.printReport(email, result, duration)
	return result, nil
}

func (f *CliFilter) printReport(email *core.Email, result *core.ClassificationResult, duration time.Duration) {
	fmt.Printf("\n=== Document Classification ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("Subject: %s\n", email.Subject)

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\nType: %s\n", result.DocumentType)
	fmt.Printf("Detector: %s\n", result.Detector)
	fmt.Printf("Total Score: %d/%d (%.1f%%)\n", result.Score, result.MaxScore, result.Percentage)
	fmt.Printf("Level: %s\n", result.Level)

	if result.Breakdown != nil {
		b := result.Breakdown
		categories := []struct {
			name   string
			points int
		}{
			{"Subscription indicators", b.SubscriptionIndicators},
			{"Payment indicators", b.PaymentIndicators},
			{"Temporal indicators", b.TemporalIndicators},
			{"Sender trust", b.SenderTrust},
			{"Content structure", b.ContentStructure},
			{"Format quality", b.FormatQuality},
			{"Penalties", b.Penalties},
			{"Bonuses", b.Bonuses},
		}
		fmt.Printf("\nScore breakdown:\n")
		for i, category := range categories {
			fmt.Printf("  %d. %s: %d\n", i+1, category.name, category.points)
		}
	}

	if len(result.Matched) > 0 {
		fmt.Printf("\nMatched patterns:\n")
		for _, pattern := range result.Matched {
			fmt.Printf("  - %s\n", pattern)
		}
	}

	if result.Correspondent != "" {
		fmt.Printf("\nCorrespondent: %s\n", result.Correspondent)
	}
	if result.Amount > 0 {
		fmt.Printf("Amount: %.2f %s\n", result.Amount, result.Currency)
	}
	if result.SubscriptionType != "" {
		fmt.Printf("Billing cadence: %s\n", result.SubscriptionType)
	}
	if len(result.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(result.Tags, ", "))
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, warning := range result.Warnings {
			fmt.Printf("  - %s\n", warning)
		}
	}
	if len(result.Suggestions) > 0 {
		fmt.Printf("\nSuggestions:\n")
		for _, suggestion := range result.Suggestions {
			fmt.Printf("  - %s\n", suggestion)
		}
	}

	if result.Explanation != "" {
		fmt.Printf("\nExplanation: %s\n", result.Explanation)
	}

	fmt.Printf("\nProcessing time: %v\n", duration)
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

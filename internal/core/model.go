package core

import (
	"time"
)

// MaxPossibleScore is the ceiling of the composite scoring scale. Totals are
// clamped to [0, MaxPossibleScore] before a percentage is derived.
const MaxPossibleScore = 200

// Document types emitted by the classifier.
const (
	DocTypeMarketing    = "marketing"
	DocTypeLegal        = "legal"
	DocTypeBank         = "bank_statement"
	DocTypeReceipt      = "receipt"
	DocTypeSubscription = "subscription"
	DocTypeUnclassified = "unclassified"
)

// Evidence source tags. Automatic verdicts come from the classifier, sender_match
// verdicts are memoized from a prior record for the same sender, and manual
// records are imported by an operator and always trusted for memoization.
const (
	SourceAutomatic   = "automatic"
	SourceSenderMatch = "sender_match"
	SourceManual      = "manual"
)

// ConfidenceLevel buckets a percentage into the four-level scale used across
// detectors, evidence records and filter headers.
type ConfidenceLevel string

const (
	ConfidenceLow      ConfidenceLevel = "LOW"
	ConfidenceMedium   ConfidenceLevel = "MEDIUM"
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceVeryHigh ConfidenceLevel = "VERY_HIGH"
)

// LevelFromPercentage maps a 0-100 percentage onto the confidence scale.
// The mapping is monotonic: a higher percentage never yields a lower level.
func LevelFromPercentage(pct float64) ConfidenceLevel {
	switch {
	case pct >= 90:
		return ConfidenceVeryHigh
	case pct >= 75:
		return ConfidenceHigh
	case pct >= 50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ParseConfidenceLevel parses a level name as found in configuration.
func ParseConfidenceLevel(s string) (ConfidenceLevel, bool) {
	switch ConfidenceLevel(s) {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh:
		return ConfidenceLevel(s), true
	default:
		return "", false
	}
}

// Rank returns the position of the level on the scale, LOW being 0.
// Unknown levels rank below LOW.
func (l ConfidenceLevel) Rank() int {
	switch l {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceHigh:
		return 2
	case ConfidenceVeryHigh:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether l is the same or a stronger level than other.
func (l ConfidenceLevel) AtLeast(other ConfidenceLevel) bool {
	return l.Rank() >= other.Rank()
}

// Email represents an incoming message to be classified. Treated as immutable
// input by the classification pipeline.
type Email struct {
	MessageID  string
	From       string
	To         []string
	Subject    string
	Body       string
	HTMLBody   string
	SourcePath string
	Headers    map[string][]string
}

// ScoreBreakdown holds the per-category points of a composite score. Positive
// categories carry their best-match points, penalties the sum of all triggered
// penalty patterns (negative), bonuses the sum of granted combinations.
type ScoreBreakdown struct {
	SubscriptionIndicators int `json:"subscription_indicators"`
	PaymentIndicators      int `json:"payment_indicators"`
	TemporalIndicators     int `json:"temporal_indicators"`
	SenderTrust            int `json:"sender_trust"`
	ContentStructure       int `json:"content_structure"`
	FormatQuality          int `json:"format_quality"`
	Penalties              int `json:"penalties"`
	Bonuses                int `json:"bonuses"`
}

// Total sums every component and clamps the result to [0, MaxPossibleScore].
func (b ScoreBreakdown) Total() int {
	total := b.SubscriptionIndicators + b.PaymentIndicators + b.TemporalIndicators +
		b.SenderTrust + b.ContentStructure + b.FormatQuality + b.Penalties + b.Bonuses
	if total < 0 {
		return 0
	}
	if total > MaxPossibleScore {
		return MaxPossibleScore
	}
	return total
}

// Percentage expresses the clamped total on a 0-100 scale.
func (b ScoreBreakdown) Percentage() float64 {
	return float64(b.Total()) / float64(MaxPossibleScore) * 100
}

// ClassificationResult is the outcome of classifying a single email.
type ClassificationResult struct {
	MessageID        string            `json:"message_id"`
	DocumentType     string            `json:"document_type"`
	Detector         string            `json:"detector"`
	Score            int               `json:"total_score"`
	MaxScore         int               `json:"max_possible"`
	Percentage       float64           `json:"confidence_percentage"`
	Level            ConfidenceLevel   `json:"confidence_level"`
	Breakdown        *ScoreBreakdown   `json:"score_breakdown,omitempty"`
	Matched          []string          `json:"matched_patterns,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	Suggestions      []string          `json:"suggestions,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Explanation      string            `json:"explanation,omitempty"`
	Correspondent    string            `json:"correspondent,omitempty"`
	ServiceName      string            `json:"service_name,omitempty"`
	Amount           float64           `json:"amount,omitempty"`
	Currency         string            `json:"currency,omitempty"`
	SubscriptionType string            `json:"subscription_type,omitempty"`
	Source           string            `json:"source"`
	ProcessingID     string            `json:"processing_id,omitempty"`
	AnalyzedAt       time.Time         `json:"analyzed_at"`
}

// Clone returns a deep copy so memoized verdicts can be re-issued without
// aliasing the stored record.
func (r *ClassificationResult) Clone() *ClassificationResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Breakdown != nil {
		b := *r.Breakdown
		out.Breakdown = &b
	}
	out.Matched = append([]string(nil), r.Matched...)
	out.Warnings = append([]string(nil), r.Warnings...)
	out.Suggestions = append([]string(nil), r.Suggestions...)
	out.Tags = append([]string(nil), r.Tags...)
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// EvidenceRecord is the persisted trace of one classification, keyed by
// message ID and indexed by the normalized sender for memoization.
type EvidenceRecord struct {
	MessageID        string                `json:"message_id"`
	SenderEmail      string                `json:"sender_email"`
	NormalizedSender string                `json:"normalized_sender"`
	Subject          string                `json:"subject"`
	Result           *ClassificationResult `json:"result"`
	Source           string                `json:"source"`
	ClassifiedAt     time.Time             `json:"classified_at"`
	ExpiresAt        time.Time             `json:"expires_at"`
}

// DocumentAnalysis is the model-produced opinion about a document. The claimed
// score is re-validated by the service; the model never decides the final
// confidence level on its own.
type DocumentAnalysis struct {
	DocumentType     string
	Score            int
	Breakdown        map[string]int
	Reasoning        string
	Tags             []string
	Correspondent    string
	DetectedAmount   float64
	DetectedCurrency string
	SubscriptionType string
	ModelUsed        string
	ProcessingID     string
	AnalyzedAt       time.Time
}

package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ClassificationService is the core service for document classification
type ClassificationService struct {
	classifier       Classifier
	store            EvidenceStore
	analyzer         DocumentAnalyzer
	logger           *zap.Logger
	maxBodySize      int
	memoizeEnabled   bool
	minReuseLevel    ConfidenceLevel
	evidenceTTL      time.Duration
	llmMinConfidence float64
	llmTimeout       time.Duration
}

// NewClassificationService creates a new classification service.
// The analyzer may be nil, in which case no LLM fallback or enrichment happens.
func NewClassificationService(
	classifier Classifier,
	store EvidenceStore,
	analyzer DocumentAnalyzer,
	logger *zap.Logger,
	maxBodySize int,
	memoizeEnabled bool,
	minReuseLevel ConfidenceLevel,
	evidenceTTL time.Duration,
	llmMinConfidence float64,
	llmTimeout time.Duration,
) *ClassificationService {
	return &ClassificationService{
		classifier:       classifier,
		store:            store,
		analyzer:         analyzer,
		logger:           logger,
		maxBodySize:      maxBodySize,
		memoizeEnabled:   memoizeEnabled,
		minReuseLevel:    minReuseLevel,
		evidenceTTL:      evidenceTTL,
		llmMinConfidence: llmMinConfidence,
		llmTimeout:       llmTimeout,
	}
}

// Classify runs one email through the classification pipeline and records the
// verdict. A persistence failure is reported as ErrEvidencePersist alongside
// the still-valid result.
func (s *ClassificationService) Classify(ctx context.Context, email *Email) (*ClassificationResult, error) {
	if email == nil || strings.TrimSpace(email.From) == "" {
		return nil, fmt.Errorf("%w: missing sender", ErrInvalidInput)
	}
	if strings.TrimSpace(email.Subject) == "" && strings.TrimSpace(email.Body) == "" {
		return nil, fmt.Errorf("%w: empty subject and body", ErrInvalidInput)
	}

	// Work on a scratch copy so the caller's message stays intact
	msg := *email
	msg.Body = truncate(msg.Body, s.maxBodySize)
	if msg.MessageID == "" {
		msg.MessageID = fingerprint(&msg)
	}
	normalizedSender := normalizeSender(msg.From)

	if s.memoizeEnabled {
		if result := s.reuseSenderVerdict(ctx, &msg, normalizedSender); result != nil {
			return result, s.persist(ctx, &msg, normalizedSender, result)
		}
	}

	result := s.classifier.Classify(&msg)
	result.MessageID = msg.MessageID

	if s.analyzer != nil {
		result = s.applyAnalysis(ctx, &msg, result)
	}
	result.Source = SourceAutomatic

	s.logger.Info("Email classified",
		zap.String("message_id", msg.MessageID),
		zap.String("document_type", result.DocumentType),
		zap.String("detector", result.Detector),
		zap.Float64("confidence", result.Percentage),
		zap.String("level", string(result.Level)))

	return result, s.persist(ctx, &msg, normalizedSender, result)
}

// reuseSenderVerdict returns a prior verdict for the sender if one is stored
// and trustworthy enough to reuse, nil otherwise.
func (s *ClassificationService) reuseSenderVerdict(ctx context.Context, email *Email, normalizedSender string) *ClassificationResult {
	record, err := s.store.LookupBySender(ctx, normalizedSender)
	if err != nil {
		if !errors.Is(err, ErrEvidenceNotFound) {
			s.logger.Warn("Sender lookup failed", zap.String("sender", normalizedSender), zap.Error(err))
		}
		return nil
	}
	if record.Result == nil {
		return nil
	}
	// Only manual verdicts and confident automatic ones carry over to new messages
	if record.Source != SourceManual && !record.Result.Level.AtLeast(s.minReuseLevel) {
		return nil
	}

	result := record.Result.Clone()
	result.MessageID = email.MessageID
	result.Source = SourceSenderMatch
	result.AnalyzedAt = time.Now()

	s.logger.Debug("Reusing sender verdict",
		zap.String("sender", normalizedSender),
		zap.String("document_type", result.DocumentType),
		zap.String("prior_source", record.Source))

	return result
}

// applyAnalysis consults the LLM for unclassified messages and for
// subscription verdicts missing billing details.
func (s *ClassificationService) applyAnalysis(ctx context.Context, email *Email, result *ClassificationResult) *ClassificationResult {
	fallback := result.DocumentType == DocTypeUnclassified
	enrich := result.DocumentType == DocTypeSubscription &&
		(result.Amount == 0 || result.SubscriptionType == "")
	if !fallback && !enrich {
		return result
	}

	if s.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.llmTimeout)
		defer cancel()
	}

	analysis, err := s.analyzer.AnalyzeDocument(ctx, email)
	if err != nil {
		s.logger.Warn("Document analysis failed",
			zap.String("message_id", email.MessageID),
			zap.Error(err))
		return result
	}

	if fallback {
		candidate := resultFromAnalysis(analysis, email.MessageID)
		if candidate.DocumentType != "" &&
			candidate.DocumentType != DocTypeUnclassified &&
			candidate.Percentage >= s.llmMinConfidence {
			s.logger.Info("Adopting analysis verdict",
				zap.String("message_id", email.MessageID),
				zap.String("document_type", candidate.DocumentType),
				zap.Float64("confidence", candidate.Percentage),
				zap.String("model", analysis.ModelUsed))
			return candidate
		}
		s.logger.Debug("Analysis verdict below confidence floor",
			zap.String("message_id", email.MessageID),
			zap.Float64("confidence", candidate.Percentage),
			zap.Float64("floor", s.llmMinConfidence))
		return result
	}

	enrichFromAnalysis(result, analysis)
	return result
}

// persist records the verdict for the message, wrapping any storage failure
// so callers can tell it apart from a classification failure.
func (s *ClassificationService) persist(ctx context.Context, email *Email, normalizedSender string, result *ClassificationResult) error {
	now := time.Now()
	record := &EvidenceRecord{
		MessageID:        email.MessageID,
		SenderEmail:      email.From,
		NormalizedSender: normalizedSender,
		Subject:          email.Subject,
		Result:           result,
		Source:           result.Source,
		ClassifiedAt:     now,
	}
	if s.evidenceTTL > 0 {
		record.ExpiresAt = now.Add(s.evidenceTTL)
	}

	if err := s.store.Persist(ctx, record); err != nil {
		s.logger.Error("Failed to persist evidence",
			zap.String("message_id", email.MessageID),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrEvidencePersist, err)
	}
	return nil
}

// resultFromAnalysis converts an LLM analysis into a classification result.
// The model's own confidence is ignored; percentage and level are recomputed
// from the score.
func resultFromAnalysis(analysis *DocumentAnalysis, messageID string) *ClassificationResult {
	score := analysis.Score
	if score < 0 {
		score = 0
	}
	if score > MaxPossibleScore {
		score = MaxPossibleScore
	}
	percentage := float64(score) / float64(MaxPossibleScore) * 100

	return &ClassificationResult{
		MessageID:        messageID,
		DocumentType:     analysis.DocumentType,
		Detector:         "llm",
		Score:            score,
		MaxScore:         MaxPossibleScore,
		Percentage:       percentage,
		Level:            LevelFromPercentage(percentage),
		Breakdown:        breakdownFromMap(analysis.Breakdown),
		Tags:             analysis.Tags,
		Metadata:         map[string]string{"model_used": analysis.ModelUsed},
		Explanation:      analysis.Reasoning,
		Correspondent:    analysis.Correspondent,
		Amount:           analysis.DetectedAmount,
		Currency:         analysis.DetectedCurrency,
		SubscriptionType: analysis.SubscriptionType,
		ProcessingID:     analysis.ProcessingID,
		AnalyzedAt:       analysis.AnalyzedAt,
	}
}

// enrichFromAnalysis fills billing details the rule-based detectors could not
// extract. The rule verdict itself stands.
func enrichFromAnalysis(result *ClassificationResult, analysis *DocumentAnalysis) {
	if result.Amount == 0 && analysis.DetectedAmount > 0 {
		result.Amount = analysis.DetectedAmount
		if analysis.DetectedCurrency != "" {
			result.Currency = analysis.DetectedCurrency
		}
	}
	if result.SubscriptionType == "" && analysis.SubscriptionType != "" {
		result.SubscriptionType = analysis.SubscriptionType
	}
	if result.Correspondent == "" && analysis.Correspondent != "" {
		result.Correspondent = analysis.Correspondent
	}
	if result.Metadata == nil {
		result.Metadata = make(map[string]string)
	}
	result.Metadata["enriched_by"] = analysis.ModelUsed
}

func breakdownFromMap(m map[string]int) *ScoreBreakdown {
	if len(m) == 0 {
		return nil
	}
	return &ScoreBreakdown{
		SubscriptionIndicators: m["subscription_indicators"],
		PaymentIndicators:      m["payment_indicators"],
		TemporalIndicators:     m["temporal_indicators"],
		SenderTrust:            m["sender_trust"],
		ContentStructure:       m["content_structure"],
		FormatQuality:          m["format_quality"],
		Penalties:              m["penalties"],
		Bonuses:                m["bonuses"],
	}
}

// fingerprint derives a stable message ID from the message content so
// redelivered messages without a Message-ID header stay idempotent.
func fingerprint(email *Email) string {
	h := sha256.New()
	h.Write([]byte(email.From))
	h.Write([]byte{0})
	h.Write([]byte(email.Subject))
	h.Write([]byte{0})
	h.Write([]byte(email.Body))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeSender lowercases the sender and strips any display name.
func normalizeSender(sender string) string {
	addr := sender
	if start := strings.LastIndex(addr, "<"); start >= 0 {
		if end := strings.Index(addr[start:], ">"); end > 0 {
			addr = addr[start+1 : start+end]
		}
	}
	return strings.ToLower(strings.TrimSpace(addr))
}

// truncate cuts text at max bytes without splitting a UTF-8 sequence.
func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubClassifier struct {
	result *ClassificationResult
	calls  int
	seen   *Email
}

func (c *stubClassifier) Classify(email *Email) *ClassificationResult {
	c.calls++
	c.seen = email
	return c.result
}

type stubStore struct {
	persisted  []*EvidenceRecord
	persistErr error
	lookup     *EvidenceRecord
	lookupErr  error
}

func (s *stubStore) Persist(_ context.Context, record *EvidenceRecord) error {
	if s.persistErr != nil {
		return s.persistErr
	}
	s.persisted = append(s.persisted, record)
	return nil
}

func (s *stubStore) Get(_ context.Context, _ string) (*EvidenceRecord, error) {
	return nil, ErrEvidenceNotFound
}

func (s *stubStore) LookupBySender(_ context.Context, _ string) (*EvidenceRecord, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if s.lookup == nil {
		return nil, ErrEvidenceNotFound
	}
	return s.lookup, nil
}

func (s *stubStore) Delete(_ context.Context, _ string) error { return nil }
func (s *stubStore) Cleanup(_ context.Context) error          { return nil }
func (s *stubStore) Close() error                             { return nil }

type stubAnalyzer struct {
	analysis *DocumentAnalysis
	err      error
	calls    int
}

func (a *stubAnalyzer) AnalyzeDocument(_ context.Context, _ *Email) (*DocumentAnalysis, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.analysis, nil
}

func newTestService(classifier Classifier, store EvidenceStore, analyzer DocumentAnalyzer) *ClassificationService {
	return NewClassificationService(
		classifier,
		store,
		analyzer,
		zap.NewNop(),
		8192,
		true,
		ConfidenceHigh,
		24*time.Hour,
		40.0,
		time.Minute,
	)
}

func subscriptionVerdict() *ClassificationResult {
	return &ClassificationResult{
		DocumentType: DocTypeSubscription,
		Detector:     "subscription",
		Score:        150,
		MaxScore:     MaxPossibleScore,
		Percentage:   75,
		Level:        ConfidenceHigh,
		AnalyzedAt:   time.Now(),
	}
}

func unclassifiedVerdict() *ClassificationResult {
	return &ClassificationResult{
		DocumentType: DocTypeUnclassified,
		Detector:     "router",
		MaxScore:     100,
		Level:        ConfidenceLow,
		AnalyzedAt:   time.Now(),
	}
}

func testEmail() *Email {
	return &Email{
		MessageID: "msg-1",
		From:      "billing@netflix.com",
		To:        []string{"user@example.com"},
		Subject:   "Your subscription renewal",
		Body:      "Your monthly subscription of $15.99 renews on 2026-09-01.",
	}
}

func TestClassifyValidation(t *testing.T) {
	svc := newTestService(&stubClassifier{result: subscriptionVerdict()}, &stubStore{}, nil)

	_, err := svc.Classify(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Classify(context.Background(), &Email{Subject: "hi", Body: "there"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Classify(context.Background(), &Email{From: "a@b.com", Subject: "  ", Body: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClassifyPersistsVerdict(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(&stubClassifier{result: subscriptionVerdict()}, store, nil)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "msg-1", result.MessageID)
	assert.Equal(t, SourceAutomatic, result.Source)

	require.Len(t, store.persisted, 1)
	record := store.persisted[0]
	assert.Equal(t, "msg-1", record.MessageID)
	assert.Equal(t, "billing@netflix.com", record.SenderEmail)
	assert.Equal(t, "billing@netflix.com", record.NormalizedSender)
	assert.Equal(t, SourceAutomatic, record.Source)
	assert.False(t, record.ExpiresAt.IsZero())
}

func TestClassifyFingerprintsMissingMessageID(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(&stubClassifier{result: subscriptionVerdict()}, store, nil)

	email := testEmail()
	email.MessageID = ""

	first, err := svc.Classify(context.Background(), email)
	require.NoError(t, err)
	assert.Len(t, first.MessageID, 64)

	again := testEmail()
	again.MessageID = ""
	second, err := svc.Classify(context.Background(), again)
	require.NoError(t, err)
	assert.Equal(t, first.MessageID, second.MessageID)
}

func TestClassifyPersistFailureKeepsResult(t *testing.T) {
	store := &stubStore{persistErr: errors.New("disk full")}
	svc := newTestService(&stubClassifier{result: subscriptionVerdict()}, store, nil)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NotNil(t, result)
	assert.Equal(t, DocTypeSubscription, result.DocumentType)
	assert.ErrorIs(t, err, ErrEvidencePersist)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestClassifyReusesSenderVerdict(t *testing.T) {
	prior := subscriptionVerdict()
	prior.Level = ConfidenceVeryHigh
	prior.MessageID = "old-msg"
	store := &stubStore{lookup: &EvidenceRecord{
		MessageID:        "old-msg",
		NormalizedSender: "billing@netflix.com",
		Result:           prior,
		Source:           SourceAutomatic,
		ClassifiedAt:     time.Now().Add(-time.Hour),
	}}
	classifier := &stubClassifier{result: subscriptionVerdict()}
	svc := newTestService(classifier, store, nil)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Zero(t, classifier.calls)
	assert.Equal(t, SourceSenderMatch, result.Source)
	assert.Equal(t, "msg-1", result.MessageID)
	assert.Equal(t, DocTypeSubscription, result.DocumentType)

	require.Len(t, store.persisted, 1)
	assert.Equal(t, SourceSenderMatch, store.persisted[0].Source)

	// The stored verdict is cloned, never aliased
	assert.Equal(t, "old-msg", prior.MessageID)
}

func TestClassifyIgnoresWeakSenderVerdict(t *testing.T) {
	prior := subscriptionVerdict()
	prior.Level = ConfidenceLow
	store := &stubStore{lookup: &EvidenceRecord{Result: prior, Source: SourceAutomatic}}
	classifier := &stubClassifier{result: subscriptionVerdict()}
	svc := newTestService(classifier, store, nil)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, SourceAutomatic, result.Source)
}

func TestClassifyReusesManualVerdictRegardlessOfLevel(t *testing.T) {
	prior := subscriptionVerdict()
	prior.Level = ConfidenceLow
	store := &stubStore{lookup: &EvidenceRecord{Result: prior, Source: SourceManual}}
	classifier := &stubClassifier{result: subscriptionVerdict()}
	svc := newTestService(classifier, store, nil)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Zero(t, classifier.calls)
	assert.Equal(t, SourceSenderMatch, result.Source)
}

func TestClassifyAdoptsAnalysisForUnclassified(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: &DocumentAnalysis{
		DocumentType: DocTypeBank,
		Score:        120,
		Reasoning:    "statement layout with account numbers",
		ModelUsed:    "gpt-4o-mini",
		AnalyzedAt:   time.Now(),
	}}
	store := &stubStore{}
	svc := newTestService(&stubClassifier{result: unclassifiedVerdict()}, store, analyzer)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, DocTypeBank, result.DocumentType)
	assert.Equal(t, "llm", result.Detector)
	assert.Equal(t, 120, result.Score)
	assert.InDelta(t, 60.0, result.Percentage, 0.001)
	assert.Equal(t, ConfidenceMedium, result.Level)
	assert.Equal(t, "gpt-4o-mini", result.Metadata["model_used"])
	assert.Equal(t, SourceAutomatic, result.Source)
}

func TestClassifyRejectsAnalysisBelowFloor(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: &DocumentAnalysis{
		DocumentType: DocTypeBank,
		Score:        40,
		ModelUsed:    "gpt-4o-mini",
	}}
	svc := newTestService(&stubClassifier{result: unclassifiedVerdict()}, &stubStore{}, analyzer)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, DocTypeUnclassified, result.DocumentType)
	assert.Equal(t, "router", result.Detector)
}

func TestClassifySurvivesAnalyzerError(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("model unavailable")}
	svc := newTestService(&stubClassifier{result: unclassifiedVerdict()}, &stubStore{}, analyzer)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)
	assert.Equal(t, DocTypeUnclassified, result.DocumentType)
}

func TestClassifyEnrichesSubscriptionDetails(t *testing.T) {
	verdict := subscriptionVerdict()
	verdict.Amount = 0
	analyzer := &stubAnalyzer{analysis: &DocumentAnalysis{
		DocumentType:     DocTypeSubscription,
		DetectedAmount:   9.99,
		DetectedCurrency: "EUR",
		SubscriptionType: "monthly",
		Correspondent:    "Spotify",
		ModelUsed:        "gpt-4o-mini",
	}}
	svc := newTestService(&stubClassifier{result: verdict}, &stubStore{}, analyzer)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, "subscription", result.Detector)
	assert.Equal(t, 9.99, result.Amount)
	assert.Equal(t, "EUR", result.Currency)
	assert.Equal(t, "monthly", result.SubscriptionType)
	assert.Equal(t, "Spotify", result.Correspondent)
	assert.Equal(t, "gpt-4o-mini", result.Metadata["enriched_by"])
}

func TestClassifySkipsAnalysisForConfidentVerdicts(t *testing.T) {
	verdict := subscriptionVerdict()
	verdict.Amount = 15.99
	verdict.SubscriptionType = "monthly"
	analyzer := &stubAnalyzer{analysis: &DocumentAnalysis{DocumentType: DocTypeSubscription}}
	svc := newTestService(&stubClassifier{result: verdict}, &stubStore{}, analyzer)

	_, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)
	assert.Zero(t, analyzer.calls)
}

func TestClassifyTruncatesScratchBodyOnly(t *testing.T) {
	classifier := &stubClassifier{result: subscriptionVerdict()}
	store := &stubStore{}
	svc := NewClassificationService(classifier, store, nil, zap.NewNop(),
		10, false, ConfidenceHigh, 0, 40.0, 0)

	email := testEmail()
	original := email.Body
	_, err := svc.Classify(context.Background(), email)
	require.NoError(t, err)

	require.NotNil(t, classifier.seen)
	assert.LessOrEqual(t, len(classifier.seen.Body), 10)
	assert.Equal(t, original, email.Body)

	// Zero TTL means the record never expires
	require.Len(t, store.persisted, 1)
	assert.True(t, store.persisted[0].ExpiresAt.IsZero())
}

func TestNormalizeSender(t *testing.T) {
	assert.Equal(t, "jan.novak@example.com", normalizeSender("Jan Novák <Jan.Novak@Example.COM>"))
	assert.Equal(t, "billing@netflix.com", normalizeSender("BILLING@NETFLIX.COM"))
	assert.Equal(t, "a@b.com", normalizeSender("  a@b.com  "))
}

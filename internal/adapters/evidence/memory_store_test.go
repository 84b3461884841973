package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/matej/doc-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRecord(messageID, sender string, classifiedAt, expiresAt time.Time) *core.EvidenceRecord {
	return &core.EvidenceRecord{
		MessageID:        messageID,
		SenderEmail:      sender,
		NormalizedSender: sender,
		Subject:          "Your subscription renewal",
		Result: &core.ClassificationResult{
			MessageID:    messageID,
			DocumentType: core.DocTypeSubscription,
			Detector:     "subscription",
			Score:        150,
			MaxScore:     core.MaxPossibleScore,
			Percentage:   75,
			Level:        core.ConfidenceHigh,
			Source:       core.SourceAutomatic,
			AnalyzedAt:   classifiedAt,
		},
		Source:       core.SourceAutomatic,
		ClassifiedAt: classifiedAt,
		ExpiresAt:    expiresAt,
	}
}

func TestMemoryStorePersistAndGet(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	rec := testRecord("msg-1", "billing@netflix.com", now, now.Add(time.Hour))
	require.NoError(t, store.Persist(ctx, rec))

	got, err := store.Get(ctx, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "billing@netflix.com", got.SenderEmail)
	assert.Equal(t, core.DocTypeSubscription, got.Result.DocumentType)
}

func TestMemoryStorePersistIsIdempotent(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	first := testRecord("msg-1", "billing@netflix.com", now, now.Add(time.Hour))
	require.NoError(t, store.Persist(ctx, first))

	second := testRecord("msg-1", "billing@netflix.com", now.Add(time.Minute), now.Add(time.Hour))
	second.Result.Score = 180
	require.NoError(t, store.Persist(ctx, second))

	got, err := store.Get(ctx, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, 180, got.Result.Score)
}

func TestMemoryStoreLookupBySenderReturnsLatest(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	older := testRecord("msg-1", "billing@netflix.com", now.Add(-2*time.Hour), now.Add(time.Hour))
	newer := testRecord("msg-2", "billing@netflix.com", now, now.Add(time.Hour))

	// Delivery order does not have to match classification order.
	require.NoError(t, store.Persist(ctx, newer))
	require.NoError(t, store.Persist(ctx, older))

	got, err := store.LookupBySender(ctx, "billing@netflix.com")
	require.NoError(t, err)
	assert.Equal(t, "msg-2", got.MessageID)
}

func TestMemoryStoreExpiredRecordsAreInvisible(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	rec := testRecord("msg-1", "billing@netflix.com", now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, store.Persist(ctx, rec))

	_, err := store.Get(ctx, "msg-1")
	assert.ErrorIs(t, err, core.ErrEvidenceNotFound)

	_, err = store.LookupBySender(ctx, "billing@netflix.com")
	assert.ErrorIs(t, err, core.ErrEvidenceNotFound)
}

func TestMemoryStoreZeroExpiryNeverExpires(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour)
	defer store.Close()
	ctx := context.Background()

	rec := testRecord("msg-1", "billing@netflix.com", time.Now().Add(-24*time.Hour), time.Time{})
	require.NoError(t, store.Persist(ctx, rec))

	_, err := store.Get(ctx, "msg-1")
	assert.NoError(t, err)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	rec := testRecord("msg-1", "billing@netflix.com", now, now.Add(time.Hour))
	require.NoError(t, store.Persist(ctx, rec))
	require.NoError(t, store.Delete(ctx, "msg-1"))

	_, err := store.Get(ctx, "msg-1")
	assert.ErrorIs(t, err, core.ErrEvidenceNotFound)

	_, err = store.LookupBySender(ctx, "billing@netflix.com")
	assert.ErrorIs(t, err, core.ErrEvidenceNotFound)
}

func TestMemoryStoreCleanup(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	expired := testRecord("msg-old", "old@example.com", now.Add(-2*time.Hour), now.Add(-time.Hour))
	live := testRecord("msg-new", "new@example.com", now, now.Add(time.Hour))
	require.NoError(t, store.Persist(ctx, expired))
	require.NoError(t, store.Persist(ctx, live))

	require.NoError(t, store.Cleanup(ctx))

	_, err := store.Get(ctx, "msg-old")
	assert.ErrorIs(t, err, core.ErrEvidenceNotFound)

	_, err = store.Get(ctx, "msg-new")
	assert.NoError(t, err)
}

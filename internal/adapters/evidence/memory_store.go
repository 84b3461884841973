package evidence

import (
	"context"
	"sync"
	"time"

	"github.com/matej/doc-triage/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the EvidenceStore interface.
// Records are indexed by message ID, with a secondary sender index pointing at
// the most recently classified record for each normalized sender.
type MemoryStore struct {
	byID        map[string]*core.EvidenceRecord
	bySender    map[string]string
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates a new in-memory evidence store.
func NewMemoryStore(logger *zap.Logger, cleanupFreq time.Duration) *MemoryStore {
	store := &MemoryStore{
		byID:        make(map[string]*core.EvidenceRecord),
		bySender:    make(map[string]string),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go store.startCleanupTask()

	return store
}

// Persist upserts the record. Re-persisting the same message ID replaces the
// stored record, so retried deliveries stay idempotent.
func (s *MemoryStore) Persist(ctx context.Context, record *core.EvidenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[record.MessageID] = record
	if record.NormalizedSender != "" {
		current, ok := s.byID[s.bySender[record.NormalizedSender]]
		if !ok || !record.ClassifiedAt.Before(current.ClassifiedAt) {
			s.bySender[record.NormalizedSender] = record.MessageID
		}
	}
	return nil
}

// Get retrieves the unexpired record for a message ID.
func (s *MemoryStore) Get(ctx context.Context, messageID string) (*core.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[messageID]
	if !ok || expired(record, time.Now()) {
		return nil, core.ErrEvidenceNotFound
	}
	return record, nil
}

// LookupBySender returns the most recent unexpired record for the sender.
func (s *MemoryStore) LookupBySender(ctx context.Context, normalizedSender string) (*core.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[s.bySender[normalizedSender]]
	if !ok || expired(record, time.Now()) {
		return nil, core.ErrEvidenceNotFound
	}
	return record, nil
}

// Delete removes a record. The sender index is left to resolve lazily: a
// dangling index entry simply misses on the next lookup.
func (s *MemoryStore) Delete(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byID, messageID)
	return nil
}

// Cleanup removes expired records.
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for id, record := range s.byID {
		if expired(record, now) {
			delete(s.byID, id)
			expiredCount++
		}
	}
	for sender, id := range s.bySender {
		if _, ok := s.byID[id]; !ok {
			delete(s.bySender, sender)
		}
	}

	s.logger.Debug("Cleaned up expired evidence records", zap.Int("expired_count", expiredCount))
	return nil
}

// Close stops the background cleanup task.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *MemoryStore) startCleanupTask() {
	if s.cleanupFreq <= 0 {
		return
	}
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background()); err != nil {
				s.logger.Error("Failed to clean up evidence store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// expired reports whether the record's TTL has passed. A zero ExpiresAt means
// the record never expires.
func expired(record *core.EvidenceRecord, now time.Time) bool {
	return !record.ExpiresAt.IsZero() && now.After(record.ExpiresAt)
}

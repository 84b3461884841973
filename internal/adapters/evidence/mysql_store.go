package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/matej/doc-triage/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the EvidenceStore interface.
type MySQLStore struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLStore creates a new MySQL evidence store.
func NewMySQLStore(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS evidence (
			message_id VARCHAR(255) PRIMARY KEY,
			sender_email VARCHAR(320),
			normalized_sender VARCHAR(320),
			subject TEXT,
			result MEDIUMTEXT,
			source VARCHAR(32),
			classified_at DATETIME,
			expires_at DATETIME NULL,
			INDEX idx_evidence_sender (normalized_sender, classified_at),
			INDEX idx_evidence_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	store := &MySQLStore{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go store.startCleanupTask()

	return store, nil
}

// Persist upserts the record keyed by message ID.
func (s *MySQLStore) Persist(ctx context.Context, record *core.EvidenceRecord) error {
	result, err := encodeResult(record.Result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evidence (message_id, sender_email, normalized_sender, subject, result, source, classified_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			sender_email = VALUES(sender_email),
			normalized_sender = VALUES(normalized_sender),
			subject = VALUES(subject),
			result = VALUES(result),
			source = VALUES(source),
			classified_at = VALUES(classified_at),
			expires_at = VALUES(expires_at)
	`, record.MessageID, record.SenderEmail, record.NormalizedSender, record.Subject,
		result, record.Source, formatTime(record.ClassifiedAt), nullableTime(record.ExpiresAt))

	if err != nil {
		return fmt.Errorf("failed to persist evidence record: %w", err)
	}
	return nil
}

// Get retrieves the unexpired record for a message ID.
func (s *MySQLStore) Get(ctx context.Context, messageID string) (*core.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT message_id, sender_email, normalized_sender, subject, result, source, classified_at, expires_at
		FROM evidence
		WHERE message_id = ? AND (expires_at IS NULL OR expires_at > UTC_TIMESTAMP())
	`, messageID)

	return scanRecord(row)
}

// LookupBySender returns the most recent unexpired record for the sender.
func (s *MySQLStore) LookupBySender(ctx context.Context, normalizedSender string) (*core.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT message_id, sender_email, normalized_sender, subject, result, source, classified_at, expires_at
		FROM evidence
		WHERE normalized_sender = ? AND (expires_at IS NULL OR expires_at > UTC_TIMESTAMP())
		ORDER BY classified_at DESC
		LIMIT 1
	`, normalizedSender)

	return scanRecord(row)
}

// Delete removes a record.
func (s *MySQLStore) Delete(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM evidence
		WHERE message_id = ?
	`, messageID)

	if err != nil {
		return fmt.Errorf("failed to delete evidence record: %w", err)
	}
	return nil
}

// Cleanup removes expired records.
func (s *MySQLStore) Cleanup(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM evidence
		WHERE expires_at IS NOT NULL AND expires_at <= UTC_TIMESTAMP()
	`)

	if err != nil {
		return fmt.Errorf("failed to clean up expired records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Cleaned up expired evidence records", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// Close stops the background cleanup task and closes the database connection.
func (s *MySQLStore) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		err = s.db.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to close MySQL database: %w", err)
	}
	return nil
}

func (s *MySQLStore) startCleanupTask() {
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

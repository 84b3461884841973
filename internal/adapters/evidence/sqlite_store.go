package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/matej/doc-triage/internal/core"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the EvidenceStore interface.
type SQLiteStore struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteStore creates a new SQLite evidence store.
func NewSQLiteStore(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS evidence (
			message_id TEXT PRIMARY KEY,
			sender_email TEXT,
			normalized_sender TEXT,
			subject TEXT,
			result TEXT,
			source TEXT,
			classified_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_evidence_sender ON evidence(normalized_sender, classified_at)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_expires_at ON evidence(expires_at)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}

	store := &SQLiteStore{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go store.startCleanupTask()

	return store, nil
}

// Persist upserts the record keyed by message ID.
func (s *SQLiteStore) Persist(ctx context.Context, record *core.EvidenceRecord) error {
	result, err := encodeResult(record.Result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evidence (message_id, sender_email, normalized_sender, subject, result, source, classified_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			sender_email = excluded.sender_email,
			normalized_sender = excluded.normalized_sender,
			subject = excluded.subject,
			result = excluded.result,
			source = excluded.source,
			classified_at = excluded.classified_at,
			expires_at = excluded.expires_at
	`, record.MessageID, record.SenderEmail, record.NormalizedSender, record.Subject,
		result, record.Source, formatTime(record.ClassifiedAt), nullableTime(record.ExpiresAt))

	if err != nil {
		return fmt.Errorf("failed to persist evidence record: %w", err)
	}
	return nil
}

// Get retrieves the unexpired record for a message ID.
func (s *SQLiteStore) Get(ctx context.Context, messageID string) (*core.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT message_id, sender_email, normalized_sender, subject, result, source, classified_at, expires_at
		FROM evidence
		WHERE message_id = ? AND (expires_at IS NULL OR expires_at > datetime('now'))
	`, messageID)

	return scanRecord(row)
}

// LookupBySender returns the most recent unexpired record for the sender.
func (s *SQLiteStore) LookupBySender(ctx context.Context, normalizedSender string) (*core.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT message_id, sender_email, normalized_sender, subject, result, source, classified_at, expires_at
		FROM evidence
		WHERE normalized_sender = ? AND (expires_at IS NULL OR expires_at > datetime('now'))
		ORDER BY classified_at DESC
		LIMIT 1
	`, normalizedSender)

	return scanRecord(row)
}

// Delete removes a record.
func (s *SQLiteStore) Delete(ctx context.Context, messageID string) error {
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
func (s *SQLiteStore) Cleanup(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM evidence
		WHERE expires_at IS NOT NULL AND expires_at <= datetime('now')
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
func (s *SQLiteStore) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		err = s.db.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to close SQLite database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) startCleanupTask() {
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*core.EvidenceRecord, error) {
	var record core.EvidenceRecord
	var result, classifiedAt string
	var expiresAt sql.NullString

	err := row.Scan(&record.MessageID, &record.SenderEmail, &record.NormalizedSender,
		&record.Subject, &result, &record.Source, &classifiedAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrEvidenceNotFound
		}
		return nil, fmt.Errorf("failed to query evidence record: %w", err)
	}

	record.Result, err = decodeResult(result)
	if err != nil {
		return nil, err
	}
	record.ClassifiedAt, err = parseTime(classifiedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classified_at timestamp: %w", err)
	}
	if expiresAt.Valid {
		record.ExpiresAt, err = parseTime(expiresAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expires_at timestamp: %w", err)
		}
	}

	return &record, nil
}

// nullableTime renders a timestamp column value, mapping the zero time to NULL
// so records without a TTL never expire.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

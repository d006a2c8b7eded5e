package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"lpool/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite operation journal. It satisfies domain.Journal.
type Storage struct {
	db        *gorm.DB
	sessionID string
}

var _ domain.Journal = (*Storage)(nil)

// NewStorage opens (or creates) the journal database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newStorage(db)
}

func newStorage(db *gorm.DB) (*Storage, error) {
	// Auto Migration
	if err := db.AutoMigrate(&domain.JournalEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db, sessionID: uuid.NewString()}, nil
}

// SessionID identifies the entries written through this Storage.
func (s *Storage) SessionID() string {
	return s.sessionID
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Journal Operations
// ======================================================================================

// Append stores one journal entry, assigning its ID and session.
func (s *Storage) Append(ctx context.Context, entry *domain.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.SessionID == "" {
		entry.SessionID = s.sessionID
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// Entries returns the entries of pool written in this session, in sequence order.
func (s *Storage) Entries(ctx context.Context, pool string) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND pool = ?", s.sessionID, pool).
		Order("seq ASC").
		Find(&entries).Error
	return entries, err
}

// OpCount is the number of journaled operations of one kind.
type OpCount struct {
	Op       string
	Applied  int64
	Rejected int64
}

// CountByOp summarises the entries of pool written in this session.
func (s *Storage) CountByOp(ctx context.Context, pool string) ([]OpCount, error) {
	var counts []OpCount
	err := s.db.WithContext(ctx).
		Model(&domain.JournalEntry{}).
		Select("op, SUM(CASE WHEN error = '' THEN 1 ELSE 0 END) AS applied, SUM(CASE WHEN error <> '' THEN 1 ELSE 0 END) AS rejected").
		Where("session_id = ? AND pool = ?", s.sessionID, pool).
		Group("op").
		Order("op").
		Scan(&counts).Error
	return counts, err
}

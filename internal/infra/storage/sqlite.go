package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tjena007/Ticketing-System/internal/domain"
)

// Storage is the receipt ledger. Workers write to it concurrently.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the ledger at path.
// An empty path resolves to the per-user config directory.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		var err error
		if path, err = getDBPath(); err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer; serialize in the pool instead of hitting SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto Migration
	if err := db.AutoMigrate(&domain.Receipt{}, &domain.TheaterRun{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "TicketingSystem", "data", "tickets.db"), nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Receipt Operations
// ======================================================================================

// RecordReceipt stores one processing outcome. Receipts are keyed by order ID,
// so recording the same order twice overwrites the first entry.
func (s *Storage) RecordReceipt(receipt *domain.Receipt) error {
	return s.db.Save(receipt).Error
}

// GetReceipt retrieves a receipt by order ID
func (s *Storage) GetReceipt(orderID string) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := s.db.First(&receipt, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListReceipts returns the newest receipts first. limit <= 0 returns all of them.
func (s *Storage) ListReceipts(limit int) ([]domain.Receipt, error) {
	var receipts []domain.Receipt
	q := s.db.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&receipts).Error
	return receipts, err
}

// CountByStatus counts receipts per status
func (s *Storage) CountByStatus() (map[domain.ReceiptStatus]int64, error) {
	var rows []struct {
		Status domain.ReceiptStatus
		N      int64
	}
	err := s.db.Model(&domain.Receipt{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[domain.ReceiptStatus]int64, len(rows))
	for _, r := range rows {
		result[r.Status] = r.N
	}
	return result, nil
}

// ======================================================================================
// Theater Run Operations
// ======================================================================================

// RecordRun stores a theater summary
func (s *Storage) RecordRun(run *domain.TheaterRun) error {
	return s.db.Create(run).Error
}

// ListRuns returns every recorded theater run, oldest first
func (s *Storage) ListRuns() ([]domain.TheaterRun, error) {
	var runs []domain.TheaterRun
	err := s.db.Order("id asc").Find(&runs).Error
	return runs, err
}

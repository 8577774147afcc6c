package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	cartapp "github.com/shopfront/cartengine/internal/application/cart"
)

// snapshotModel is the persistence model for cart snapshots. One row per
// store key; the payload is the encoded snapshot.
type snapshotModel struct {
	StoreKey  string    `gorm:"primaryKey"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (snapshotModel) TableName() string {
	return "cart_snapshots"
}

// SQLiteSnapshotStore persists snapshots in a local SQLite database, the
// durable backend for desktop and POS clients.
type SQLiteSnapshotStore struct {
	db       *gorm.DB
	storeKey string
}

// NewSQLiteSnapshotStore opens (creating if needed) the SQLite database at
// dbPath and migrates the snapshot table.
func NewSQLiteSnapshotStore(dbPath, storeKey string) (*SQLiteSnapshotStore, error) {
	if storeKey == "" {
		return nil, fmt.Errorf("snapshot store key cannot be empty")
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.AutoMigrate(&snapshotModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot table: %w", err)
	}
	return &SQLiteSnapshotStore{db: db, storeKey: storeKey}, nil
}

// NewSQLiteSnapshotStoreWithDB creates a store on an existing gorm handle.
// Useful for tests or when sharing a database across components.
func NewSQLiteSnapshotStoreWithDB(db *gorm.DB, storeKey string) (*SQLiteSnapshotStore, error) {
	if storeKey == "" {
		return nil, fmt.Errorf("snapshot store key cannot be empty")
	}
	if err := db.AutoMigrate(&snapshotModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot table: %w", err)
	}
	return &SQLiteSnapshotStore{db: db, storeKey: storeKey}, nil
}

// Load reads the snapshot row for the store key. (nil, nil) when absent.
func (s *SQLiteSnapshotStore) Load(ctx context.Context) (*cartapp.Snapshot, error) {
	var model snapshotModel
	err := s.db.WithContext(ctx).First(&model, "store_key = ?", s.storeKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return decodeSnapshot(model.Payload)
}

// Save upserts the snapshot row for the store key.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snap cartapp.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	model := snapshotModel{
		StoreKey:  s.storeKey,
		Payload:   data,
		UpdatedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}},
		UpdateAll: true,
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

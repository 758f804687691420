package history

import (
	"context"
	"errors"
	"fmt"

	"table-sync/core/database"

	"gorm.io/gorm"
)

// ErrNotFound is returned for an unknown run id.
var ErrNotFound = errors.New("run not found")

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Store persists sync runs.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store on db. Call Migrate before use.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the history tables and checks that the
// columns the store reads are present.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&SyncRun{}, &RunEvent{}); err != nil {
		return fmt.Errorf("migrate history tables: %w", err)
	}

	missing, err := database.MissingColumns(db, SyncRun{}.TableName(), "id", "table_id", "status", "started_at")
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns %v", SyncRun{}.TableName(), missing)
	}
	return nil
}

// Save stores run together with its events.
func (s *Store) Save(ctx context.Context, run *SyncRun) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := run.Events
		run.Events = nil
		defer func() { run.Events = events }()

		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		for i := range events {
			events[i].RunID = run.ID
		}
		return tx.CreateInBatches(events, 200).Error
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the latest runs, newest first, without events. tableID
// filters when non-empty.
func (s *Store) List(ctx context.Context, tableID string, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	q := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if tableID != "" {
		q = q.Where("table_id = ?", tableID)
	}

	var runs []SyncRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its events.
func (s *Store) Get(ctx context.Context, id string) (*SyncRun, error) {
	var run SyncRun
	err := s.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

package services

import (
	"context"
	"fmt"
	"sort"

	"delivery_notes_app_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const snapshotBatchSize = 100

// SnapshotModels lists every table the snapshot is written to
func SnapshotModels() []interface{} {
	return []interface{}{
		&models.Branch{},
		&models.Product{},
		&models.DeliveryNote{},
		&models.LineItem{},
		&models.Order{},
		&models.OrderRow{},
		&models.Counter{},
	}
}

// GormSnapshotStore persists the snapshot in relational tables. Every save
// rewrites all of them inside one transaction.
type GormSnapshotStore struct {
	db *gorm.DB
}

// NewGormSnapshotStore creates a snapshot store over db
func NewGormSnapshotStore(db *gorm.DB) *GormSnapshotStore {
	return &GormSnapshotStore{db: db}
}

// Migrate creates or updates the snapshot tables
func (s *GormSnapshotStore) Migrate() error {
	if err := s.db.AutoMigrate(SnapshotModels()...); err != nil {
		return fmt.Errorf("failed to migrate snapshot tables: %w", err)
	}
	return nil
}

// Load reads the whole state. An empty database yields an empty snapshot
// without counters so the caller can seed them.
func (s *GormSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &models.Snapshot{Counters: map[string]int{}}

	if err := db.Order("id ASC").Find(&snap.Branches).Error; err != nil {
		return nil, fmt.Errorf("failed to load branches: %w", err)
	}
	if err := db.Order("id ASC").Find(&snap.Products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("id ASC").Find(&snap.Notes).Error; err != nil {
		return nil, fmt.Errorf("failed to load delivery notes: %w", err)
	}
	if err := db.Preload("Rows", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("id ASC").Find(&snap.Orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	var counters []models.Counter
	if err := db.Find(&counters).Error; err != nil {
		return nil, fmt.Errorf("failed to load counters: %w", err)
	}
	for _, c := range counters {
		snap.Counters[c.Name] = c.Value
	}

	for i := range snap.Products {
		if snap.Products[i].Codes == nil {
			snap.Products[i].Codes = models.StringList{}
		}
	}
	return snap, nil
}

// Save replaces the stored state with snap
func (s *GormSnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	items, rows := flattenChildren(snap)

	counters := make([]models.Counter, 0, len(snap.Counters))
	for name, value := range snap.Counters {
		counters = append(counters, models.Counter{Name: name, Value: value})
	}
	sort.Slice(counters, func(i, j int) bool { return counters[i].Name < counters[j].Name })

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Children first so no row outlives its parent mid-transaction
		for _, model := range []interface{}{
			&models.LineItem{},
			&models.OrderRow{},
			&models.DeliveryNote{},
			&models.Order{},
			&models.Product{},
			&models.Branch{},
			&models.Counter{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}

		if err := insertAll(tx, snap.Branches); err != nil {
			return fmt.Errorf("failed to save branches: %w", err)
		}
		if err := insertAll(tx, snap.Products); err != nil {
			return fmt.Errorf("failed to save products: %w", err)
		}
		if err := insertAll(tx.Omit(clause.Associations), snap.Notes); err != nil {
			return fmt.Errorf("failed to save delivery notes: %w", err)
		}
		if err := insertAll(tx, items); err != nil {
			return fmt.Errorf("failed to save line items: %w", err)
		}
		if err := insertAll(tx.Omit(clause.Associations), snap.Orders); err != nil {
			return fmt.Errorf("failed to save orders: %w", err)
		}
		if err := insertAll(tx, rows); err != nil {
			return fmt.Errorf("failed to save order rows: %w", err)
		}
		if err := insertAll(tx, counters); err != nil {
			return fmt.Errorf("failed to save counters: %w", err)
		}
		return nil
	})
}

// flattenChildren stamps owner ids and positions onto line items and order
// rows and returns them as flat lists.
func flattenChildren(snap *models.Snapshot) ([]models.LineItem, []models.OrderRow) {
	var items []models.LineItem
	for i := range snap.Notes {
		note := &snap.Notes[i]
		for pos := range note.Items {
			note.Items[pos].NoteID = note.ID
			note.Items[pos].Position = pos
			items = append(items, note.Items[pos])
		}
	}

	var rows []models.OrderRow
	for i := range snap.Orders {
		order := &snap.Orders[i]
		for pos := range order.Rows {
			order.Rows[pos].OrderID = order.ID
			order.Rows[pos].Position = pos
			rows = append(rows, order.Rows[pos])
		}
	}
	return items, rows
}

func insertAll[T any](tx *gorm.DB, records []T) error {
	if len(records) == 0 {
		return nil
	}
	return tx.CreateInBatches(&records, snapshotBatchSize).Error
}

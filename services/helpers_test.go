package services

import (
	"context"
	"testing"
	"time"

	"delivery_notes_app_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSnapshotTestDB(t *testing.T) *GormSnapshotStore {
	// Unique shared memory name isolates tests
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	snapshots := NewGormSnapshotStore(testDB)
	require.NoError(t, snapshots.Migrate())

	t.Cleanup(func() {
		if sqlDB, err := testDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return snapshots
}

func setupStoreTestDB(t *testing.T) *Store {
	store, err := NewStore(context.Background(), setupSnapshotTestDB(t), 3804)
	require.NoError(t, err)
	return store
}

// seedStore installs branches and products directly through a mutation
func seedStore(t *testing.T, store *Store, branches []models.Branch, products []models.Product) {
	err := store.Mutate(context.Background(), func(tx *Tx) error {
		tx.State.Branches = append(tx.State.Branches, branches...)
		for _, p := range products {
			tx.State.Products = append(tx.State.Products, p.Clone())
		}
		return nil
	})
	require.NoError(t, err)
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC) }
}

func newTestNoteService(store *Store) *NoteService {
	s := NewNoteService(store, nil, nil, NoteServiceConfig{DefaultOrigin: "Depósito Central"})
	s.now = fixedClock()
	return s
}

// MockSnapshotStore is a mock implementation of SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// MockMailer records sent emails
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email *Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

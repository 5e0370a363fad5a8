package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"delivery_notes_app_go/models"

	"github.com/rs/zerolog/log"
)

// SnapshotStore loads and saves the whole state as one unit
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
}

// Store owns the in-memory state. Readers take the published View without
// locking; writers go through Mutate one at a time.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[View]
	persist SnapshotStore
}

// NewStore loads the persisted snapshot and publishes it. An empty store
// starts with the note-number counter at noteNumberSeed.
func NewStore(ctx context.Context, persist SnapshotStore, noteNumberSeed int) (*Store, error) {
	snap, err := persist.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if snap == nil {
		snap = models.NewSnapshot(noteNumberSeed)
	}
	normalizeCounters(snap, noteNumberSeed)

	s := &Store{persist: persist}
	s.current.Store(newView(snap))

	log.Info().
		Int("branches", len(snap.Branches)).
		Int("products", len(snap.Products)).
		Int("notes", len(snap.Notes)).
		Int("orders", len(snap.Orders)).
		Msg("State loaded")
	return s, nil
}

// normalizeCounters makes sure no counter sits below a value already in use
func normalizeCounters(snap *models.Snapshot, noteNumberSeed int) {
	if snap.Counters == nil {
		snap.Counters = map[string]int{}
	}
	if _, ok := snap.Counters[models.CounterNoteNumber]; !ok {
		snap.Counters[models.CounterNoteNumber] = noteNumberSeed
	}
	for _, n := range snap.Notes {
		if n.Number > snap.Counters[models.CounterNoteNumber] {
			snap.Counters[models.CounterNoteNumber] = n.Number
		}
	}
	for _, o := range snap.Orders {
		if o.ID > snap.Counters[models.CounterOrderID] {
			snap.Counters[models.CounterOrderID] = o.ID
		}
	}
}

// View returns the currently published state
func (s *Store) View() *View {
	return s.current.Load()
}

// Mutate runs fn against a private copy of the state, saves it and
// publishes it. If fn or the save fails the published state is left as it
// was, except that counter values handed out by fn stay spent.
func (s *Store) Mutate(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.current.Load()
	working := current.snapshot.Clone()
	tx := &Tx{State: working, Catalog: NewCatalogIndex(working)}

	if err := fn(tx); err != nil {
		s.keepCounters(current, working)
		return err
	}

	if err := s.persist.Save(ctx, working); err != nil {
		s.keepCounters(current, working)
		log.Error().Err(err).Msg("Failed to save state")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.current.Store(newView(working))
	return nil
}

// keepCounters republishes current with the counters of working when fn
// allocated values that must not be reused.
func (s *Store) keepCounters(current *View, working *models.Snapshot) {
	changed := false
	for name, value := range working.Counters {
		if current.snapshot.Counters[name] != value {
			changed = true
			break
		}
	}
	if !changed {
		return
	}

	snap := *current.snapshot
	snap.Counters = make(map[string]int, len(working.Counters))
	for name, value := range working.Counters {
		snap.Counters[name] = value
	}
	s.current.Store(&View{snapshot: &snap, catalog: current.catalog})
}

// Tx is the working state handed to a mutation
type Tx struct {
	State   *models.Snapshot
	Catalog *CatalogIndex
}

// NextCounter advances a named counter and returns the new value
func (tx *Tx) NextCounter(name string) int {
	tx.State.Counters[name]++
	return tx.State.Counters[name]
}

// Branch returns a pointer into the working branch list
func (tx *Tx) Branch(id int) (*models.Branch, error) {
	for i := range tx.State.Branches {
		if tx.State.Branches[i].ID == id {
			return &tx.State.Branches[i], nil
		}
	}
	return nil, ErrBranchNotFound
}

// Note returns a pointer into the working note list
func (tx *Tx) Note(id int) (*models.DeliveryNote, error) {
	for i := range tx.State.Notes {
		if tx.State.Notes[i].ID == id {
			return &tx.State.Notes[i], nil
		}
	}
	return nil, ErrNoteNotFound
}

// Order returns a pointer into the working order list
func (tx *Tx) Order(id int) (*models.Order, error) {
	for i := range tx.State.Orders {
		if tx.State.Orders[i].ID == id {
			return &tx.State.Orders[i], nil
		}
	}
	return nil, ErrOrderNotFound
}

// View is an immutable published state. Every accessor returns copies.
type View struct {
	snapshot *models.Snapshot
	catalog  *CatalogIndex
}

func newView(snap *models.Snapshot) *View {
	return &View{snapshot: snap, catalog: NewCatalogIndex(snap)}
}

// Snapshot returns a deep copy of the whole state
func (v *View) Snapshot() *models.Snapshot {
	return v.snapshot.Clone()
}

// Counter returns the last value handed out by a counter
func (v *View) Counter(name string) int {
	return v.snapshot.Counters[name]
}

// Branches returns every branch ordered by id
func (v *View) Branches() []models.Branch {
	branches := make([]models.Branch, len(v.snapshot.Branches))
	copy(branches, v.snapshot.Branches)
	sort.Slice(branches, func(i, j int) bool { return branches[i].ID < branches[j].ID })
	return branches
}

// Branch returns a branch by id
func (v *View) Branch(id int) (models.Branch, error) {
	for _, b := range v.snapshot.Branches {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Branch{}, ErrBranchNotFound
}

// Product returns a product by id
func (v *View) Product(id int) (models.Product, error) {
	p, ok := v.catalog.Get(id)
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

// ProductByCode returns the product a code is linked to
func (v *View) ProductByCode(code string) (models.Product, error) {
	p, ok := v.catalog.ByCode(code)
	if !ok {
		return models.Product{}, ErrUnknownCode
	}
	return p, nil
}

// ResolveProduct looks a product up by id, code or description
func (v *View) ResolveProduct(q ResolveQuery) (models.Product, error) {
	return v.catalog.Resolve(q)
}

// SearchProducts runs a bounded text/code search over the catalog
func (v *View) SearchProducts(query string, limit int) []models.Product {
	return v.catalog.Search(query, limit)
}

// ProductCount returns the number of catalog entries
func (v *View) ProductCount() int {
	return v.catalog.Len()
}

// Notes returns every note
func (v *View) Notes() []models.DeliveryNote {
	notes := make([]models.DeliveryNote, len(v.snapshot.Notes))
	for i, n := range v.snapshot.Notes {
		notes[i] = n.Clone()
	}
	return notes
}

// Note returns a note by id
func (v *View) Note(id int) (models.DeliveryNote, error) {
	for _, n := range v.snapshot.Notes {
		if n.ID == id {
			return n.Clone(), nil
		}
	}
	return models.DeliveryNote{}, ErrNoteNotFound
}

// NoteByToken returns the note holding a public access token
func (v *View) NoteByToken(token string) (models.DeliveryNote, error) {
	if token == "" {
		return models.DeliveryNote{}, ErrNoteNotFound
	}
	for _, n := range v.snapshot.Notes {
		if n.PublicToken == token {
			return n.Clone(), nil
		}
	}
	return models.DeliveryNote{}, ErrNoteNotFound
}

// Orders returns every order
func (v *View) Orders() []models.Order {
	orders := make([]models.Order, len(v.snapshot.Orders))
	for i, o := range v.snapshot.Orders {
		orders[i] = o.Clone()
	}
	return orders
}

// Order returns an order by id
func (v *View) Order(id int) (models.Order, error) {
	for _, o := range v.snapshot.Orders {
		if o.ID == id {
			return o.Clone(), nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"delivery_notes_app_go/models"

	"github.com/rs/zerolog/log"
)

// OrderRowInput is one requested article of an order. ProductID is
// optional; Description is used when it is missing or unknown.
type OrderRowInput struct {
	ProductID   *int        `json:"product_id"`
	Description string      `json:"description" validate:"max=255"`
	PerBranch   map[int]int `json:"per_branch"`
}

// OrderInput is an order submission. Empty Origin and Date are defaulted.
type OrderInput struct {
	Origin string          `json:"origin" validate:"max=255"`
	Date   string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Rows   []OrderRowInput `json:"rows" validate:"required,min=1,dive"`
}

// BranchFailure records a branch whose note could not be created
type BranchFailure struct {
	BranchID int    `json:"branch_id"`
	Error    string `json:"error"`
}

// GenerateResult is the outcome of fanning an order out into notes
type GenerateResult struct {
	OrderID  int             `json:"order_id"`
	NoteIDs  []int           `json:"note_ids"`
	Receipts []NoteReceipt   `json:"notes"`
	Failures []BranchFailure `json:"failures,omitempty"`
}

// OrderService turns multi-branch orders into one note per branch
type OrderService struct {
	store *Store
	notes *NoteService
	now   func() time.Time
}

// NewOrderService creates an order service that creates notes through notes
func NewOrderService(store *Store, notes *NoteService) *OrderService {
	return &OrderService{store: store, notes: notes, now: time.Now}
}

// List returns every order, newest first
func (s *OrderService) List() []models.Order {
	orders := s.store.View().Orders()
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders
}

// Get returns an order by id
func (s *OrderService) Get(id int) (models.Order, error) {
	return s.store.View().Order(id)
}

// Submit stores an order after resolving rows against the catalog and
// dropping rows without a positive quantity for a known branch.
func (s *OrderService) Submit(ctx context.Context, in OrderInput) (models.Order, error) {
	var order models.Order
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		rows := make([]models.OrderRow, 0, len(in.Rows))
		for _, r := range in.Rows {
			row, ok := resolveOrderRow(tx, r)
			if ok {
				row.Position = len(rows)
				rows = append(rows, row)
			}
		}
		if len(rows) == 0 {
			return ErrNoValidRows
		}

		origin := strings.TrimSpace(in.Origin)
		if origin == "" {
			origin = s.notes.cfg.DefaultOrigin
		}
		date, err := resolveDate(in.Date, s.notes.today)
		if err != nil {
			return err
		}

		id := tx.NextCounter(models.CounterOrderID)
		for i := range rows {
			rows[i].OrderID = id
		}
		order = models.Order{
			ID:        id,
			Date:      date,
			Origin:    origin,
			Rows:      rows,
			Status:    models.OrderStatusDraft,
			NoteIDs:   models.IntList{},
			CreatedAt: s.now().UTC(),
		}
		tx.State.Orders = append(tx.State.Orders, order)
		order = order.Clone()
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	log.Info().Int("order_id", order.ID).Int("rows", len(order.Rows)).Msg("Order submitted")
	return order, nil
}

// resolveOrderRow canonicalizes a row's description through the catalog,
// by product id first and raw description second, and keeps only positive
// quantities for branches that exist.
func resolveOrderRow(tx *Tx, in OrderRowInput) (models.OrderRow, bool) {
	row := models.OrderRow{Description: strings.TrimSpace(in.Description)}

	if in.ProductID != nil {
		if p, ok := tx.Catalog.Get(*in.ProductID); ok {
			id := p.ID
			row.ProductID = &id
			row.Description = p.Description
		}
	}
	if row.ProductID == nil && row.Description != "" {
		if p, ok := tx.Catalog.ByDescription(row.Description); ok {
			id := p.ID
			row.ProductID = &id
			row.Description = p.Description
		}
	}
	if row.Description == "" {
		return models.OrderRow{}, false
	}

	row.PerBranch = models.BranchQuantities{}
	for branchID, qty := range in.PerBranch {
		if qty <= 0 {
			continue
		}
		if _, err := tx.Branch(branchID); err != nil {
			continue
		}
		row.PerBranch[branchID] = qty
	}
	return row, len(row.PerBranch) > 0
}

// Generate creates one note per branch of the order. Each note is created
// on its own, so a failing branch does not undo the others. Running it
// again on a processed order creates a new set of notes.
func (s *OrderService) Generate(ctx context.Context, orderID int) (GenerateResult, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return GenerateResult{}, err
	}
	if order.Status == models.OrderStatusProcessed {
		log.Warn().Int("order_id", orderID).Ints("existing_notes", order.NoteIDs).Msg("Order already processed, generating additional notes")
	}

	grouped := map[int][]NoteItemInput{}
	for _, row := range order.Rows {
		for _, branchID := range row.PerBranch.BranchIDs() {
			qty := row.PerBranch[branchID]
			if qty <= 0 {
				continue
			}
			grouped[branchID] = append(grouped[branchID], NoteItemInput{
				Description: row.Description,
				Quantity:    qty,
			})
		}
	}
	branchIDs := make([]int, 0, len(grouped))
	for id := range grouped {
		branchIDs = append(branchIDs, id)
	}
	sort.Ints(branchIDs)

	result := GenerateResult{OrderID: orderID, NoteIDs: []int{}, Receipts: []NoteReceipt{}}
	var firstErr error
	for _, branchID := range branchIDs {
		receipt, err := s.notes.Create(ctx, NoteInput{
			BranchID: branchID,
			Origin:   order.Origin,
			Date:     order.Date,
			Items:    grouped[branchID],
		})
		if err != nil {
			log.Error().Err(err).Int("order_id", orderID).Int("branch_id", branchID).Msg("Failed to create note for branch")
			result.Failures = append(result.Failures, BranchFailure{BranchID: branchID, Error: err.Error()})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.NoteIDs = append(result.NoteIDs, receipt.ID)
		result.Receipts = append(result.Receipts, receipt)
	}

	if len(result.NoteIDs) == 0 {
		if firstErr != nil {
			return result, fmt.Errorf("no notes created for order %d: %w", orderID, firstErr)
		}
		return result, ErrNoValidRows
	}

	err = s.store.Mutate(ctx, func(tx *Tx) error {
		o, err := tx.Order(orderID)
		if err != nil {
			return err
		}
		processedAt := s.now().UTC()
		o.Status = models.OrderStatusProcessed
		o.ProcessedAt = &processedAt
		o.NoteIDs = append(o.NoteIDs, result.NoteIDs...)
		return nil
	})
	if err != nil {
		return result, err
	}

	log.Info().Int("order_id", orderID).Ints("note_ids", result.NoteIDs).Int("failures", len(result.Failures)).Msg("Order fanned out")
	return result, nil
}

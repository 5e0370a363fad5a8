package models

import "time"

// OrderStatus tracks whether an order was fanned out into notes
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusProcessed OrderStatus = "processed"
)

// Order is a purchase/distribution request spanning several branches
type Order struct {
	ID          int         `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Date        string      `gorm:"size:10;not null" json:"date"`
	Origin      string      `gorm:"size:255" json:"origin"`
	Rows        []OrderRow  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"rows"`
	Status      OrderStatus `gorm:"size:20;not null;index" json:"status"`
	NoteIDs     IntList     `gorm:"type:text" json:"note_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
}

// TableName specifies the table name for Order model
func (Order) TableName() string {
	return "orders"
}

// OrderRow is one article of an order with its per-branch allocation
type OrderRow struct {
	OrderID     int              `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Position    int              `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ProductID   *int             `json:"product_id,omitempty"`
	Description string           `gorm:"size:255;not null" json:"description"`
	PerBranch   BranchQuantities `gorm:"type:text" json:"per_branch"`
}

// TableName specifies the table name for OrderRow model
func (OrderRow) TableName() string {
	return "order_rows"
}

// Clone returns a copy that shares no memory with o
func (o Order) Clone() Order {
	rows := make([]OrderRow, len(o.Rows))
	for i, r := range o.Rows {
		if r.ProductID != nil {
			id := *r.ProductID
			r.ProductID = &id
		}
		perBranch := make(BranchQuantities, len(r.PerBranch))
		for k, v := range r.PerBranch {
			perBranch[k] = v
		}
		r.PerBranch = perBranch
		rows[i] = r
	}
	o.Rows = rows
	noteIDs := make(IntList, len(o.NoteIDs))
	copy(noteIDs, o.NoteIDs)
	o.NoteIDs = noteIDs
	if o.ProcessedAt != nil {
		processedAt := *o.ProcessedAt
		o.ProcessedAt = &processedAt
	}
	return o
}

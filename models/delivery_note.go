package models

import "time"

// NoteStatus is the reconciliation state of a delivery note
type NoteStatus string

const (
	NoteStatusPending     NoteStatus = "pending"
	NoteStatusOK          NoteStatus = "ok"
	NoteStatusDiscrepancy NoteStatus = "discrepancy"
)

// NoteResolution records an explicit close action
type NoteResolution string

const (
	NoteResolutionNone        NoteResolution = ""
	NoteResolutionOK          NoteResolution = "ok"
	NoteResolutionDiscrepancy NoteResolution = "discrepancy"
)

// DeliveryNote is a shipment from the origin to a single branch
type DeliveryNote struct {
	ID          int            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Number      int            `gorm:"not null;uniqueIndex" json:"number"`
	Date        string         `gorm:"size:10;not null" json:"date"`
	Origin      string         `gorm:"size:255" json:"origin"`
	Destination BranchSnapshot `gorm:"embedded;embeddedPrefix:branch_" json:"branch"`
	Items       []LineItem     `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"items"`
	Status      NoteStatus     `gorm:"size:20;not null;index" json:"status"`
	Resolution  NoteResolution `gorm:"size:20" json:"resolution,omitempty"`
	Comment     string         `gorm:"type:text" json:"note"`
	PublicToken string         `gorm:"size:36;uniqueIndex" json:"public_token"`
	DocumentKey string         `gorm:"size:255" json:"document_key"`
	DocumentURL string         `gorm:"size:512" json:"pdf"`
	CreatedAt   time.Time      `json:"created_at"`
	ClosedAt    *time.Time     `json:"closed_at,omitempty"`
}

// TableName specifies the table name for DeliveryNote model
func (DeliveryNote) TableName() string {
	return "delivery_notes"
}

// LineItem is one expected article on a note and how much of it arrived
type LineItem struct {
	NoteID           int    `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Position         int    `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Description      string `gorm:"size:255;not null" json:"description"`
	QuantityExpected int    `gorm:"not null" json:"qty"`
	QuantityReceived int    `gorm:"not null;default:0" json:"received"`
}

// TableName specifies the table name for LineItem model
func (LineItem) TableName() string {
	return "delivery_note_items"
}

// Clone returns a copy that shares no memory with n
func (n DeliveryNote) Clone() DeliveryNote {
	items := make([]LineItem, len(n.Items))
	copy(items, n.Items)
	n.Items = items
	if n.ClosedAt != nil {
		closedAt := *n.ClosedAt
		n.ClosedAt = &closedAt
	}
	return n
}

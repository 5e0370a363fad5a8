package models

// Branch is a shipping destination
type Branch struct {
	ID      int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name    string `gorm:"size:100;not null" json:"name"`
	Address string `gorm:"size:255" json:"address"`
	Phone   string `gorm:"size:50" json:"phone"`
}

// TableName specifies the table name for Branch model
func (Branch) TableName() string {
	return "branches"
}

// Snapshot returns the denormalized copy stored on a delivery note
func (b Branch) Snapshot() BranchSnapshot {
	return BranchSnapshot{
		ID:      b.ID,
		Name:    b.Name,
		Address: b.Address,
		Phone:   b.Phone,
	}
}

// BranchSnapshot is the destination as it was when a note was created.
// It is never updated when the branch changes.
type BranchSnapshot struct {
	ID      int    `json:"id"`
	Name    string `gorm:"size:100" json:"name"`
	Address string `gorm:"size:255" json:"address"`
	Phone   string `gorm:"size:50" json:"phone"`
}

package models

// Counter sequence names
const (
	CounterNoteNumber = "note-number"
	CounterOrderID    = "order-id"
)

// Counter is a persisted monotonically increasing sequence
type Counter struct {
	Name  string `gorm:"primaryKey;size:50" json:"name"`
	Value int    `gorm:"not null" json:"value"`
}

// TableName specifies the table name for Counter model
func (Counter) TableName() string {
	return "counters"
}

// Snapshot is the whole persisted state, loaded and saved as one unit
type Snapshot struct {
	Branches []Branch       `json:"branches"`
	Products []Product      `json:"products"`
	Notes    []DeliveryNote `json:"notes"`
	Orders   []Order        `json:"orders"`
	Counters map[string]int `json:"counters"`
}

// NewSnapshot returns an empty state with the note-number counter at seed
func NewSnapshot(noteNumberSeed int) *Snapshot {
	return &Snapshot{
		Branches: []Branch{},
		Products: []Product{},
		Notes:    []DeliveryNote{},
		Orders:   []Order{},
		Counters: map[string]int{
			CounterNoteNumber: noteNumberSeed,
			CounterOrderID:    0,
		},
	}
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Branches: make([]Branch, len(s.Branches)),
		Products: make([]Product, len(s.Products)),
		Notes:    make([]DeliveryNote, len(s.Notes)),
		Orders:   make([]Order, len(s.Orders)),
		Counters: make(map[string]int, len(s.Counters)),
	}
	copy(c.Branches, s.Branches)
	for i, p := range s.Products {
		c.Products[i] = p.Clone()
	}
	for i, n := range s.Notes {
		c.Notes[i] = n.Clone()
	}
	for i, o := range s.Orders {
		c.Orders[i] = o.Clone()
	}
	for k, v := range s.Counters {
		c.Counters[k] = v
	}
	return c
}

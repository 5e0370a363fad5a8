package models

// MaxCodesPerProduct caps how many catalog codes a product can hold
const MaxCodesPerProduct = 3

// Product is a catalog entry. Its description is the join key against
// delivery note line items; each code belongs to at most one product.
type Product struct {
	ID          int        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Description string     `gorm:"size:255;not null" json:"description"`
	Codes       StringList `gorm:"type:text" json:"codes"`
}

// TableName specifies the table name for Product model
func (Product) TableName() string {
	return "products"
}

// HasCode reports whether code is linked to the product
func (p Product) HasCode(code string) bool {
	for _, c := range p.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with p
func (p Product) Clone() Product {
	codes := make(StringList, len(p.Codes))
	copy(codes, p.Codes)
	p.Codes = codes
	return p
}

package services

import (
	"strings"

	"delivery_notes_app_go/models"
)

// CatalogIndex keeps the product list of a snapshot together with its
// lookup structures. The product slice is authoritative; the maps are
// derived from it and never consulted to decide code ownership.
type CatalogIndex struct {
	state *models.Snapshot

	byID          map[int]int    // product id -> position in state.Products
	byCode        map[string]int // code -> product id
	byDescription map[string]int // normalized description -> first product id
	normalized    []string       // normalized description per position
}

// ResolveQuery names a product by id, code or description. When several
// keys are set they are tried in that order and the first hit wins.
type ResolveQuery struct {
	ID          *int
	Code        string
	Description string
}

// NewCatalogIndex builds the lookup structures over state.Products
func NewCatalogIndex(state *models.Snapshot) *CatalogIndex {
	c := &CatalogIndex{state: state}
	c.rebuild()
	return c
}

func (c *CatalogIndex) rebuild() {
	products := c.state.Products
	c.byID = make(map[int]int, len(products))
	c.byCode = make(map[string]int, len(products))
	c.byDescription = make(map[string]int, len(products))
	c.normalized = make([]string, len(products))
	for i, p := range products {
		c.index(i, p)
	}
}

func (c *CatalogIndex) index(pos int, p models.Product) {
	c.byID[p.ID] = pos
	for _, code := range p.Codes {
		c.byCode[code] = p.ID
	}
	key := NormalizeDescription(p.Description)
	c.normalized[pos] = key
	if _, exists := c.byDescription[key]; !exists {
		c.byDescription[key] = p.ID
	}
}

// Len returns the number of products
func (c *CatalogIndex) Len() int {
	return len(c.state.Products)
}

// Products returns a copy of every product in catalog order
func (c *CatalogIndex) Products() []models.Product {
	out := make([]models.Product, len(c.state.Products))
	for i, p := range c.state.Products {
		out[i] = p.Clone()
	}
	return out
}

// Get returns the product with the given id
func (c *CatalogIndex) Get(id int) (models.Product, bool) {
	pos, ok := c.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return c.state.Products[pos].Clone(), true
}

// ByCode returns the product a code is linked to
func (c *CatalogIndex) ByCode(code string) (models.Product, bool) {
	id, ok := c.byCode[NormalizeCode(code)]
	if !ok {
		return models.Product{}, false
	}
	return c.Get(id)
}

// ByDescription returns the first product whose normalized description matches
func (c *CatalogIndex) ByDescription(description string) (models.Product, bool) {
	key := NormalizeDescription(description)
	if key == "" {
		return models.Product{}, false
	}
	id, ok := c.byDescription[key]
	if !ok {
		return models.Product{}, false
	}
	return c.Get(id)
}

// Resolve looks a product up by id, then code, then normalized description
func (c *CatalogIndex) Resolve(q ResolveQuery) (models.Product, error) {
	if q.ID != nil {
		if p, ok := c.Get(*q.ID); ok {
			return p, nil
		}
	}
	if code := NormalizeCode(q.Code); code != "" {
		if p, ok := c.ByCode(code); ok {
			return p, nil
		}
	}
	if q.Description != "" {
		if p, ok := c.ByDescription(q.Description); ok {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// Search returns up to limit products whose normalized description contains
// the normalized query or whose codes contain the raw query.
func (c *CatalogIndex) Search(query string, limit int) []models.Product {
	raw := strings.TrimSpace(query)
	key := NormalizeDescription(raw)

	results := []models.Product{}
	for i, p := range c.state.Products {
		if len(results) >= limit {
			break
		}
		if raw == "" || strings.Contains(c.normalized[i], key) || codesContain(p.Codes, raw) {
			results = append(results, p.Clone())
		}
	}
	return results
}

func codesContain(codes []string, fragment string) bool {
	for _, code := range codes {
		if strings.Contains(code, fragment) {
			return true
		}
	}
	return false
}

// codeOwner scans the whole catalog for the product holding code
func (c *CatalogIndex) codeOwner(code string) (int, bool) {
	for _, p := range c.state.Products {
		if p.HasCode(code) {
			return p.ID, true
		}
	}
	return 0, false
}

func (c *CatalogIndex) nextID() int {
	max := 0
	for _, p := range c.state.Products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

// Create adds a product with an optional first code
func (c *CatalogIndex) Create(description, code string) (models.Product, error) {
	description = strings.TrimSpace(description)
	code = NormalizeCode(code)
	if description == "" {
		return models.Product{}, ErrEmptyDescription
	}
	if code != "" {
		if _, taken := c.codeOwner(code); taken {
			return models.Product{}, ErrDuplicateCode
		}
	}

	p := models.Product{
		ID:          c.nextID(),
		Description: description,
		Codes:       models.StringList{},
	}
	if code != "" {
		p.Codes = append(p.Codes, code)
	}

	c.state.Products = append(c.state.Products, p)
	c.normalized = append(c.normalized, "")
	c.index(len(c.state.Products)-1, p)
	return p.Clone(), nil
}

// Rename replaces a product's description
func (c *CatalogIndex) Rename(id int, description string) (models.Product, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return models.Product{}, ErrEmptyDescription
	}
	pos, ok := c.byID[id]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}

	c.state.Products[pos].Description = description
	c.rebuild()
	return c.state.Products[pos].Clone(), nil
}

// AddCode links code to a product and returns its updated codes
func (c *CatalogIndex) AddCode(id int, code string) ([]string, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	pos, ok := c.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if len(c.state.Products[pos].Codes) >= models.MaxCodesPerProduct {
		return nil, ErrCodeCapExceeded
	}
	if _, taken := c.codeOwner(code); taken {
		return nil, ErrDuplicateCode
	}

	p := &c.state.Products[pos]
	p.Codes = append(p.Codes, code)
	c.byCode[code] = id
	return p.Clone().Codes, nil
}

// RemoveCode unlinks code from a product and returns its remaining codes
func (c *CatalogIndex) RemoveCode(id int, code string) ([]string, error) {
	code = NormalizeCode(code)
	pos, ok := c.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}

	p := &c.state.Products[pos]
	kept := make(models.StringList, 0, len(p.Codes))
	for _, existing := range p.Codes {
		if existing != code {
			kept = append(kept, existing)
		}
	}
	p.Codes = kept
	if owner, ok := c.byCode[code]; ok && owner == id {
		delete(c.byCode, code)
	}
	return p.Clone().Codes, nil
}

// Delete removes a product and every code linked to it
func (c *CatalogIndex) Delete(id int) error {
	pos, ok := c.byID[id]
	if !ok {
		return ErrProductNotFound
	}

	products := c.state.Products
	c.state.Products = append(products[:pos:pos], products[pos+1:]...)
	c.rebuild()
	return nil
}

package services

import (
	"context"

	"delivery_notes_app_go/models"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// ProductInput is a product as received from callers
type ProductInput struct {
	Description string `json:"description" validate:"required,max=255"`
	Code        string `json:"code" validate:"max=64"`
}

// CatalogService exposes the catalog index through the store
type CatalogService struct {
	store *Store
}

// NewCatalogService creates a catalog service over store
func NewCatalogService(store *Store) *CatalogService {
	return &CatalogService{store: store}
}

// Search returns products matching query. An empty query lists the catalog.
func (s *CatalogService) Search(query string, limit int) []models.Product {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	return s.store.View().SearchProducts(query, limit)
}

// Get returns a product by id
func (s *CatalogService) Get(id int) (models.Product, error) {
	return s.store.View().Product(id)
}

// LookupByCode returns the product a code is linked to
func (s *CatalogService) LookupByCode(code string) (models.Product, error) {
	if NormalizeCode(code) == "" {
		return models.Product{}, ErrEmptyCode
	}
	return s.store.View().ProductByCode(code)
}

// Resolve looks a product up by id, code or description
func (s *CatalogService) Resolve(q ResolveQuery) (models.Product, error) {
	return s.store.View().ResolveProduct(q)
}

// Create adds a product with an optional first code
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	var created models.Product
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		p, err := tx.Catalog.Create(in.Description, in.Code)
		created = p
		return err
	})
	if err != nil {
		return models.Product{}, err
	}
	return created, nil
}

// Rename replaces a product's description
func (s *CatalogService) Rename(ctx context.Context, id int, description string) (models.Product, error) {
	var renamed models.Product
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		p, err := tx.Catalog.Rename(id, description)
		renamed = p
		return err
	})
	if err != nil {
		return models.Product{}, err
	}
	return renamed, nil
}

// AddCode links a code to a product
func (s *CatalogService) AddCode(ctx context.Context, id int, code string) ([]string, error) {
	var codes []string
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		c, err := tx.Catalog.AddCode(id, code)
		codes = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// RemoveCode unlinks a code from a product
func (s *CatalogService) RemoveCode(ctx context.Context, id int, code string) ([]string, error) {
	var codes []string
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		c, err := tx.Catalog.RemoveCode(id, code)
		codes = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// Delete removes a product and its codes
func (s *CatalogService) Delete(ctx context.Context, id int) error {
	return s.store.Mutate(ctx, func(tx *Tx) error {
		return tx.Catalog.Delete(id)
	})
}

package services

import (
	"context"
	"strings"

	"delivery_notes_app_go/models"

	"github.com/rs/zerolog/log"
)

// BranchInput is a branch as received from callers. A nil Phone means
// "not given": empty on add, unchanged on update.
type BranchInput struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Address string  `json:"address" validate:"max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
}

// DefaultBranches are installed by Seed on an empty directory
var DefaultBranches = []models.Branch{
	{ID: 1, Name: "Adrogué", Address: "Av. Hipólito Yrigoyen 13298, Adrogué"},
	{ID: 2, Name: "Avellaneda Local", Address: "Güemes 897, Alto Avellaneda, Avellaneda"},
	{ID: 3, Name: "Avellaneda Stand", Address: "Güemes 897, Alto Avellaneda (Stand), Avellaneda"},
	{ID: 4, Name: "Banfield Outlet", Address: "Av. Larroque, Banfield"},
	{ID: 5, Name: "Brown", Address: "Av. Fernández de la Cruz 4602, Factory Parque Brown, CABA"},
	{ID: 6, Name: "Lomas", Address: "Av. Antártida Argentina 799, Portal Lomas, Lomas de Zamora"},
	{ID: 7, Name: "Martínez Local", Address: "Paraná 3745, Unicenter, Martínez"},
	{ID: 8, Name: "Martínez Stand", Address: "Paraná 3745, Unicenter (Stand), Martínez"},
	{ID: 9, Name: "Plaza Oeste", Address: "Av. Vergara, Morón"},
	{ID: 10, Name: "Abasto", Address: "Av. Corrientes 3247, CABA"},
}

// BranchService is the directory of shipping destinations
type BranchService struct {
	store *Store
}

// NewBranchService creates a branch service over store
func NewBranchService(store *Store) *BranchService {
	return &BranchService{store: store}
}

// List returns every branch ordered by id
func (s *BranchService) List() []models.Branch {
	return s.store.View().Branches()
}

// Get returns a branch by id
func (s *BranchService) Get(id int) (models.Branch, error) {
	return s.store.View().Branch(id)
}

// Add creates a branch with the next sequential id
func (s *BranchService) Add(ctx context.Context, in BranchInput) (models.Branch, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Branch{}, ErrEmptyName
	}

	var created models.Branch
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		maxID := 0
		for _, b := range tx.State.Branches {
			if b.ID > maxID {
				maxID = b.ID
			}
		}
		created = models.Branch{
			ID:      maxID + 1,
			Name:    name,
			Address: strings.TrimSpace(in.Address),
			Phone:   trimOptional(in.Phone, ""),
		}
		tx.State.Branches = append(tx.State.Branches, created)
		return nil
	})
	if err != nil {
		return models.Branch{}, err
	}
	return created, nil
}

// Update replaces a branch's fields. Notes keep the copy they were created with.
func (s *BranchService) Update(ctx context.Context, id int, in BranchInput) (models.Branch, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Branch{}, ErrEmptyName
	}

	var updated models.Branch
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		b, err := tx.Branch(id)
		if err != nil {
			return err
		}
		b.Name = name
		b.Address = strings.TrimSpace(in.Address)
		b.Phone = trimOptional(in.Phone, b.Phone)
		updated = *b
		return nil
	})
	if err != nil {
		return models.Branch{}, err
	}
	return updated, nil
}

// Delete removes a branch. Existing notes are not touched.
func (s *BranchService) Delete(ctx context.Context, id int) error {
	return s.store.Mutate(ctx, func(tx *Tx) error {
		if _, err := tx.Branch(id); err != nil {
			return err
		}
		kept := tx.State.Branches[:0]
		for _, b := range tx.State.Branches {
			if b.ID != id {
				kept = append(kept, b)
			}
		}
		tx.State.Branches = kept
		return nil
	})
}

// Seed installs DefaultBranches when the directory is empty and returns how
// many branches were created.
func (s *BranchService) Seed(ctx context.Context) (int, error) {
	created := 0
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		if len(tx.State.Branches) > 0 {
			return nil
		}
		tx.State.Branches = append(tx.State.Branches, DefaultBranches...)
		created = len(DefaultBranches)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created == 0 {
		log.Info().Msg("Branch directory already populated, seed skipped")
	} else {
		log.Info().Int("count", created).Msg("Default branches seeded")
	}
	return created, nil
}

func trimOptional(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return strings.TrimSpace(*value)
}

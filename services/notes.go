package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"delivery_notes_app_go/models"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
)

// Close actions
const (
	CloseActionOK          = "ok"
	CloseActionDiscrepancy = "discrepancy"
)

// NoteItemInput is one requested line of a new note
type NoteItemInput struct {
	Description string `json:"description" validate:"required,max=255"`
	Quantity    int    `json:"qty" validate:"gte=0"`
}

// NoteInput is a note creation request. Empty Origin and Date are defaulted.
type NoteInput struct {
	BranchID int             `json:"branch_id" validate:"required,gt=0"`
	Origin   string          `json:"origin" validate:"max=255"`
	Date     string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Items    []NoteItemInput `json:"items" validate:"required,min=1,dive"`
}

// NoteReceipt identifies a freshly created note
type NoteReceipt struct {
	ID          int               `json:"id"`
	Number      int               `json:"number"`
	DocumentURL string            `json:"pdf"`
	PublicURL   string            `json:"public_url"`
	Status      models.NoteStatus `json:"status"`
}

// ScanResult is the line touched by a scan or override and the note's new status
type ScanResult struct {
	Index  int               `json:"index"`
	Item   models.LineItem   `json:"item"`
	Status models.NoteStatus `json:"status"`
}

// NoteFilter narrows List. Zero values match everything.
type NoteFilter struct {
	Status   models.NoteStatus
	BranchID int
}

// NoteServiceConfig holds the defaults and collaborators' settings
type NoteServiceConfig struct {
	DefaultOrigin string
	Location      *time.Location
	NotifyEmail   string
	AppURL        string
}

// NoteService owns the delivery note lifecycle
type NoteService struct {
	store     *Store
	documents *DocumentPublisher
	mailer    Mailer
	cfg       NoteServiceConfig
	sanitizer *bluemonday.Policy
	now       func() time.Time

	// note id -> *sync.Mutex held while that note's document is published
	publishing sync.Map
}

// NewNoteService creates a note service. documents and mailer may be nil,
// which disables rendering and notifications.
func NewNoteService(store *Store, documents *DocumentPublisher, mailer Mailer, cfg NoteServiceConfig) *NoteService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &NoteService{
		store:     store,
		documents: documents,
		mailer:    mailer,
		cfg:       cfg,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// PublicPath is the receipt link of a note
func PublicPath(token string) string {
	return "/r/" + token
}

func (s *NoteService) today() string {
	return s.now().In(s.cfg.Location).Format("2006-01-02")
}

// validateNoteInput checks everything that does not need the state
func validateNoteInput(in NoteInput) error {
	if len(in.Items) == 0 {
		return ErrEmptyItems
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.Description) == "" {
			return ErrEmptyDescription
		}
		if item.Quantity < 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// Create registers a note for one branch and renders its document
func (s *NoteService) Create(ctx context.Context, in NoteInput) (NoteReceipt, error) {
	if err := validateNoteInput(in); err != nil {
		return NoteReceipt{}, err
	}

	var note models.DeliveryNote
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		created, err := s.createInTx(tx, in)
		note = created
		return err
	})
	if err != nil {
		return NoteReceipt{}, err
	}

	s.publishDocument(ctx, note.ID)

	return NoteReceipt{
		ID:          note.ID,
		Number:      note.Number,
		DocumentURL: note.DocumentURL,
		PublicURL:   PublicPath(note.PublicToken),
		Status:      note.Status,
	}, nil
}

// createInTx adds the note to the working state. The note number is drawn
// only after every check has passed.
func (s *NoteService) createInTx(tx *Tx, in NoteInput) (models.DeliveryNote, error) {
	branch, err := tx.Branch(in.BranchID)
	if err != nil {
		return models.DeliveryNote{}, err
	}

	origin := strings.TrimSpace(in.Origin)
	if origin == "" {
		origin = s.cfg.DefaultOrigin
	}
	date, err := resolveDate(in.Date, s.today)
	if err != nil {
		return models.DeliveryNote{}, err
	}

	items := make([]models.LineItem, len(in.Items))
	for i, item := range in.Items {
		items[i] = models.LineItem{
			Position:         i,
			Description:      strings.TrimSpace(item.Description),
			QuantityExpected: item.Quantity,
		}
	}

	maxID := 0
	for _, n := range tx.State.Notes {
		if n.ID > maxID {
			maxID = n.ID
		}
	}

	number := tx.NextCounter(models.CounterNoteNumber)
	note := models.DeliveryNote{
		ID:          maxID + 1,
		Number:      number,
		Date:        date,
		Origin:      origin,
		Destination: branch.Snapshot(),
		Items:       items,
		PublicToken: uuid.New().String(),
		CreatedAt:   s.now().UTC(),
	}
	note.Status = EffectiveStatus(note)
	if s.documents != nil {
		note.DocumentKey = GenerateNoteDocumentKey(number)
		note.DocumentURL = s.documents.URL(note.DocumentKey)
	}

	tx.State.Notes = append(tx.State.Notes, note)
	return note.Clone(), nil
}

// publishDocument renders outside the mutation boundary. A failure leaves
// the note without a stored document until it is regenerated.
func (s *NoteService) publishDocument(ctx context.Context, noteID int) {
	if s.documents == nil {
		return
	}
	if _, err := s.publishLatest(ctx, noteID); err != nil {
		log.Error().Err(err).Int("note_id", noteID).Msg("Failed to publish note document")
	}
}

// publishLatest renders the note as currently published. Publishes of one
// note run one at a time and each reads the note under the lock, so an
// older render never replaces a newer one.
func (s *NoteService) publishLatest(ctx context.Context, noteID int) (models.DeliveryNote, error) {
	lock, _ := s.publishing.LoadOrStore(noteID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	note, err := s.Get(noteID)
	if err != nil {
		return models.DeliveryNote{}, err
	}
	if _, err := s.documents.Publish(ctx, note); err != nil {
		return models.DeliveryNote{}, err
	}
	return note, nil
}

// cleanComment strips markup from a free-text comment and keeps the text
// itself verbatim. Escaping is left to whatever renders it.
func (s *NoteService) cleanComment(comment string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(comment)))
}

// Get returns a note by id
func (s *NoteService) Get(id int) (models.DeliveryNote, error) {
	return s.store.View().Note(id)
}

// GetByToken returns the note behind a public receipt link
func (s *NoteService) GetByToken(token string) (models.DeliveryNote, error) {
	return s.store.View().NoteByToken(token)
}

// List returns notes matching filter, newest first
func (s *NoteService) List(filter NoteFilter) []models.DeliveryNote {
	notes := s.store.View().Notes()
	filtered := notes[:0]
	for _, n := range notes {
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.BranchID != 0 && n.Destination.ID != filter.BranchID {
			continue
		}
		filtered = append(filtered, n)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID > filtered[j].ID })
	return filtered
}

// Open returns notes not yet reconciled that were created before cutoff
func (s *NoteService) Open(cutoff time.Time) []models.DeliveryNote {
	var open []models.DeliveryNote
	for _, n := range s.store.View().Notes() {
		if n.Status == models.NoteStatusOK || !n.CreatedAt.Before(cutoff) {
			continue
		}
		open = append(open, n)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Number < open[j].Number })
	return open
}

// Scan records one received unit of the product code resolves to
func (s *NoteService) Scan(ctx context.Context, noteID int, code string) (ScanResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return ScanResult{}, ErrEmptyCode
	}

	var result ScanResult
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		note, err := tx.Note(noteID)
		if err != nil {
			return err
		}

		product, ok := tx.Catalog.ByCode(code)
		if !ok {
			return ErrUnknownCode
		}

		idx := matchLine(note.Items, product.Description)
		if idx < 0 {
			return ErrNotInNote
		}

		item := &note.Items[idx]
		if item.QuantityReceived < item.QuantityExpected {
			item.QuantityReceived++
		}
		note.Status = EffectiveStatus(*note)

		result = ScanResult{Index: idx, Item: *item, Status: note.Status}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownCode) || errors.Is(err, ErrNotInNote) {
			log.Info().Int("note_id", noteID).Str("code", code).Str("reason", Reason(err)).Msg("Scan rejected")
		}
		return ScanResult{}, err
	}
	return result, nil
}

// matchLine returns the first line whose normalized description equals the
// product's, or -1.
func matchLine(items []models.LineItem, description string) int {
	key := NormalizeDescription(description)
	for i, item := range items {
		if NormalizeDescription(item.Description) == key {
			return i
		}
	}
	return -1
}

// SetReceived overrides a line's received quantity without clamping
func (s *NoteService) SetReceived(ctx context.Context, noteID, index, value int) (ScanResult, error) {
	if value < 0 {
		return ScanResult{}, ErrInvalidQuantity
	}

	var result ScanResult
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		note, err := tx.Note(noteID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(note.Items) {
			return ErrInvalidIndex
		}

		note.Items[index].QuantityReceived = value
		note.Status = EffectiveStatus(*note)

		result = ScanResult{Index: index, Item: note.Items[index], Status: note.Status}
		return nil
	})
	if err != nil {
		return ScanResult{}, err
	}
	return result, nil
}

// Close finalizes a note. ok requires every line to match and clears the
// comment; discrepancy stores the comment and pins the status.
func (s *NoteService) Close(ctx context.Context, noteID int, action, comment string) (models.DeliveryNote, error) {
	var closed models.DeliveryNote
	err := s.store.Mutate(ctx, func(tx *Tx) error {
		note, err := tx.Note(noteID)
		if err != nil {
			return err
		}

		switch action {
		case CloseActionOK:
			if !fullyMatched(note.Items) {
				return ErrNotFullyMatched
			}
			note.Resolution = models.NoteResolutionOK
			note.Comment = ""
		case CloseActionDiscrepancy:
			note.Resolution = models.NoteResolutionDiscrepancy
			note.Comment = s.cleanComment(comment)
		default:
			return ErrInvalidAction
		}

		closedAt := s.now().UTC()
		note.ClosedAt = &closedAt
		note.Status = EffectiveStatus(*note)
		closed = note.Clone()
		return nil
	})
	if err != nil {
		return models.DeliveryNote{}, err
	}

	s.publishDocument(ctx, closed.ID)

	if action == CloseActionDiscrepancy {
		s.notifyDiscrepancy(closed)
	}
	return closed, nil
}

func (s *NoteService) notifyDiscrepancy(note models.DeliveryNote) {
	if s.mailer == nil || s.cfg.NotifyEmail == "" {
		return
	}
	link := ""
	if s.cfg.AppURL != "" {
		link = strings.TrimSuffix(s.cfg.AppURL, "/") + PublicPath(note.PublicToken)
	}
	SendEmailAsync(s.mailer, BuildDiscrepancyEmail(s.cfg.NotifyEmail, note, link))
}

// RegenerateDocument renders a note's document again, assigning a storage
// key first when the note never had one.
func (s *NoteService) RegenerateDocument(ctx context.Context, noteID int) (models.DeliveryNote, error) {
	if s.documents == nil {
		return models.DeliveryNote{}, fmt.Errorf("document rendering is not configured")
	}

	note, err := s.Get(noteID)
	if err != nil {
		return models.DeliveryNote{}, err
	}

	if note.DocumentKey == "" {
		err := s.store.Mutate(ctx, func(tx *Tx) error {
			n, err := tx.Note(noteID)
			if err != nil {
				return err
			}
			n.DocumentKey = GenerateNoteDocumentKey(n.Number)
			n.DocumentURL = s.documents.URL(n.DocumentKey)
			note = n.Clone()
			return nil
		})
		if err != nil {
			return models.DeliveryNote{}, err
		}
	}

	note, err = s.publishLatest(ctx, noteID)
	if err != nil {
		return models.DeliveryNote{}, err
	}
	log.Info().Int("note_id", note.ID).Str("key", note.DocumentKey).Msg("Note document regenerated")
	return note, nil
}

package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"delivery_notes_app_go/models"
	"delivery_notes_app_go/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// htmlRenderer stores the HTML page instead of printing it
type htmlRenderer struct {
	calls int
	fail  bool
}

func (r *htmlRenderer) Render(ctx context.Context, note models.DeliveryNote) ([]byte, error) {
	r.calls++
	if r.fail {
		return nil, errors.New("renderer down")
	}
	html, err := RenderNoteHTML(ctx, templates.Company{Name: "Test SA"}, note, false)
	return []byte(html), err
}

func (r *htmlRenderer) ContentType() string { return "text/html; charset=utf-8" }

var testBranches = []models.Branch{
	{ID: 1, Name: "Adrogué", Address: "Av. Hipólito Yrigoyen 13298"},
	{ID: 2, Name: "Lomas", Address: "Av. Antártida Argentina 799"},
}

func setupNoteTest(t *testing.T, products ...models.Product) (*Store, *NoteService) {
	store := setupStoreTestDB(t)
	seedStore(t, store, testBranches, products)
	return store, newTestNoteService(store)
}

func createShirtNote(t *testing.T, notes *NoteService) NoteReceipt {
	receipt, err := notes.Create(context.Background(), NoteInput{
		BranchID: 1,
		Items:    []NoteItemInput{{Description: "Shirt", Quantity: 10}},
	})
	require.NoError(t, err)
	return receipt
}

func TestNoteCreate(t *testing.T) {
	store, notes := setupNoteTest(t)
	ctx := context.Background()

	receipt, err := notes.Create(ctx, NoteInput{
		BranchID: 2,
		Items: []NoteItemInput{
			{Description: " Remera Azul ", Quantity: 3},
			{Description: "Cable", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.ID)
	assert.Equal(t, 3805, receipt.Number)
	assert.Equal(t, models.NoteStatusPending, receipt.Status)
	assert.Equal(t, "/r/", receipt.PublicURL[:3])

	note, err := notes.Get(receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Depósito Central", note.Origin)
	assert.Equal(t, "2024-03-15", note.Date)
	assert.Equal(t, "Lomas", note.Destination.Name)
	assert.Equal(t, "Remera Azul", note.Items[0].Description)
	assert.Zero(t, note.Items[0].QuantityReceived)
	assert.Empty(t, note.DocumentKey, "no renderer configured")

	byToken, err := notes.GetByToken(note.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, note.ID, byToken.ID)

	second := createShirtNote(t, notes)
	assert.Equal(t, 3806, second.Number)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, 3806, store.View().Counter(models.CounterNoteNumber))
}

func TestNoteCreateBranchSnapshotIsFrozen(t *testing.T) {
	store, notes := setupNoteTest(t)
	receipt := createShirtNote(t, notes)

	_, err := NewBranchService(store).Update(context.Background(), 1, BranchInput{Name: "Adrogué Centro", Address: "Otra 1"})
	require.NoError(t, err)

	note, err := notes.Get(receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Adrogué", note.Destination.Name)
}

func TestNoteCreateValidation(t *testing.T) {
	store, notes := setupNoteTest(t)
	ctx := context.Background()

	_, err := notes.Create(ctx, NoteInput{BranchID: 1})
	assert.ErrorIs(t, err, ErrEmptyItems)

	_, err = notes.Create(ctx, NoteInput{BranchID: 1, Items: []NoteItemInput{{Description: " ", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrEmptyDescription)

	_, err = notes.Create(ctx, NoteInput{BranchID: 1, Items: []NoteItemInput{{Description: "x", Quantity: -1}}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = notes.Create(ctx, NoteInput{BranchID: 99, Items: []NoteItemInput{{Description: "x", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrBranchNotFound)

	_, err = notes.Create(ctx, NoteInput{BranchID: 1, Date: "15/03/2024", Items: []NoteItemInput{{Description: "x", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrInvalidDate)

	// No number is drawn for rejected notes
	assert.Equal(t, 3804, store.View().Counter(models.CounterNoteNumber))
	assert.Empty(t, notes.List(NoteFilter{}))
}

func TestNoteShirtScenario(t *testing.T) {
	_, notes := setupNoteTest(t, models.Product{ID: 1, Description: "shirt", Codes: models.StringList{"779001"}})
	ctx := context.Background()
	receipt := createShirtNote(t, notes)

	var result ScanResult
	var err error
	for i := 0; i < 4; i++ {
		result, err = notes.Scan(ctx, receipt.ID, "779001")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, result.Index)
	assert.Equal(t, 4, result.Item.QuantityReceived)
	assert.Equal(t, models.NoteStatusPending, result.Status)

	_, err = notes.Close(ctx, receipt.ID, CloseActionOK, "")
	assert.ErrorIs(t, err, ErrNotFullyMatched)
	assert.Equal(t, "not_fully_matched", Reason(err))

	result, err = notes.SetReceived(ctx, receipt.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Item.QuantityReceived)
	assert.Equal(t, models.NoteStatusOK, result.Status)

	closed, err := notes.Close(ctx, receipt.ID, CloseActionOK, "ignored")
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusOK, closed.Status)
	assert.Empty(t, closed.Comment)
	assert.NotNil(t, closed.ClosedAt)
}

func TestNoteScanClampsAtExpected(t *testing.T) {
	_, notes := setupNoteTest(t, models.Product{ID: 1, Description: "Shirt", Codes: models.StringList{"A"}})
	ctx := context.Background()
	receipt, err := notes.Create(ctx, NoteInput{BranchID: 1, Items: []NoteItemInput{{Description: "SHIRT", Quantity: 2}}})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := notes.Scan(ctx, receipt.ID, " A ")
		require.NoError(t, err)
	}

	note, _ := notes.Get(receipt.ID)
	assert.Equal(t, 2, note.Items[0].QuantityReceived)
	assert.Equal(t, models.NoteStatusOK, note.Status)
}

func TestNoteScanFirstMatchingLine(t *testing.T) {
	_, notes := setupNoteTest(t, models.Product{ID: 1, Description: "Cámara", Codes: models.StringList{"C1"}})
	ctx := context.Background()
	receipt, err := notes.Create(ctx, NoteInput{BranchID: 1, Items: []NoteItemInput{
		{Description: "Lente", Quantity: 1},
		{Description: "camara", Quantity: 1},
		{Description: "CAMARA", Quantity: 4},
	}})
	require.NoError(t, err)

	result, err := notes.Scan(ctx, receipt.ID, "C1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Index)

	// The first match is used even once it is full
	result, err = notes.Scan(ctx, receipt.ID, "C1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Index)
	assert.Equal(t, 1, result.Item.QuantityReceived)

	note, _ := notes.Get(receipt.ID)
	assert.Zero(t, note.Items[2].QuantityReceived)
}

func TestNoteScanRejections(t *testing.T) {
	_, notes := setupNoteTest(t,
		models.Product{ID: 1, Description: "Shirt", Codes: models.StringList{"A"}},
		models.Product{ID: 2, Description: "Pants", Codes: models.StringList{"B"}},
	)
	ctx := context.Background()
	receipt := createShirtNote(t, notes)
	before, _ := notes.Get(receipt.ID)

	_, err := notes.Scan(ctx, receipt.ID, "B")
	assert.ErrorIs(t, err, ErrNotInNote)
	assert.Equal(t, "not_in_note", Reason(err))

	_, err = notes.Scan(ctx, receipt.ID, "ZZZ")
	assert.ErrorIs(t, err, ErrUnknownCode)
	assert.Equal(t, "unknown_code", Reason(err))

	_, err = notes.Scan(ctx, receipt.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyCode)

	_, err = notes.Scan(ctx, 404, "A")
	assert.ErrorIs(t, err, ErrNoteNotFound)

	after, _ := notes.Get(receipt.ID)
	assert.Equal(t, before.Items, after.Items)
}

func TestNoteSetReceived(t *testing.T) {
	_, notes := setupNoteTest(t)
	ctx := context.Background()
	receipt, err := notes.Create(ctx, NoteInput{BranchID: 1, Items: []NoteItemInput{
		{Description: "Shirt", Quantity: 2},
		{Description: "Pants", Quantity: 1},
	}})
	require.NoError(t, err)

	result, err := notes.SetReceived(ctx, receipt.ID, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Item.QuantityReceived)
	assert.Equal(t, models.NoteStatusDiscrepancy, result.Status)

	_, err = notes.SetReceived(ctx, receipt.ID, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = notes.SetReceived(ctx, receipt.ID, -1, 1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = notes.SetReceived(ctx, receipt.ID, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestNoteCloseDiscrepancy(t *testing.T) {
	_, notes := setupNoteTest(t, models.Product{ID: 1, Description: "Shirt", Codes: models.StringList{"A"}})
	ctx := context.Background()
	receipt := createShirtNote(t, notes)

	closed, err := notes.Close(ctx, receipt.ID, CloseActionDiscrepancy, `faltan <script>alert(1)</script>6 <b>unidades</b>`)
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusDiscrepancy, closed.Status)
	assert.Equal(t, "faltan 6 unidades", closed.Comment)

	// The closed status holds while quantities change
	result, err := notes.SetReceived(ctx, receipt.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusDiscrepancy, result.Status)

	closed, err = notes.Close(ctx, receipt.ID, CloseActionOK, "")
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusOK, closed.Status)
	assert.Empty(t, closed.Comment)

	_, err = notes.Close(ctx, receipt.ID, "maybe", "")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.ErrorIs(t, err, ErrState)
}

func TestNoteCloseDiscrepancyKeepsCommentText(t *testing.T) {
	_, notes := setupNoteTest(t)
	ctx := context.Background()
	receipt := createShirtNote(t, notes)

	comment := `Faltan 2 cajas & "cables" de O'Higgins; 3 < 5`
	closed, err := notes.Close(ctx, receipt.ID, CloseActionDiscrepancy, "  "+comment+"\n")
	require.NoError(t, err)
	assert.Equal(t, comment, closed.Comment)

	stored, err := notes.Get(receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, comment, stored.Comment)

	page, err := RenderNoteHTML(ctx, templates.Company{Name: "Test SA"}, stored, false)
	require.NoError(t, err)
	assert.Contains(t, page, "Faltan 2 cajas &amp; &#34;cables&#34; de O&#39;Higgins; 3 &lt; 5")
	assert.NotContains(t, page, "&amp;amp;")
}

func TestNoteCreateWithZeroQuantitiesIsMatched(t *testing.T) {
	_, notes := setupNoteTest(t)
	ctx := context.Background()

	receipt, err := notes.Create(ctx, NoteInput{
		BranchID: 1,
		Items:    []NoteItemInput{{Description: "Muestra", Quantity: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusOK, receipt.Status)

	closed, err := notes.Close(ctx, receipt.ID, CloseActionOK, "")
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusOK, closed.Status)
}

func TestNoteCloseDiscrepancySendsEmail(t *testing.T) {
	store := setupStoreTestDB(t)
	seedStore(t, store, testBranches, nil)

	mailer := new(MockMailer)
	sent := make(chan *Email, 1)
	mailer.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent <- args.Get(1).(*Email)
	}).Return(nil)

	notes := NewNoteService(store, nil, mailer, NoteServiceConfig{NotifyEmail: "ops@example.com", AppURL: "https://remitos.test/"})
	receipt := createShirtNote(t, notes)

	_, err := notes.Close(context.Background(), receipt.ID, CloseActionDiscrepancy, "llegaron rotas")
	require.NoError(t, err)

	select {
	case email := <-sent:
		assert.Equal(t, []string{"ops@example.com"}, email.To)
		assert.Contains(t, email.TextBody, "llegaron rotas")
		assert.Contains(t, email.TextBody, "https://remitos.test/r/")
		assert.Contains(t, email.HTMLBody, "Shirt")
	case <-time.After(2 * time.Second):
		t.Fatal("discrepancy email was not sent")
	}
}

func TestNoteListAndOpen(t *testing.T) {
	_, notes := setupNoteTest(t)
	ctx := context.Background()

	first := createShirtNote(t, notes)
	second, err := notes.Create(ctx, NoteInput{BranchID: 2, Items: []NoteItemInput{{Description: "x", Quantity: 1}}})
	require.NoError(t, err)
	_, err = notes.SetReceived(ctx, second.ID, 0, 1)
	require.NoError(t, err)

	all := notes.List(NoteFilter{})
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	pending := notes.List(NoteFilter{Status: models.NoteStatusPending})
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	assert.Len(t, notes.List(NoteFilter{BranchID: 2}), 1)
	assert.Empty(t, notes.List(NoteFilter{BranchID: 2, Status: models.NoteStatusPending}))

	open := notes.Open(fixedClock()().Add(time.Hour))
	require.Len(t, open, 1)
	assert.Equal(t, first.ID, open[0].ID)
	assert.Empty(t, notes.Open(fixedClock()().Add(-time.Hour)))
}

func TestNotePersistenceFailureSpendsNumber(t *testing.T) {
	persist := new(MockSnapshotStore)
	persist.On("Load", mock.Anything).Return(nil, nil)
	persist.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	persist.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	persist.On("Save", mock.Anything, mock.Anything).Return(nil)

	store, err := NewStore(context.Background(), persist, 3804)
	require.NoError(t, err)
	seedStore(t, store, testBranches, nil)
	notes := newTestNoteService(store)

	_, err = notes.Create(context.Background(), NoteInput{BranchID: 1, Items: []NoteItemInput{{Description: "x", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, notes.List(NoteFilter{}))

	receipt := createShirtNote(t, notes)
	assert.Equal(t, 3806, receipt.Number, "3805 stays spent")
}

func TestNoteDocumentPublishing(t *testing.T) {
	store := setupStoreTestDB(t)
	seedStore(t, store, testBranches, nil)

	dir := t.TempDir()
	renderer := &htmlRenderer{}
	documents := NewDocumentPublisher(renderer, NewLocalStorage(dir))
	notes := NewNoteService(store, documents, nil, NoteServiceConfig{})
	ctx := context.Background()

	receipt := createShirtNote(t, notes)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "notes/note_3805.pdf")), receipt.DocumentURL)
	assert.Equal(t, 1, renderer.calls)

	_, err := notes.Close(ctx, receipt.ID, CloseActionDiscrepancy, "faltan 2")
	require.NoError(t, err)
	assert.Equal(t, 2, renderer.calls)

	f, err := os.Open(filepath.Join(dir, "notes", "note_3805.pdf"))
	require.NoError(t, err)
	defer f.Close()
	body, _ := io.ReadAll(f)
	assert.Contains(t, string(body), "REMITO DE TRANSPORTE")
	assert.Contains(t, string(body), "faltan 2")

	note, err := notes.RegenerateDocument(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes/note_3805.pdf", note.DocumentKey)
	assert.Equal(t, 3, renderer.calls)
}

func TestNoteDocumentFailureDoesNotFailCreate(t *testing.T) {
	store := setupStoreTestDB(t)
	seedStore(t, store, testBranches, nil)

	renderer := &htmlRenderer{fail: true}
	notes := NewNoteService(store, NewDocumentPublisher(renderer, NewLocalStorage(t.TempDir())), nil, NoteServiceConfig{})

	receipt := createShirtNote(t, notes)
	assert.NotZero(t, receipt.ID)

	_, err := notes.RegenerateDocument(context.Background(), receipt.ID)
	assert.Error(t, err)

	_, err = newTestNoteService(store).RegenerateDocument(context.Background(), receipt.ID)
	assert.Error(t, err, "rendering not configured")
}

// gatedRenderer holds its first render until released
type gatedRenderer struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (r *gatedRenderer) Render(ctx context.Context, note models.DeliveryNote) ([]byte, error) {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.started)
		<-r.release
	}
	html, err := RenderNoteHTML(ctx, templates.Company{Name: "Test SA"}, note, false)
	return []byte(html), err
}

func (r *gatedRenderer) ContentType() string { return "text/html; charset=utf-8" }

func TestNoteDocumentSlowRenderDoesNotOverwriteNewer(t *testing.T) {
	store := setupStoreTestDB(t)
	seedStore(t, store, testBranches, nil)

	dir := t.TempDir()
	renderer := &gatedRenderer{started: make(chan struct{}), release: make(chan struct{})}
	notes := NewNoteService(store, NewDocumentPublisher(renderer, NewLocalStorage(dir)), nil, NoteServiceConfig{})
	ctx := context.Background()

	created := make(chan NoteReceipt, 1)
	go func() {
		receipt, err := notes.Create(ctx, NoteInput{
			BranchID: 1,
			Items:    []NoteItemInput{{Description: "Shirt", Quantity: 10}},
		})
		assert.NoError(t, err)
		created <- receipt
	}()

	// The create render is now holding the stale note
	<-renderer.started

	closeErr := make(chan error, 1)
	go func() {
		_, err := notes.Close(ctx, 1, CloseActionDiscrepancy, "llegaron 8")
		closeErr <- err
	}()

	time.Sleep(50 * time.Millisecond)
	close(renderer.release)

	require.NoError(t, <-closeErr)
	receipt := <-created
	assert.Equal(t, 3805, receipt.Number)

	body, err := os.ReadFile(filepath.Join(dir, "notes", "note_3805.pdf"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "llegaron 8")
}

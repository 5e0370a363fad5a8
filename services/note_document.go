package services

import (
	"bytes"
	"context"
	"fmt"

	"delivery_notes_app_go/models"
	"delivery_notes_app_go/templates"
)

// DocumentRenderer turns a fully populated note into document bytes
type DocumentRenderer interface {
	Render(ctx context.Context, note models.DeliveryNote) ([]byte, error)
	ContentType() string
}

// RenderNoteHTML renders the note document page
func RenderNoteHTML(ctx context.Context, company templates.Company, note models.DeliveryNote, preview bool) (string, error) {
	var buf bytes.Buffer
	component := templates.NoteDocument(templates.NoteDocumentData{
		Company: company,
		Note:    note,
		Preview: preview,
	})
	if err := component.Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("failed to render note document: %w", err)
	}
	return buf.String(), nil
}

// PDFDocumentRenderer prints the note document through headless Chrome
type PDFDocumentRenderer struct {
	Company   templates.Company
	Generator *ChromePDFGenerator
	Options   PDFOptions
}

// NewPDFDocumentRenderer creates a renderer with the default A4 layout
func NewPDFDocumentRenderer(company templates.Company, chromePath string) *PDFDocumentRenderer {
	return &PDFDocumentRenderer{
		Company:   company,
		Generator: &ChromePDFGenerator{ChromePath: chromePath},
		Options:   DefaultPDFOptions(),
	}
}

// Render produces the PDF bytes of a note
func (r *PDFDocumentRenderer) Render(ctx context.Context, note models.DeliveryNote) ([]byte, error) {
	html, err := RenderNoteHTML(ctx, r.Company, note, false)
	if err != nil {
		return nil, err
	}
	return r.Generator.GeneratePDF(ctx, html, r.Options)
}

// ContentType of the rendered document
func (r *PDFDocumentRenderer) ContentType() string {
	return "application/pdf"
}

// DocumentPublisher renders note documents and stores them under the
// note's document key. Only the key and URL are kept on the note.
type DocumentPublisher struct {
	renderer DocumentRenderer
	storage  StorageProvider
}

// NewDocumentPublisher creates a publisher
func NewDocumentPublisher(renderer DocumentRenderer, storage StorageProvider) *DocumentPublisher {
	return &DocumentPublisher{renderer: renderer, storage: storage}
}

// Publish renders note and uploads the result
func (p *DocumentPublisher) Publish(ctx context.Context, note models.DeliveryNote) (*StorageResult, error) {
	key := note.DocumentKey
	if key == "" {
		key = GenerateNoteDocumentKey(note.Number)
	}

	data, err := p.renderer.Render(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("failed to render document for note %d: %w", note.Number, err)
	}

	result, err := p.storage.UploadReader(ctx, bytes.NewReader(data), key, p.renderer.ContentType(), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to store document for note %d: %w", note.Number, err)
	}
	return result, nil
}

// URL returns the public URL a document key will be served from
func (p *DocumentPublisher) URL(key string) string {
	return p.storage.GetPublicURL(key)
}

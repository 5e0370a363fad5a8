package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"delivery_notes_app_go/config"
	"delivery_notes_app_go/models"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers emails
type Mailer interface {
	Send(ctx context.Context, email *Email) error
}

// ResendMailer sends through the Resend API, or only logs in test mode
type ResendMailer struct {
	cfg *config.Config
}

// NewResendMailer creates a mailer from configuration
func NewResendMailer(cfg *config.Config) *ResendMailer {
	return &ResendMailer{cfg: cfg}
}

// Send sends an email using Resend API
func (m *ResendMailer) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	if m.cfg.EmailTestMode {
		log.Info().
			Strs("to", email.To).
			Str("subject", email.Subject).
			Str("body", truncate(email.TextBody, 500)).
			Msg("Email logged (test mode, not sent)")
		return nil
	}

	if m.cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(m.cfg.ResendAPIKey)
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.cfg.EmailFromName, m.cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	log.Info().Str("id", sent.Id).Strs("to", email.To).Msg("Email sent via Resend")
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// SendEmailAsync sends an email on its own goroutine and only logs failures
func SendEmailAsync(mailer Mailer, email *Email) {
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := mailer.Send(ctx, emailCopy); err != nil {
			log.Error().Err(err).Strs("to", emailCopy.To).Msg("Error sending async email")
		}
	}()
}

// lineDifference is one line of a note whose quantities do not match
type lineDifference struct {
	Description string
	Expected    int
	Received    int
}

func differences(items []models.LineItem) []lineDifference {
	var diffs []lineDifference
	for _, item := range items {
		if item.QuantityReceived != item.QuantityExpected {
			diffs = append(diffs, lineDifference{
				Description: item.Description,
				Expected:    item.QuantityExpected,
				Received:    item.QuantityReceived,
			})
		}
	}
	return diffs
}

var discrepancyEmailTmpl = template.Must(template.New("discrepancy").Parse(`<html><body>
<h2>Remito {{.Note.Number}} cerrado con diferencias</h2>
<p>Sucursal: {{.Note.Destination.Name}}<br>Fecha: {{.Note.Date}}</p>
{{if .Note.Comment}}<p>Observaciones: {{.Note.Comment}}</p>{{end}}
{{if .Lines}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Descripción</th><th>Esperado</th><th>Recibido</th></tr>
{{range .Lines}}<tr><td>{{.Description}}</td><td>{{.Expected}}</td><td>{{.Received}}</td></tr>
{{end}}</table>{{end}}
{{if .Link}}<p><a href="{{.Link}}">Ver remito</a></p>{{end}}
</body></html>`))

// BuildDiscrepancyEmail describes a note closed with differences
func BuildDiscrepancyEmail(to string, note models.DeliveryNote, link string) *Email {
	lines := differences(note.Items)

	var html bytes.Buffer
	if err := discrepancyEmailTmpl.Execute(&html, map[string]interface{}{
		"Note":  note,
		"Lines": lines,
		"Link":  link,
	}); err != nil {
		log.Error().Err(err).Int("note", note.Number).Msg("Failed to render discrepancy email")
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Remito %d cerrado con diferencias\n", note.Number)
	fmt.Fprintf(&text, "Sucursal: %s\nFecha: %s\n", note.Destination.Name, note.Date)
	if note.Comment != "" {
		fmt.Fprintf(&text, "Observaciones: %s\n", note.Comment)
	}
	for _, l := range lines {
		fmt.Fprintf(&text, "- %s: esperado %d, recibido %d\n", l.Description, l.Expected, l.Received)
	}
	if link != "" {
		fmt.Fprintf(&text, "%s\n", link)
	}

	return &Email{
		To:       []string{to},
		Subject:  fmt.Sprintf("Remito %d: diferencias en %s", note.Number, note.Destination.Name),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}
}

var digestEmailTmpl = template.Must(template.New("digest").Parse(`<html><body>
<h2>Remitos sin cerrar</h2>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Nº</th><th>Fecha</th><th>Sucursal</th><th>Estado</th></tr>
{{range .}}<tr><td>{{.Number}}</td><td>{{.Date}}</td><td>{{.Destination.Name}}</td><td>{{.Status}}</td></tr>
{{end}}</table>
</body></html>`))

// BuildPendingDigestEmail lists notes that are still open
func BuildPendingDigestEmail(to string, notes []models.DeliveryNote) *Email {
	var html bytes.Buffer
	if err := digestEmailTmpl.Execute(&html, notes); err != nil {
		log.Error().Err(err).Msg("Failed to render digest email")
	}

	var text strings.Builder
	text.WriteString("Remitos sin cerrar:\n")
	for _, n := range notes {
		fmt.Fprintf(&text, "- Nº %d (%s) %s: %s\n", n.Number, n.Date, n.Destination.Name, n.Status)
	}

	return &Email{
		To:       []string{to},
		Subject:  fmt.Sprintf("%d remitos sin cerrar", len(notes)),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}
}

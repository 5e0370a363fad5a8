package templates

import (
	"context"
	"html/template"
	"io"
	"strings"

	"delivery_notes_app_go/models"

	"github.com/a-h/templ"
)

// Company identifies the carrier printed on every document
type Company struct {
	Name     string
	TaxID    string
	Activity string
}

// NoteDocumentData is everything the delivery note document shows
type NoteDocumentData struct {
	Company Company
	Note    models.DeliveryNote
	// Preview adds the reception status and received quantities for the
	// public page; the printed document leaves them out.
	Preview bool
}

var noteDocumentTmpl = template.Must(template.New("note").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"statusClass": func(s models.NoteStatus) string {
		switch s {
		case models.NoteStatusOK:
			return "ok"
		case models.NoteStatusDiscrepancy:
			return "diff"
		default:
			return "pend"
		}
	},
	"lineClass": func(item models.LineItem) string {
		switch {
		case item.QuantityReceived == item.QuantityExpected:
			return "ok"
		case item.QuantityReceived > item.QuantityExpected:
			return "diff"
		default:
			return ""
		}
	},
}).Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<title>Remito {{.Note.Number}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; color: #111; margin: 0; }
  h1 { color: #0ea5e9; font-size: 18pt; text-align: center; margin: 0 0 12pt; }
  .company { font-size: 10pt; margin-bottom: 10pt; }
  .meta { border-top: 1px solid #e5e7eb; padding-top: 6pt; }
  .meta div { margin: 2pt 0; }
  table { width: 100%; border-collapse: collapse; margin-top: 14pt; }
  th { color: #444; font-size: 10pt; text-align: left; border-bottom: 1px solid #e5e7eb; padding: 4pt 0; }
  td { padding: 6pt 0; vertical-align: top; }
  .num { text-align: right; width: 80pt; }
  tr.ok td { color: #15803d; }
  tr.diff td { color: #b91c1c; }
  .pill { padding: 2pt 8pt; border-radius: 8pt; font-size: 9pt; }
  .pill.ok { background: #dcfce7; } .pill.diff { background: #fee2e2; } .pill.pend { background: #fef9c3; }
  .comment { margin-top: 14pt; padding: 8pt; border: 1px solid #e5e7eb; white-space: pre-wrap; }
  .signatures { display: flex; justify-content: space-around; margin-top: 60pt; }
  .signature { width: 160pt; border-top: 1px solid #e5e7eb; padding-top: 4pt; font-size: 10pt; text-align: center; }
</style>
</head>
<body>
<h1>REMITO DE TRANSPORTE DE MERCADERÍAS</h1>
<div class="company">
  <div>Empresa: {{.Company.Name}}</div>
  <div>CUIT: {{.Company.TaxID}}</div>
  <div>Actividad: {{.Company.Activity}}</div>
</div>
<div class="meta">
  <div>Remito Nº: {{.Note.Number}}</div>
  <div>Fecha: {{.Note.Date}}</div>
  <div>Origen: {{.Note.Origin}}</div>
  <div>Destino: {{.Note.Destination.Name}}{{if .Note.Destination.Address}} - {{.Note.Destination.Address}}{{end}}</div>
  {{if .Preview}}<div>Estado: <span class="pill {{statusClass .Note.Status}}">{{upper (print .Note.Status)}}</span></div>{{end}}
</div>
<table>
  <thead>
    <tr><th>Descripción</th><th class="num">Cantidad</th>{{if .Preview}}<th class="num">Recibido</th>{{end}}</tr>
  </thead>
  <tbody>
  {{range .Note.Items}}
    <tr{{if $.Preview}} class="{{lineClass .}}"{{end}}><td>{{.Description}}</td><td class="num">{{.QuantityExpected}}</td>{{if $.Preview}}<td class="num">{{.QuantityReceived}}</td>{{end}}</tr>
  {{end}}
  </tbody>
</table>
{{if .Note.Comment}}<div class="comment">Observaciones: {{.Note.Comment}}</div>{{end}}
<div class="signatures">
  <div class="signature">Firma y Aclaración - Origen</div>
  <div class="signature">Firma y Aclaración - Destino</div>
</div>
</body>
</html>`))

// NoteDocument renders a delivery note as a standalone HTML page
func NoteDocument(data NoteDocumentData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return noteDocumentTmpl.Execute(w, data)
	})
}

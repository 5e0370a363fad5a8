package handlers

import (
	"errors"
	"net/http"

	"delivery_notes_app_go/services"
	"delivery_notes_app_go/templates"

	"github.com/labstack/echo/v4"
)

// PublicNoteHandler renders the HTML preview behind a note's receipt link
func (a *API) PublicNoteHandler(c echo.Context) error {
	note, err := a.Notes.GetByToken(c.Param("token"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Delivery note not found")
		}
		return apiError(err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return render(c, http.StatusOK, templates.NoteDocument(templates.NoteDocumentData{
		Company: a.Company,
		Note:    note,
		Preview: true,
	}))
}

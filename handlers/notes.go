package handlers

import (
	"net/http"
	"strconv"
	"time"

	"delivery_notes_app_go/models"
	"delivery_notes_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type scanRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type setReceivedRequest struct {
	Received *int `json:"received" validate:"required"`
}

type closeNoteRequest struct {
	Action  string `json:"action" validate:"required,max=32"`
	Comment string `json:"note" validate:"max=2000"`
}

// ListNotesHandler lists notes, optionally filtered by status and branch_id
func (a *API) ListNotesHandler(c echo.Context) error {
	filter := services.NoteFilter{Status: models.NoteStatus(c.QueryParam("status"))}
	switch filter.Status {
	case "", models.NoteStatusPending, models.NoteStatusOK, models.NoteStatusDiscrepancy:
	default:
		return apiError(services.ErrValidation)
	}
	if b := c.QueryParam("branch_id"); b != "" {
		id, err := strconv.Atoi(b)
		if err != nil {
			return apiError(services.ErrInvalidID)
		}
		filter.BranchID = id
	}
	return c.JSON(http.StatusOK, a.Notes.List(filter))
}

// CreateNoteHandler registers a note for one branch
func (a *API) CreateNoteHandler(c echo.Context) error {
	var in services.NoteInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	receipt, err := a.Notes.Create(c.Request().Context(), in)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusCreated, receipt)
}

// GetNoteHandler returns one note with its items
func (a *API) GetNoteHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	note, err := a.Notes.Get(id)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, note)
}

// ScanHandler records one scanned unit on a note
func (a *API) ScanHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var in scanRequest
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	result, err := a.Notes.Scan(c.Request().Context(), id, in.Code)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// SetReceivedHandler overrides a line's received quantity
func (a *API) SetReceivedHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}
	var in setReceivedRequest
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	result, err := a.Notes.SetReceived(c.Request().Context(), id, index, *in.Received)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// CloseNoteHandler closes a note as ok or discrepancy
func (a *API) CloseNoteHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var in closeNoteRequest
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	note, err := a.Notes.Close(c.Request().Context(), id, in.Action, in.Comment)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, note)
}

// NoteDocumentHandler streams the stored document of a note. Remote
// storages that cannot stream fall back to a signed URL redirect.
func (a *API) NoteDocumentHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	note, err := a.Notes.Get(id)
	if err != nil {
		return apiError(err)
	}
	if note.DocumentKey == "" || a.Storage == nil {
		return echo.NewHTTPError(http.StatusNotFound, map[string]string{"error": "document not available", "reason": "document_missing"})
	}

	ctx := c.Request().Context()
	body, contentType, err := a.Storage.Get(ctx, note.DocumentKey)
	if err != nil {
		url, signErr := a.Storage.GetSignedURL(ctx, note.DocumentKey, 15*time.Minute)
		if signErr != nil || url == "" {
			log.Warn().Err(err).Int("note_id", id).Str("key", note.DocumentKey).Msg("Note document not found in storage")
			return echo.NewHTTPError(http.StatusNotFound, map[string]string{"error": "document not available", "reason": "document_missing"})
		}
		return c.Redirect(http.StatusTemporaryRedirect, url)
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Response().Header().Set("Content-Disposition", "inline; filename=remito_"+strconv.Itoa(note.Number)+".pdf")
	return c.Stream(http.StatusOK, contentType, body)
}

// RegenerateDocumentHandler renders and stores a note's document again
func (a *API) RegenerateDocumentHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	note, err := a.Notes.RegenerateDocument(c.Request().Context(), id)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"document_key": note.DocumentKey, "pdf": note.DocumentURL})
}

package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"delivery_notes_app_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicNoteHandler(t *testing.T) {
	api := setupTestAPI(t)
	e := setupRouter(api)

	receipt, err := api.Notes.Create(context.Background(), services.NoteInput{
		BranchID: 6,
		Items:    []services.NoteItemInput{{Description: "Campera <b>Nueva</b>", Quantity: 3}},
	})
	require.NoError(t, err)

	t.Run("Renders preview", func(t *testing.T) {
		rec := serve(e, http.MethodGet, receipt.PublicURL, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

		body := rec.Body.String()
		assert.Contains(t, body, "3805")
		assert.Contains(t, body, "Lomas")
		assert.Contains(t, body, "PENDING")
		assert.Contains(t, body, "Campera &lt;b&gt;Nueva&lt;/b&gt;")
	})

	t.Run("Unknown token", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/r/does-not-exist", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	api := setupTestAPI(t)
	_, c, rec := setupEcho(http.MethodGet, "/healthz", nil)

	require.NoError(t, api.HealthHandler(c))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

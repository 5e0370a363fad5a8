package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"delivery_notes_app_go/services"
	"delivery_notes_app_go/templates"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestAPI(t *testing.T) *API {
	// Use unique shared memory name to isolate tests
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := testDB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	snapshots := services.NewGormSnapshotStore(testDB)
	require.NoError(t, snapshots.Migrate())
	store, err := services.NewStore(context.Background(), snapshots, 3804)
	require.NoError(t, err)

	notes := services.NewNoteService(store, nil, nil, services.NoteServiceConfig{DefaultOrigin: "Depósito"})
	api := &API{
		Branches: services.NewBranchService(store),
		Catalog:  services.NewCatalogService(store),
		Importer: services.NewProductImporter(store),
		Notes:    notes,
		Orders:   services.NewOrderService(store, notes),
		Storage:  services.NewLocalStorage(t.TempDir()),
		Company:  templates.Company{Name: "Transportes SA"},
	}

	_, err = api.Branches.Seed(context.Background())
	require.NoError(t, err)
	return api
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewRequestValidator()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return e, c, rec
}

// setupRouter mounts every route for full request round trips
func setupRouter(api *API) *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	api.RegisterRoutes(e, nil, nil)
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func httpError(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"delivery_notes_app_go/services"
	"delivery_notes_app_go/templates"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// API bundles the services the HTTP handlers work with
type API struct {
	Branches *services.BranchService
	Catalog  *services.CatalogService
	Importer *services.ProductImporter
	Notes    *services.NoteService
	Orders   *services.OrderService
	Storage  services.StorageProvider
	Company  templates.Company
}

// RegisterRoutes mounts every route. scanLimit and importLimit may be nil.
func (a *API) RegisterRoutes(e *echo.Echo, scanLimit, importLimit echo.MiddlewareFunc) {
	e.GET("/healthz", a.HealthHandler)
	e.GET("/r/:token", a.PublicNoteHandler)

	api := e.Group("/api")

	branches := api.Group("/branches")
	branches.GET("", a.ListBranchesHandler)
	branches.POST("", a.CreateBranchHandler)
	branches.POST("/seed", a.SeedBranchesHandler)
	branches.GET("/:id", a.GetBranchHandler)
	branches.PUT("/:id", a.UpdateBranchHandler)
	branches.DELETE("/:id", a.DeleteBranchHandler)

	products := api.Group("/products")
	products.GET("", a.ListProductsHandler)
	products.POST("", a.CreateProductHandler)
	products.GET("/by-code/:code", a.ProductByCodeHandler)
	products.GET("/import/template", a.ImportTemplateHandler)
	products.POST("/import", a.ImportProductsHandler, optional(importLimit)...)
	products.GET("/:id", a.GetProductHandler)
	products.PUT("/:id", a.UpdateProductHandler)
	products.DELETE("/:id", a.DeleteProductHandler)
	products.POST("/:id/codes", a.AddProductCodeHandler)
	products.DELETE("/:id/codes/:code", a.RemoveProductCodeHandler)

	notes := api.Group("/notes")
	notes.GET("", a.ListNotesHandler)
	notes.POST("", a.CreateNoteHandler)
	notes.GET("/:id", a.GetNoteHandler)
	notes.POST("/:id/scan", a.ScanHandler, optional(scanLimit)...)
	notes.PUT("/:id/items/:index/received", a.SetReceivedHandler)
	notes.POST("/:id/close", a.CloseNoteHandler)
	notes.GET("/:id/document", a.NoteDocumentHandler)
	notes.POST("/:id/document", a.RegenerateDocumentHandler)

	orders := api.Group("/orders")
	orders.GET("", a.ListOrdersHandler)
	orders.POST("", a.CreateOrderHandler)
	orders.GET("/:id", a.GetOrderHandler)
	orders.POST("/:id/generate", a.GenerateOrderHandler)
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}

// HealthHandler reports liveness
func (a *API) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// apiError maps a service error to an HTTP error carrying a reason code
func apiError(err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrState):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}

	body := map[string]string{"error": err.Error()}
	if reason := services.Reason(err); reason != "" {
		body["reason"] = reason
	}
	return echo.NewHTTPError(status, body)
}

// bindAndValidate decodes the request body into dst and checks its tags
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apiError(fmt.Errorf("%w: %v", services.ErrValidation, err))
	}
	if err := c.Validate(dst); err != nil {
		return apiError(err)
	}
	return nil
}

// intParam parses a positive integer path parameter
func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		return 0, apiError(services.ErrInvalidID)
	}
	return v, nil
}

func render(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response().Writer)
}

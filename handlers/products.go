package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"delivery_notes_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type renameProductRequest struct {
	Description string `json:"description" validate:"required,max=255"`
}

type productCodeRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// ListProductsHandler searches the catalog by description or code fragment
func (a *API) ListProductsHandler(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			return apiError(services.ErrValidation)
		}
		limit = n
	}
	return c.JSON(http.StatusOK, a.Catalog.Search(c.QueryParam("q"), limit))
}

// ProductByCodeHandler resolves a scanned code to its product
func (a *API) ProductByCodeHandler(c echo.Context) error {
	product, err := a.Catalog.LookupByCode(c.Param("code"))
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, product)
}

// GetProductHandler returns one product
func (a *API) GetProductHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	product, err := a.Catalog.Get(id)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProductHandler adds a product with an optional first code
func (a *API) CreateProductHandler(c echo.Context) error {
	var in services.ProductInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	product, err := a.Catalog.Create(c.Request().Context(), in)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProductHandler renames a product
func (a *API) UpdateProductHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var in renameProductRequest
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	product, err := a.Catalog.Rename(c.Request().Context(), id, in.Description)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProductHandler removes a product and its codes
func (a *API) DeleteProductHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := a.Catalog.Delete(c.Request().Context(), id); err != nil {
		return apiError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddProductCodeHandler links a code to a product
func (a *API) AddProductCodeHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var in productCodeRequest
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	codes, err := a.Catalog.AddCode(c.Request().Context(), id, in.Code)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"codes": codes})
}

// RemoveProductCodeHandler unlinks a code from a product
func (a *API) RemoveProductCodeHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	codes, err := a.Catalog.RemoveCode(c.Request().Context(), id, c.Param("code"))
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"codes": codes})
}

// ImportTemplateHandler serves an example workbook
func (a *API) ImportTemplateHandler(c echo.Context) error {
	buf, err := services.GenerateProductTemplate()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate template")
	}
	c.Response().Header().Set("Content-Disposition", "attachment; filename=productos_template.xlsx")
	return c.Blob(http.StatusOK, services.XLSXContentType, buf.Bytes())
}

// ImportProductsHandler loads a workbook uploaded as the "file" form field
func (a *API) ImportProductsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	file, err := c.FormFile("file")
	if err != nil {
		return apiError(fmt.Errorf("%w: missing file field", services.ErrValidation))
	}
	if err := services.ValidateWorkbookUpload(file); err != nil {
		return apiError(err)
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open file")
	}
	defer src.Close()

	summary, err := a.Importer.ImportWorkbook(ctx, src)
	if err != nil {
		return apiError(err)
	}

	if a.Storage != nil {
		key := services.GenerateImportArchiveKey(file.Filename)
		if _, err := a.Storage.Upload(ctx, file, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to archive imported workbook")
		}
	}

	return c.JSON(http.StatusOK, summary)
}

package handlers

import (
	"net/http"

	"delivery_notes_app_go/services"

	"github.com/labstack/echo/v4"
)

// ListBranchesHandler returns every branch
func (a *API) ListBranchesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Branches.List())
}

// GetBranchHandler returns one branch
func (a *API) GetBranchHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	branch, err := a.Branches.Get(id)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, branch)
}

// CreateBranchHandler adds a branch
func (a *API) CreateBranchHandler(c echo.Context) error {
	var in services.BranchInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	branch, err := a.Branches.Add(c.Request().Context(), in)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusCreated, branch)
}

// UpdateBranchHandler replaces a branch's fields
func (a *API) UpdateBranchHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var in services.BranchInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	branch, err := a.Branches.Update(c.Request().Context(), id, in)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, branch)
}

// DeleteBranchHandler removes a branch
func (a *API) DeleteBranchHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := a.Branches.Delete(c.Request().Context(), id); err != nil {
		return apiError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SeedBranchesHandler installs the default branches on an empty directory
func (a *API) SeedBranchesHandler(c echo.Context) error {
	created, err := a.Branches.Seed(c.Request().Context())
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"created": created})
}

package handlers

import (
	"net/http"

	"delivery_notes_app_go/services"

	"github.com/labstack/echo/v4"
)

// ListOrdersHandler returns every order, newest first
func (a *API) ListOrdersHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Orders.List())
}

// GetOrderHandler returns one order
func (a *API) GetOrderHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	order, err := a.Orders.Get(id)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// CreateOrderHandler stores a multi-branch order as a draft
func (a *API) CreateOrderHandler(c echo.Context) error {
	var in services.OrderInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	order, err := a.Orders.Submit(c.Request().Context(), in)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

// GenerateOrderHandler fans an order out into one note per branch.
// Partial success answers 207 with the failed branches listed.
func (a *API) GenerateOrderHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	result, err := a.Orders.Generate(c.Request().Context(), id)
	if err != nil {
		return apiError(err)
	}
	status := http.StatusCreated
	if len(result.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, result)
}

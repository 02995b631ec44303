package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fleetdesk/portal/internal/core/ports"
)

// ResourceHandler serves the CRUD pages of one backend resource.
type ResourceHandler[T any] struct {
	svc ports.ResourceService[T]
}

func NewResourceHandler[T any](svc ports.ResourceService[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{svc: svc}
}

// Register mounts the resource under g. guard is applied to the
// mutating routes only.
func (h *ResourceHandler[T]) Register(g *echo.Group, guard ...echo.MiddlewareFunc) {
	base := "/" + h.svc.Name()
	g.GET(base, h.List)
	g.GET(base+"/:id", h.Get)
	g.POST(base, h.Create, guard...)
	g.PUT(base+"/:id", h.Update, guard...)
	g.DELETE(base+"/:id", h.Delete, guard...)
}

// List
//
// @Summary      List records
// @Tags         resources
// @Produce      json
// @Param        resource  path   string  true   "users, cars, fuel-prices, travel-purpose-dictionaries, laws or addresses"
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Page size"
// @Param        search    query  string  false  "Search term"
// @Param        sort      query  string  false  "Sort field"
// @Success      200  {array}   object
// @Failure      401  {object}  map[string]string
// @Failure      422  {object}  map[string]any
// @Router       /api/{resource} [get]
func (h *ResourceHandler[T]) List(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var q listQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	items, err := h.svc.List(c.Request().Context(), session, q.toPort())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Get
//
// @Summary      Get a record
// @Tags         resources
// @Produce      json
// @Param        resource  path  string  true  "Resource name"
// @Param        id        path  string  true  "Record ID"
// @Success      200  {object}  object
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/{resource}/{id} [get]
func (h *ResourceHandler[T]) Get(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	item, err := h.svc.Get(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Create
//
// @Summary      Create a record
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        resource  path  string  true  "Resource name"
// @Param        body      body  object  true  "Record"
// @Success      201  {object}  object
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      422  {object}  map[string]any
// @Router       /api/{resource} [post]
func (h *ResourceHandler[T]) Create(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var payload T
	if err := (&echo.DefaultBinder{}).BindBody(c, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	created, err := h.svc.Create(c.Request().Context(), session, payload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Update
//
// @Summary      Update a record
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        resource  path  string  true  "Resource name"
// @Param        id        path  string  true  "Record ID"
// @Param        body      body  object  true  "Record"
// @Success      200  {object}  object
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]any
// @Router       /api/{resource}/{id} [put]
func (h *ResourceHandler[T]) Update(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var payload T
	if err := (&echo.DefaultBinder{}).BindBody(c, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	updated, err := h.svc.Update(c.Request().Context(), session, c.Param("id"), payload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete
//
// @Summary      Delete a record
// @Tags         resources
// @Param        resource  path  string  true  "Resource name"
// @Param        id        path  string  true  "Record ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/{resource}/{id} [delete]
func (h *ResourceHandler[T]) Delete(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), session, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

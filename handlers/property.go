package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"PropertySearchSys/engagement"
	"PropertySearchSys/search"
)

type PropertyController struct {
	svc        *search.Service
	engagement *engagement.Service
}

func NewPropertyController(svc *search.Service, eng *engagement.Service) *PropertyController {
	return &PropertyController{svc: svc, engagement: eng}
}

// GetProperty serves the detail page and fires the view counter in the
// background; a failed counter write never fails the fetch.
func (pc *PropertyController) GetProperty(c echo.Context) error {
	id := c.Param("id")
	prop, err := pc.svc.GetProperty(c.Request().Context(), id)
	if err != nil {
		return searchError(c, err)
	}

	go pc.engagement.TrackView(context.WithoutCancel(c.Request().Context()), id)

	return c.JSON(http.StatusOK, prop)
}

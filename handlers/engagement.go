package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"PropertySearchSys/engagement"
	"PropertySearchSys/models"
)

type EngagementController struct {
	svc *engagement.Service
}

func NewEngagementController(svc *engagement.Service) *EngagementController {
	return &EngagementController{svc: svc}
}

// ToggleFavorite flips the favorited state and returns the new one.
func (ec *EngagementController) ToggleFavorite(c echo.Context) error {
	userID := c.Get("user_id").(primitive.ObjectID)
	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Property not found"})
	}

	favorited, err := ec.svc.ToggleFavorite(c.Request().Context(), userID, propertyID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Property not found"})
		case errors.Is(err, models.ErrConflict):
			return c.JSON(http.StatusConflict, map[string]string{"error": "Property already favorited"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to toggle favorite"})
		}
	}
	return c.JSON(http.StatusOK, map[string]bool{"favorited": favorited})
}

func (ec *EngagementController) ListFavorites(c echo.Context) error {
	userID := c.Get("user_id").(primitive.ObjectID)
	items, err := ec.svc.ListFavorites(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch favorites"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"favorites": items})
}

type contactRequest struct {
	Method  string `json:"method"`
	Success bool   `json:"success"`
}

// TrackContact accepts the event unconditionally: tracking failures are the
// service's problem, never the caller's.
func (ec *EngagementController) TrackContact(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	switch req.Method {
	case models.ContactMethodWhatsApp, models.ContactMethodPhone, models.ContactMethodEmail:
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown contact method"})
	}

	userID := ""
	if id, ok := c.Get("user_id").(primitive.ObjectID); ok {
		userID = id.Hex()
	}

	go ec.svc.TrackContact(context.WithoutCancel(c.Request().Context()),
		c.Param("id"), userID, req.Method, req.Success)

	return c.NoContent(http.StatusAccepted)
}

func (ec *EngagementController) TrackView(c echo.Context) error {
	go ec.svc.TrackView(context.WithoutCancel(c.Request().Context()), c.Param("id"))
	return c.NoContent(http.StatusAccepted)
}

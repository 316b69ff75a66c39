package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"PropertySearchSys/handlers"
	"PropertySearchSys/middleware"
)

func RegisterRoutes(e *echo.Echo, jwtSecret string,
	sc *handlers.SearchController,
	pc *handlers.PropertyController,
	ec *handlers.EngagementController) {

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	props := api.Group("/properties")
	props.GET("/search", sc.Search)
	props.GET("/bounds", sc.PropertiesInBounds)
	props.GET("/clusters", sc.ClusterProperties)
	props.GET("/autocomplete", sc.Autocomplete)
	props.GET("/:id", pc.GetProperty)
	props.POST("/:id/view", ec.TrackView)
	props.POST("/:id/contact", ec.TrackContact, middleware.OptionalAuth(jwtSecret))
	props.POST("/:id/favorite", ec.ToggleFavorite, middleware.RequireAuth(jwtSecret))

	api.GET("/favorites", ec.ListFavorites, middleware.RequireAuth(jwtSecret))
}

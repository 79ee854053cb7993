package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/paladarnegro/plantel/middleware"
	"github.com/paladarnegro/plantel/web"
)

// Routes registers the JSON API, the HTML pages and the operational endpoints.
func (h *Handler) Routes(e *echo.Echo) {
	admin := mw.RequireAdmin(h.accounts)

	e.GET("/healthz", h.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/auth/signin", h.Signin)
	api.POST("/auth/signout", h.Signout)
	api.GET("/auth/me", h.Me, mw.RequireLogin())

	api.GET("/agents", h.ListAgents, admin)
	api.GET("/categories", h.ListCategories)
	api.POST("/players", h.CreatePlayer, admin)
	api.GET("/players/:id", h.GetPlayer)
	api.PUT("/players/:id", h.UpdatePlayer, admin)
	api.DELETE("/players/:id", h.DeletePlayer, admin)
	api.GET("/players/category/:cat", h.PlayersByCategory)
	api.GET("/players/year/:year", h.PlayersByYear)

	e.GET(web.Home, h.HomePage)
	e.POST(web.Login, h.LoginForm)
	e.POST(web.Logout, h.LogoutForm)
	e.GET(web.Year, h.YearPage)
	e.GET(web.Category, h.CategoryPage)
	e.POST(web.Players, h.CreateForm, admin)
	e.GET(web.Player, h.PlayerPage)
	e.GET(web.PlayerEdit, h.EditPage, admin)
	e.POST(web.PlayerEdit, h.UpdateForm, admin)
	e.POST(web.PlayerDelete, h.DeleteForm, admin)
}

// Healthz reports that the process is serving.
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

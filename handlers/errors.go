package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/paladarnegro/plantel/roster"
	"github.com/paladarnegro/plantel/web"
)

const internalErrorMsg = "Error interno del servidor"

// rosterError maps roster errors onto client errors. Anything it does not
// recognise is returned unchanged and ends up as a logged 500.
func rosterError(err error) error {
	var ve *roster.ValidationError
	var me *roster.MissingCategoriesError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	case errors.As(err, &me):
		return echo.NewHTTPError(http.StatusBadRequest, me.Error())
	case errors.Is(err, roster.ErrPlayerNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Jugador no encontrado")
	case errors.Is(err, roster.ErrCategoryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Categoría no encontrada")
	case errors.Is(err, roster.ErrAgentNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "Representante no encontrado")
	}
	return err
}

// statusAndMessage resolves err to what the client is shown.
func statusAndMessage(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(rosterError(err), &he) {
		if he.Internal != nil {
			zap.L().Error("request failed", zap.Int("status", he.Code), zap.Error(he.Internal))
		}
		return he.Code, fmt.Sprint(he.Message)
	}
	zap.L().Error("unhandled error", zap.Error(err))
	return http.StatusInternalServerError, internalErrorMsg
}

// ErrorHandler writes {"error": msg} for /api requests and the error page
// for everything else.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := statusAndMessage(err)

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else if strings.HasPrefix(c.Request().URL.Path, "/api/") || c.Echo().Renderer == nil {
		err = c.JSON(code, map[string]string{"error": msg})
	} else {
		page := web.NewPage("Error").
			WithUser(sessionOf(c)).
			With("Code", code).
			With("Message", msg)
		err = c.Render(code, "error", page)
	}
	if err != nil {
		zap.L().Error("writing error response", zap.Error(err))
	}
}

package middleware

import (
	"github.com/OFFIS-RIT/annograph/backend/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID string
	Role   string
}

type App struct {
	Sessions     *session.Manager
	Keyfunc      jwt.Keyfunc
	MasterAPIKey string
	MasterUserID string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}

// Session returns the session of the authenticated user.
func Session(c echo.Context) (*session.Session, error) {
	cc := c.(*AppContext)
	return cc.App.Sessions.Get(c.Request().Context(), cc.User.UserID)
}

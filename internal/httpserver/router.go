package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/handlers"
	"github.com/comphility/backend/internal/logging"
	"github.com/comphility/backend/internal/middleware/auth"
)

type Deps struct {
	JWTSecret []byte
	ImageDir  string

	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	UserHandler    *handlers.UserHandler
}

// Register wires routes and installs the error handler that renders the
// uniform {error, message} envelope.
func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = errorHandler()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if d.ImageDir != "" {
		e.Static("/images", d.ImageDir)
	}

	api := e.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", d.AuthHandler.Register)
	authRoutes.POST("/login", d.AuthHandler.Login)

	login := auth.RequireLogin(d.JWTSecret)
	admin := auth.AdminOnly()

	authRoutes.GET("/me", d.AuthHandler.Me, login)
	authRoutes.PUT("/profile", d.AuthHandler.UpdateProfile, login)
	authRoutes.PUT("/password", d.AuthHandler.ChangePassword, login)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.List)
	products.GET("/:id", d.ProductHandler.Get)
	products.POST("", d.ProductHandler.Create, login, admin)
	products.PUT("/:id", d.ProductHandler.Update, login, admin)
	products.DELETE("/:id", d.ProductHandler.Delete, login, admin)

	api.GET("/search", d.ProductHandler.Search)

	cart := api.Group("/cart", login)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddItem)
	cart.PUT("/:id", d.CartHandler.UpdateItem)
	cart.DELETE("/:id", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.ClearCart)

	users := api.Group("/users", login, admin)
	users.GET("", d.UserHandler.List)
	users.GET("/:id", d.UserHandler.Get)
	users.PUT("/:id", d.UserHandler.Update)
	users.DELETE("/:id", d.UserHandler.Delete)
}

// errorHandler maps the error taxonomy to status codes and hides internal
// causes from clients.
func errorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := apperr.Status(err)
		message := apperr.PublicMessage(err)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = fmt.Sprint(he.Message)
		}

		if status >= http.StatusInternalServerError {
			logging.FromContext(c.Request().Context()).Error("request failed",
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", status),
				slog.Any("error", err),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, echo.Map{
			"error":   true,
			"message": message,
		})
	}
}

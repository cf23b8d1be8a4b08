package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

const (
	openAPIPath = "/api/openapi.yaml"

	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 15 * time.Second
)

// NewRouter builds the echo instance with API routes, health, metrics and docs.
func NewRouter(server *Server, openAPIDocument []byte, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = DefaultReadTimeout
	e.Server.WriteTimeout = DefaultWriteTimeout
	e.HTTPErrorHandler = server.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "Request handled", attrs...)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET(openAPIPath, func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", openAPIDocument)
	})
	e.GET("/docs/*", echoSwagger.EchoWrapHandler(echoSwagger.URL(openAPIPath)))

	RegisterHandlers(e, server)
	return e
}

// handleError renders echo errors (unknown routes, bad path params, panics) in the envelope.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = fmt.Sprint(he.Message)
	}

	code := codeInternalError
	switch {
	case status == http.StatusNotFound:
		code = codeNotFound
	case status < http.StatusInternalServerError:
		code = codeBadRequest
	default:
		s.logger.ErrorContext(c.Request().Context(), "Unhandled request error", "path", c.Path(), "error", err)
	}

	if failErr := s.fail(c, status, code, message, nil); failErr != nil {
		s.logger.ErrorContext(c.Request().Context(), "Failed to write error response", "error", failErr)
	}
}

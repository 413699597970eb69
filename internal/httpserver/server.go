package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Adarshprakash123/aui-interview/internal/config"
)

// New creates a configured Echo server with all routes registered.
func New(cfg config.Config, h *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	// Base64 audio payloads get large; match the limit the recording
	// ceiling implies.
	e.Use(middleware.BodyLimit("50M"))

	corsConfig := middleware.DefaultCORSConfig
	if cfg.FrontendURL != "" {
		var origins []string
		for _, o := range strings.Split(cfg.FrontendURL, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowCredentials = true
	e.Use(middleware.CORSWithConfig(corsConfig))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	h.Register(e)
	return e
}

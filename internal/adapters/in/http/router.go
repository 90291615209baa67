package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RouterOptions configures the echo instance around the API routes.
type RouterOptions struct {
	CORSOrigins []string
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
	Debug       bool
}

// NewEcho builds the echo instance with middleware, docs, probes and the API.
func NewEcho(server *Server, opts RouterOptions) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = opts.Debug
	e.Logger.SetLevel(log.INFO)
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = ErrorHandler(opts.Logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cleanOrigins(opts.CORSOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			"X-Session-Token",
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return ok(c, http.StatusOK, map[string]string{"status": "healthy"})
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	doc, err := OpenAPIJSON()
	if err != nil {
		return nil, err
	}
	registerSwaggerDoc(doc)
	e.GET("/openapi.json", func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, doc)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	server.Register(e)
	return e, nil
}

func cleanOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}

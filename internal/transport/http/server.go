// Package http provides the HTTP server of the intake service.
package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiaot623/medintake/internal/config"
	"github.com/xiaot623/medintake/internal/domain"
	"github.com/xiaot623/medintake/internal/service"
	v1 "github.com/xiaot623/medintake/internal/transport/http/v1"
	"github.com/xiaot623/medintake/internal/transport/ws"
)

// NewServer creates and configures the HTTP server. It serves the chat API,
// the WebSocket endpoint and, when gatherer is not nil, Prometheus metrics.
func NewServer(svc *service.Service, cfg *config.Config, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler
	e.Logger.SetLevel(logLevel(cfg.LogLevel))

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Handlers
	v1Handler := v1.NewHandler(svc)
	wsServer := ws.NewServer(cfg, svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	e.GET("/api/chatBot/ws", wsServer.HandleWebSocket)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return e
}

func logLevel(level string) glog.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}

// errorHandler renders every unhandled error as {"error": "..."}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Server error: " + err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
		if code >= http.StatusInternalServerError {
			msg = "Server error: " + msg
		}
	} else {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Path(), err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, domain.ErrorResponse{Error: msg})
	}
	if err != nil {
		log.Printf("WARN: failed to write error response: %v", err)
	}
}

// Package routes wires the HTTP surface onto an echo instance
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/batch"
	"github.com/Ramsey-B/fern/pkg/routes/clientprofile"
	"github.com/Ramsey-B/fern/pkg/routes/document"
)

// Register attaches middleware and all resource routes to the echo
// instance
func Register(e *echo.Echo, cfg config.Config, logger ectologger.Logger) {
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	api := e.Group("/api/v1")
	document.Register(api.Group("/documents"))
	batch.Register(api.Group("/documents/batch"))
	clientprofile.Register(api.Group("/clients"))
}

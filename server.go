package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "chart-url-mcp"
	serverVersion = "1.0.0"

	mcpEndpoint = "/mcp"
)

// NewServer registers the chart URL tool and the config guide resource.
func NewServer(builder *Builder, logger *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	registerChartURLTool(srv, builder, logger)
	registerSchemaDocs(srv)

	return srv
}

func serveStdio(srv *server.MCPServer, logger *slog.Logger) error {
	logger.Info("serving over stdio", "server", serverName, "version", serverVersion)
	return server.ServeStdio(srv, server.WithErrorLogger(errorLogger(logger)))
}

// newHTTPHandler mounts the streamable HTTP transport under /mcp next to a
// health check.
func newHTTPHandler(srv *server.MCPServer, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger(logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	streamable := server.NewStreamableHTTPServer(srv)
	e.Any(mcpEndpoint, echo.WrapHandler(streamable))

	return e
}

func serveHTTP(ctx context.Context, srv *server.MCPServer, addr string, logger *slog.Logger) error {
	e := newHTTPHandler(srv, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
	}()

	logger.Info("serving over http", "addr", addr, "endpoint", mcpEndpoint, "server", serverName, "version", serverVersion)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			req := c.Request()
			logger.Info("request", "method", req.Method, "path", req.URL.Path, "status", c.Response().Status, "duration", time.Since(start))
			return nil
		}
	}
}

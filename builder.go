package main

import (
	"context"
	"log/slog"

	"github.com/mikills/tinkerings/chartmcp/quickchart"
)

const errorPrefix = "Error generating chart URL: "

// ChartService issues URLs for chart requests. *quickchart.Client implements it.
type ChartService interface {
	ShortURL(ctx context.Context, req quickchart.Request) (string, error)
	DirectURL(req quickchart.Request) (string, error)
}

// Result is the outcome of one URL request: a URL or an error, never both.
type Result struct {
	URL string
	Err error
}

func Ok(url string) Result { return Result{URL: url} }

func Err(err error) Result { return Result{Err: err} }

func (r Result) IsErr() bool { return r.Err != nil }

// String renders the result for a tool caller: the URL, or the error prefixed
// with a fixed marker.
func (r Result) String() string {
	if r.Err != nil {
		return errorPrefix + r.Err.Error()
	}
	return r.URL
}

// Builder validates chart configs and gets URLs for them from a ChartService.
// It keeps no per-call state.
type Builder struct {
	service ChartService
	logger  *slog.Logger
}

func NewBuilder(service ChartService, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{service: service, logger: logger}
}

// CreateChartURL validates config and opts and returns a short URL issued by
// the chart service. Nothing is sent when validation fails.
func (b *Builder) CreateChartURL(ctx context.Context, config any, opts RenderOptions) Result {
	return b.create(ctx, config, opts, true)
}

// CreateDirectChartURL is like CreateChartURL but encodes the chart into the
// URL itself instead of asking the service for a short one.
func (b *Builder) CreateDirectChartURL(ctx context.Context, config any, opts RenderOptions) Result {
	return b.create(ctx, config, opts, false)
}

func (b *Builder) create(ctx context.Context, config any, opts RenderOptions, shorten bool) Result {
	cfg, err := ParseChartConfig(config)
	if err != nil {
		return Err(err)
	}
	req, err := NewChartRequest(cfg, opts)
	if err != nil {
		return Err(err)
	}

	url, err := b.Build(ctx, req, shorten)
	if err != nil {
		return Err(err)
	}
	return Ok(url)
}

// Build sends req to the chart service once. Service failures come back as
// *UpstreamError.
func (b *Builder) Build(ctx context.Context, req ChartRequest, shorten bool) (string, error) {
	payload := req.payload()
	b.logger.DebugContext(ctx, "requesting chart url", "config_kind", req.config.Kind().String(), "shorten", shorten)

	var (
		url string
		err error
	)
	if shorten {
		url, err = b.service.ShortURL(ctx, payload)
	} else {
		url, err = b.service.DirectURL(payload)
	}
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	return url, nil
}

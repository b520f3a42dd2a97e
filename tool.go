package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const chartURLToolName = "create_chart_url"

const chartURLToolDescription = `Creates a shareable image URL for a Chart.js chart.
Pass a Chart.js configuration object as "config" (type, data, options), e.g.
{"type": "bar", "data": {"labels": ["Jan", "Feb"], "datasets": [{"label": "Sales", "data": [10, 25]}]}}.
A string holding a JavaScript object literal is accepted too, for configs that need functions.
Rendering options are optional; omitted ones use the service defaults (500x300 png on white, pixel ratio 1).
Read the ` + schemaDocsURI + ` resource for the config format.
Returns the URL, or a message starting with "Error generating chart URL:".`

type chartURLArgs struct {
	Config  any
	Options RenderOptions
	Shorten bool
}

func chartURLInputSchema() json.RawMessage {
	formats := make([]string, len(Formats))
	for i, f := range Formats {
		formats[i] = string(f)
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"config": map[string]any{
				"type":        []string{"object", "string"},
				"description": "Chart.js configuration object (type, data, options), or a string holding one",
			},
			"width": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Image width in pixels (default 500)",
			},
			"height": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Image height in pixels (default 300)",
			},
			"format": map[string]any{
				"type":        "string",
				"enum":        formats,
				"description": "Output format (default png)",
			},
			"backgroundColor": map[string]any{
				"type":        "string",
				"description": "Background color, e.g. '#ffffff', 'rgb(255,255,255)' or 'transparent' (default white)",
			},
			"devicePixelRatio": map[string]any{
				"type":             "number",
				"exclusiveMinimum": 0,
				"description":      "Device pixel ratio; 2 renders a retina image (default 1)",
			},
			"version": map[string]any{
				"type":        "string",
				"description": "Chart.js version to render with, e.g. '2', '3' or '4' (default: service default)",
			},
			"shortUrl": map[string]any{
				"type":        "boolean",
				"default":     true,
				"description": "Return a short URL stored by the service; false returns a URL with the config encoded in it",
			},
		},
		"required": []string{"config"},
	}

	b, _ := json.Marshal(schema)
	return b
}

// parseChartURLArgs reads the tool arguments. Optional fields that are
// missing or null stay nil.
func parseChartURLArgs(args map[string]any) (chartURLArgs, error) {
	out := chartURLArgs{Shorten: true}

	cfg, ok := args["config"]
	if !ok {
		return out, invalid("config", "is required")
	}
	out.Config = cfg

	var err error
	if out.Options.Width, err = intArg(args, "width"); err != nil {
		return out, err
	}
	if out.Options.Height, err = intArg(args, "height"); err != nil {
		return out, err
	}

	format, err := stringArg(args, "format")
	if err != nil {
		return out, err
	}
	if format != nil {
		f, err := ParseFormat(*format)
		if err != nil {
			return out, err
		}
		out.Options.Format = &f
	}

	if out.Options.BackgroundColor, err = stringArg(args, "backgroundColor"); err != nil {
		return out, err
	}
	if out.Options.DevicePixelRatio, err = floatArg(args, "devicePixelRatio"); err != nil {
		return out, err
	}
	if out.Options.Version, err = stringArg(args, "version"); err != nil {
		return out, err
	}

	if v, ok := args["shortUrl"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return out, invalid("shortUrl", "must be a boolean, got %s", jsonKind(v))
		}
		out.Shorten = b
	}

	return out, nil
}

func intArg(args map[string]any, key string) (*int, error) {
	f, err := floatArg(args, key)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil, invalid(key, "must be an integer, got %v", *f)
	}
	n := int(*f)
	return &n, nil
}

func floatArg(args map[string]any, key string) (*float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil, invalid(key, "must be a number, got %q", t.String())
		}
		f = parsed
	default:
		return nil, invalid(key, "must be a number, got %s", jsonKind(v))
	}
	return &f, nil
}

func stringArg(args map[string]any, key string) (*string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, invalid(key, "must be a string, got %s", jsonKind(v))
	}
	return &s, nil
}

type chartURLTool struct {
	builder *Builder
	logger  *slog.Logger
}

func (t *chartURLTool) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	logger := t.logger.With("tool", chartURLToolName, "request_id", uuid.NewString())

	var res Result
	args, err := parseChartURLArgs(req.GetArguments())
	switch {
	case err != nil:
		res = Err(err)
	case args.Shorten:
		res = t.builder.CreateChartURL(ctx, args.Config, args.Options)
	default:
		res = t.builder.CreateDirectChartURL(ctx, args.Config, args.Options)
	}

	if res.IsErr() {
		logger.WarnContext(ctx, "chart url failed", "error", res.Err, "duration", time.Since(start))
		return mcp.NewToolResultError(res.String()), nil
	}

	logger.InfoContext(ctx, "chart url created", "url", res.URL, "shorten", args.Shorten, "duration", time.Since(start))
	return mcp.NewToolResultText(res.String()), nil
}

func registerChartURLTool(srv *server.MCPServer, builder *Builder, logger *slog.Logger) {
	t := &chartURLTool{builder: builder, logger: logger}
	tool := mcp.NewToolWithRawSchema(chartURLToolName, chartURLToolDescription, chartURLInputSchema())
	srv.AddTool(tool, t.handle)
}

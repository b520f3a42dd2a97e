package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callChartURL(t *testing.T, b *Builder, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	c := newTestClient(t, b)
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      chartURLToolName,
			Arguments: args,
		},
	})
	require.NoError(t, err)
	return res
}

func TestChartURLTool(t *testing.T) {
	t.Run("is listed with its input schema", func(t *testing.T) {
		c := newTestClient(t, newTestBuilder(t, "https://quickchart.io"))

		result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)
		require.Len(t, result.Tools, 1)

		tool := result.Tools[0]
		assert.Equal(t, chartURLToolName, tool.Name)
		assert.Contains(t, tool.Description, schemaDocsURI)

		b, err := json.Marshal(tool)
		require.NoError(t, err)
		var decoded struct {
			InputSchema struct {
				Properties map[string]any `json:"properties"`
				Required   []string       `json:"required"`
			} `json:"inputSchema"`
		}
		require.NoError(t, json.Unmarshal(b, &decoded))
		assert.Equal(t, []string{"config"}, decoded.InputSchema.Required)
		for _, p := range []string{"config", "width", "height", "format", "backgroundColor", "devicePixelRatio", "version", "shortUrl"} {
			assert.Contains(t, decoded.InputSchema.Properties, p)
		}
	})

	t.Run("returns the short url", func(t *testing.T) {
		mock := startMockQuickChart(t)
		res := callChartURL(t, newTestBuilder(t, mock.URL), map[string]any{
			"config": salesChart,
			"width":  640,
			"format": "webp",
		})

		assert.False(t, res.IsError)
		text := toolText(t, res)
		assert.True(t, strings.HasPrefix(text, mock.URL+"/chart/render/"), text)

		body := mock.lastBody(t)
		assert.Equal(t, float64(640), body["width"])
		assert.Equal(t, "webp", body["format"])
		assert.NotContains(t, body, "height")
	})

	t.Run("null options count as absent", func(t *testing.T) {
		mock := startMockQuickChart(t)
		res := callChartURL(t, newTestBuilder(t, mock.URL), map[string]any{
			"config":          salesChart,
			"height":          nil,
			"backgroundColor": nil,
		})

		assert.False(t, res.IsError)
		assert.Equal(t, map[string]any{"chart": salesChart}, mock.lastBody(t))
	})

	t.Run("direct url", func(t *testing.T) {
		mock := startMockQuickChart(t)
		res := callChartURL(t, newTestBuilder(t, mock.URL), map[string]any{
			"config":   salesChart,
			"shortUrl": false,
			"height":   200,
		})

		assert.False(t, res.IsError)
		u, err := url.Parse(toolText(t, res))
		require.NoError(t, err)
		assert.Equal(t, "/chart", u.Path)
		assert.Equal(t, "200", u.Query().Get("h"))
		assert.Equal(t, int32(0), mock.calls.Load())
	})

	failures := []struct {
		name string
		args map[string]any
		want string
	}{
		{"integer config", map[string]any{"config": 42}, "validation error: config"},
		{"list config", map[string]any{"config": []any{"bar"}}, "validation error: config"},
		{"missing config", map[string]any{"width": 100}, "config: is required"},
		{"width as string", map[string]any{"config": salesChart, "width": "800"}, "width: must be a number"},
		{"fractional height", map[string]any{"config": salesChart, "height": 10.5}, "height: must be an integer"},
		{"unknown format", map[string]any{"config": salesChart, "format": "gif"}, "format: must be one of"},
		{"negative pixel ratio", map[string]any{"config": salesChart, "devicePixelRatio": -1}, "devicePixelRatio"},
		{"shortUrl as string", map[string]any{"config": salesChart, "shortUrl": "yes"}, "shortUrl: must be a boolean"},
	}
	for _, tt := range failures {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			mock := startMockQuickChart(t)
			res := callChartURL(t, newTestBuilder(t, mock.URL), tt.args)

			assert.True(t, res.IsError)
			text := toolText(t, res)
			assert.True(t, strings.HasPrefix(text, errorPrefix), text)
			assert.Contains(t, text, tt.want)
			assert.Equal(t, int32(0), mock.calls.Load())
		})
	}

	t.Run("reports service failures as text", func(t *testing.T) {
		mock := startMockQuickChart(t)
		mock.failWith(http.StatusInternalServerError, "renderer unavailable")

		res := callChartURL(t, newTestBuilder(t, mock.URL), map[string]any{"config": salesChart})

		assert.True(t, res.IsError)
		text := toolText(t, res)
		assert.True(t, strings.HasPrefix(text, errorPrefix), text)
		assert.Contains(t, text, "renderer unavailable")
	})
}

func TestParseChartURLArgs(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		args, err := parseChartURLArgs(map[string]any{"config": salesChart})
		require.NoError(t, err)
		assert.True(t, args.Shorten)
		assert.Equal(t, RenderOptions{}, args.Options)
	})

	t.Run("all options", func(t *testing.T) {
		args, err := parseChartURLArgs(map[string]any{
			"config":           "{type:'bar'}",
			"width":            float64(800),
			"height":           json.Number("600"),
			"format":           "SVG",
			"backgroundColor":  "transparent",
			"devicePixelRatio": 2,
			"version":          "4",
			"shortUrl":         false,
		})
		require.NoError(t, err)
		assert.False(t, args.Shorten)
		assert.Equal(t, 800, *args.Options.Width)
		assert.Equal(t, 600, *args.Options.Height)
		assert.Equal(t, FormatSVG, *args.Options.Format)
		assert.Equal(t, "transparent", *args.Options.BackgroundColor)
		assert.Equal(t, 2.0, *args.Options.DevicePixelRatio)
		assert.Equal(t, "4", *args.Options.Version)
	})

	t.Run("nil arguments", func(t *testing.T) {
		_, err := parseChartURLArgs(nil)
		require.Error(t, err)
	})
}

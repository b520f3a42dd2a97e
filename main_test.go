package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/mikills/tinkerings/chartmcp/quickchart"
)

func ptr[T any](v T) *T { return &v }

// mockQuickChart stands in for the /chart/create endpoint. Every successful
// call gets a distinct short URL on the mock's own host.
type mockQuickChart struct {
	*httptest.Server

	calls  atomic.Int32
	mu     sync.Mutex
	bodies []map[string]any

	status  int
	errText string
}

func startMockQuickChart(t *testing.T) *mockQuickChart {
	t.Helper()
	m := &mockQuickChart{status: http.StatusOK}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chart/create" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		n := m.calls.Add(1)

		var body map[string]any
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		m.mu.Lock()
		m.bodies = append(m.bodies, body)
		m.mu.Unlock()

		if m.status != http.StatusOK {
			w.Header().Set("X-quickchart-error", m.errText)
			w.WriteHeader(m.status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"url":     fmt.Sprintf("%s/chart/render/sf-%d", m.URL, n),
		})
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockQuickChart) failWith(status int, msg string) {
	m.status = status
	m.errText = msg
}

func (m *mockQuickChart) lastBody(t *testing.T) map[string]any {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.bodies, "no request reached the mock")
	return m.bodies[len(m.bodies)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBuilder(t *testing.T, baseURL string) *Builder {
	t.Helper()
	c, err := quickchart.NewWithBaseURL(baseURL)
	require.NoError(t, err)
	return NewBuilder(c, discardLogger())
}

func newTestClient(t *testing.T, b *Builder) *client.Client {
	t.Helper()

	c, err := client.NewInProcessClient(NewServer(b, discardLogger()))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "test-client",
				Version: "1.0.0",
			},
		},
	})
	require.NoError(t, err)
	return c
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("expected text content, got %T", res.Content[0])
		return ""
	}
}

var salesChart = map[string]any{
	"type": "bar",
	"data": map[string]any{
		"labels": []any{"Jan", "Feb"},
		"datasets": []any{
			map[string]any{"label": "Sales", "data": []any{float64(10), float64(25)}},
		},
	},
}

package main

import (
	"context"
	_ "embed"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	schemaDocsURI      = "chart://docs/schema"
	schemaDocsMIMEType = "text/markdown"
)

//go:embed docs/chart_config.md
var schemaDocs string

func registerSchemaDocs(srv *server.MCPServer) {
	resource := mcp.NewResource(
		schemaDocsURI,
		"Chart configuration guide",
		mcp.WithResourceDescription("Format of the Chart.js config accepted by "+chartURLToolName+", with rendering options and examples"),
		mcp.WithMIMEType(schemaDocsMIMEType),
	)

	srv.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      schemaDocsURI,
				MIMEType: schemaDocsMIMEType,
				Text:     schemaDocs,
			},
		}, nil
	})
}

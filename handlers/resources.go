// ABOUTME: MCP resource handlers for migrated shop data
// ABOUTME: Read-only JSON views of run history and the parts catalog via shop:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shopmigrate/db"
)

type ResourceHandlers struct {
	db db.Queryer
}

func NewResourceHandlers(database db.Queryer) *ResourceHandlers {
	return &ResourceHandlers{db: database}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "shop://") {
		return nil, fmt.Errorf("invalid URI scheme: expected shop://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "shop://"), "/")
	switch parts[0] {
	case "runs":
		if len(parts) == 1 || parts[1] == "" {
			runs, err := db.ListRuns(ctx, h.db, 100)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, runs)
		}
		run, err := db.GetRun(ctx, h.db, parts[1])
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, fmt.Errorf("resource not found: %s", uri)
		}
		return jsonResource(uri, run)

	case "parts":
		parts, err := db.ListParts(ctx, h.db, 10000)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, parts)

	default:
		return nil, fmt.Errorf("resource not found: %s", uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// ABOUTME: Quarantine tool handler
// ABOUTME: Lists records a migration run skipped or rejected
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shopmigrate/models"
	"github.com/harperreed/shopmigrate/quarantine"
)

type QuarantineHandlers struct {
	store *quarantine.Store
}

// NewQuarantineHandlers accepts a nil store; the tool then reports that no
// quarantine is configured.
func NewQuarantineHandlers(store *quarantine.Store) *QuarantineHandlers {
	return &QuarantineHandlers{store: store}
}

type ListQuarantineInput struct {
	RunID string `json:"run_id" jsonschema:"Run ID the entries belong to"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum entries to return (default 50)"`
}

type ListQuarantineOutput struct {
	Entries []models.QuarantineEntry `json:"entries"`
	Count   int                      `json:"count"`
	Total   int                      `json:"total"`
}

func (h *QuarantineHandlers) ListQuarantine(_ context.Context, _ *mcp.CallToolRequest, input ListQuarantineInput) (*mcp.CallToolResult, ListQuarantineOutput, error) {
	if h.store == nil {
		return nil, ListQuarantineOutput{}, fmt.Errorf("quarantine is not configured (set quarantine_dir)")
	}
	if input.RunID == "" {
		return nil, ListQuarantineOutput{}, fmt.Errorf("run_id is required")
	}
	if input.Limit == 0 {
		input.Limit = 50
	}

	entries, err := h.store.List(input.RunID, input.Limit)
	if err != nil {
		return nil, ListQuarantineOutput{}, err
	}
	total, err := h.store.Count(input.RunID)
	if err != nil {
		return nil, ListQuarantineOutput{}, err
	}
	if entries == nil {
		entries = []models.QuarantineEntry{}
	}
	return &mcp.CallToolResult{}, ListQuarantineOutput{Entries: entries, Count: len(entries), Total: total}, nil
}

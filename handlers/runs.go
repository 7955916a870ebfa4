// ABOUTME: Migration run history tool handlers
// ABOUTME: Lists recent runs and fetches one run's counters
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/models"
)

type RunHandlers struct {
	db db.Queryer
}

func NewRunHandlers(database db.Queryer) *RunHandlers {
	return &RunHandlers{db: database}
}

type ListRunsInput struct {
	Kind  string `json:"kind,omitempty" jsonschema:"Only runs of this migration (clients, repairs, inventory, raw-columns)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum runs to return (default 20)"`
}

type ListRunsOutput struct {
	Runs  []models.MigrationRun `json:"runs"`
	Count int                   `json:"count"`
}

func (h *RunHandlers) ListRuns(ctx context.Context, _ *mcp.CallToolRequest, input ListRunsInput) (*mcp.CallToolResult, ListRunsOutput, error) {
	if input.Limit == 0 {
		input.Limit = 20
	}

	fetch := input.Limit
	if input.Kind != "" {
		fetch = 1000
	}
	runs, err := db.ListRuns(ctx, h.db, fetch)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}

	out := ListRunsOutput{Runs: []models.MigrationRun{}}
	for _, r := range runs {
		if len(out.Runs) == input.Limit {
			break
		}
		if input.Kind != "" && r.Kind != input.Kind {
			continue
		}
		out.Runs = append(out.Runs, r)
	}
	out.Count = len(out.Runs)
	return &mcp.CallToolResult{}, out, nil
}

type GetRunInput struct {
	ID string `json:"id" jsonschema:"Run ID"`
}

type GetRunOutput struct {
	Run      models.MigrationRun `json:"run"`
	Balanced bool                `json:"balanced"`
}

func (h *RunHandlers) GetRun(ctx context.Context, _ *mcp.CallToolRequest, input GetRunInput) (*mcp.CallToolResult, GetRunOutput, error) {
	if input.ID == "" {
		return nil, GetRunOutput{}, fmt.Errorf("id is required")
	}

	run, err := db.GetRun(ctx, h.db, input.ID)
	if err != nil {
		return nil, GetRunOutput{}, err
	}
	if run == nil {
		return nil, GetRunOutput{}, fmt.Errorf("run not found: %s", input.ID)
	}
	return &mcp.CallToolResult{}, GetRunOutput{Run: *run, Balanced: run.Stats.Balanced()}, nil
}

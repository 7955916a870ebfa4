// ABOUTME: MCP prompt handlers for reviewing migration runs
// ABOUTME: Turns a run's counters and quarantine reasons into an analysis request
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shopmigrate/db"
)

type PromptHandlers struct {
	db db.Queryer
}

func NewPromptHandlers(database db.Queryer) *PromptHandlers {
	return &PromptHandlers{db: database}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "run-review":
		return h.getRunReviewPrompt(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getRunReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["run_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("run_id is required")
	}

	run, err := db.GetRun(ctx, h.db, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run not found: %s", id)
	}

	s := run.Stats
	var text strings.Builder
	text.WriteString("Please review this legacy data migration run:\n\n")
	fmt.Fprintf(&text, "Migration: %s\n", run.Kind)
	fmt.Fprintf(&text, "Status: %s\n", run.Status)
	fmt.Fprintf(&text, "Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&text, "\nRecords read: %d\n", s.Read)
	fmt.Fprintf(&text, "Skipped (malformed): %d\n", s.Skipped)
	fmt.Fprintf(&text, "Rejected (invalid): %d\n", s.Rejected)
	fmt.Fprintf(&text, "Duplicates: %d\n", s.Duplicates)
	fmt.Fprintf(&text, "Inserted: %d, updated: %d, unchanged: %d\n", s.Inserted, s.Updated, s.Unchanged)
	if s.WriteFailed > 0 {
		fmt.Fprintf(&text, "Failed writes: %d\n", s.WriteFailed)
	}

	if len(s.Reasons) > 0 {
		reasons := make([]string, 0, len(s.Reasons))
		for r := range s.Reasons {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		text.WriteString("\nReasons:\n")
		for _, r := range reasons {
			fmt.Fprintf(&text, "- %s: %d\n", r, s.Reasons[r])
		}
	}
	for _, fe := range s.FileErrors {
		fmt.Fprintf(&text, "Unreadable file: %s\n", fe)
	}
	if run.Error != "" {
		fmt.Fprintf(&text, "\nError: %s\n", run.Error)
	}

	text.WriteString("\nPlease provide:")
	text.WriteString("\n1. Whether the loss rate looks normal for a decades-old shop database")
	text.WriteString("\n2. Which rejection reasons deserve a look at the quarantined records")
	text.WriteString("\n3. Whether the run should be repeated")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of %s run %s", run.Kind, run.ID),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text.String()},
			},
		},
	}, nil
}

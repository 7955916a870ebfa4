// ABOUTME: Universal query tool handler
// ABOUTME: Looks up migrated clients, repairs and parts with one tool
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/models"
)

type QueryHandlers struct {
	db db.Queryer
}

func NewQueryHandlers(database db.Queryer) *QueryHandlers {
	return &QueryHandlers{db: database}
}

type QueryShopInput struct {
	EntityType string `json:"entity_type" jsonschema:"Type of entity to query (client, repair, part)"`
	Query      string `json:"query,omitempty" jsonschema:"Client name fragment, or the claim number for repairs"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryShopOutput struct {
	EntityType string `json:"entity_type"`
	Results    []any  `json:"results"`
	Count      int    `json:"count"`
}

func (h *QueryHandlers) QueryShop(ctx context.Context, _ *mcp.CallToolRequest, input QueryShopInput) (*mcp.CallToolResult, QueryShopOutput, error) {
	if input.Limit == 0 {
		input.Limit = 10
	}

	switch input.EntityType {
	case "client":
		return h.queryClients(ctx, input)
	case "repair":
		return h.queryRepairs(ctx, input)
	case "part":
		return h.queryParts(ctx, input)
	default:
		return nil, QueryShopOutput{}, fmt.Errorf("invalid entity_type: %s (valid: client, repair, part)", input.EntityType)
	}
}

func (h *QueryHandlers) queryClients(ctx context.Context, input QueryShopInput) (*mcp.CallToolResult, QueryShopOutput, error) {
	clients, err := db.FindClients(ctx, h.db, input.Query, input.Limit)
	if err != nil {
		return nil, QueryShopOutput{}, err
	}

	results := make([]any, len(clients))
	for i, c := range clients {
		results[i] = c
	}
	return &mcp.CallToolResult{}, QueryShopOutput{EntityType: "client", Results: results, Count: len(results)}, nil
}

func (h *QueryHandlers) queryRepairs(ctx context.Context, input QueryShopInput) (*mcp.CallToolResult, QueryShopOutput, error) {
	claim := strings.TrimSpace(input.Query)
	if claim == "" {
		return nil, QueryShopOutput{}, fmt.Errorf("query must hold a claim number for repairs")
	}

	repair, err := db.GetRepairByClaim(ctx, h.db, claim)
	if err != nil {
		return nil, QueryShopOutput{}, err
	}

	results := []any{}
	if repair != nil {
		results = append(results, repairWithClient(ctx, h.db, repair))
	}
	return &mcp.CallToolResult{}, QueryShopOutput{EntityType: "repair", Results: results, Count: len(results)}, nil
}

func (h *QueryHandlers) queryParts(ctx context.Context, input QueryShopInput) (*mcp.CallToolResult, QueryShopOutput, error) {
	parts, err := db.ListParts(ctx, h.db, 10000)
	if err != nil {
		return nil, QueryShopOutput{}, err
	}

	q := strings.ToUpper(strings.TrimSpace(input.Query))
	results := []any{}
	for _, p := range parts {
		if len(results) == input.Limit {
			break
		}
		if q == "" || partMatches(p, q) {
			results = append(results, p)
		}
	}
	return &mcp.CallToolResult{}, QueryShopOutput{EntityType: "part", Results: results, Count: len(results)}, nil
}

func partMatches(p models.Part, q string) bool {
	if strings.Contains(strings.ToUpper(p.Name), q) {
		return true
	}
	for _, a := range p.Aliases {
		if strings.Contains(strings.ToUpper(a), q) {
			return true
		}
	}
	return false
}

type repairOutput struct {
	models.Repair
	Client *models.Client `json:"client,omitempty"`
}

func repairWithClient(ctx context.Context, q db.Queryer, r *models.Repair) repairOutput {
	out := repairOutput{Repair: *r}
	if r.ClientID != nil {
		// a missing client only drops the enrichment
		out.Client, _ = db.GetClient(ctx, q, *r.ClientID)
	}
	return out
}

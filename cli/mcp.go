// ABOUTME: MCP server subcommand
// ABOUTME: Serves read-only shop lookups, run history and record inspection on stdio
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/handlers"
	"github.com/harperreed/shopmigrate/legacy"
)

func newMCPCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.logger.Info("starting MCP server")

			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			store, err := a.openQuarantine()
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			layouts, err := legacy.LoadLayouts(a.cfg.LayoutFile)
			if err != nil {
				return err
			}
			recordHandlers, err := handlers.NewRecordHandlers(a.cfg.DataDir, layouts)
			if err != nil {
				return err
			}

			server := newMCPServer(cmd.Root().Version, database, recordHandlers, handlers.NewQuarantineHandlers(store))

			err = server.Run(ctx, &mcp.StdioTransport{})
			if err != nil {
				a.logger.Error("MCP server stopped", zap.Error(err))
			}
			return err
		},
	}
}

func newMCPServer(version string, database db.Queryer, records *handlers.RecordHandlers, quarantined *handlers.QuarantineHandlers) *mcp.Server {
	queryHandlers := handlers.NewQueryHandlers(database)
	runHandlers := handlers.NewRunHandlers(database)
	resourceHandlers := handlers.NewResourceHandlers(database)
	promptHandlers := handlers.NewPromptHandlers(database)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "shopmigrate",
		Version: version,
	}, nil)

	// Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_shop",
		Description: "Look up migrated clients by name, repairs by claim number, or parts by name or alias",
	}, queryHandlers.QueryShop)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List recent migration runs with their counters, optionally for one migration kind",
	}, runHandlers.ListRuns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_run",
		Description: "Get one migration run with its counters, reasons and unreadable files",
	}, runHandlers.GetRun)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inspect_record",
		Description: "Decode one record of a legacy customer or claim file field by field",
	}, records.InspectRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_quarantine",
		Description: "List the records a migration run skipped or rejected, with raw bytes",
	}, quarantined.ListQuarantine)

	// Register resources
	server.AddResource(&mcp.Resource{
		URI:         "shop://runs",
		Name:        "runs",
		Description: "Recent migration runs",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "shop://runs/{id}",
		Name:        "run",
		Description: "One migration run",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "shop://parts",
		Name:        "parts",
		Description: "The migrated parts catalog",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Register prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        "run-review",
		Description: "Ask for an assessment of one migration run",
		Arguments: []*mcp.PromptArgument{
			{Name: "run_id", Description: "Run ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}

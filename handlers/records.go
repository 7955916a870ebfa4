// ABOUTME: Legacy record inspection tool handler
// ABOUTME: Decodes one record of a data directory file field by field
package handlers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shopmigrate/legacy"
)

type RecordHandlers struct {
	dataDir   string
	customers *legacy.CustomerDecoder
	repairs   *legacy.RepairDecoder
}

func NewRecordHandlers(dataDir string, layouts legacy.Layouts) (*RecordHandlers, error) {
	customers, err := legacy.NewCustomerDecoder(layouts.Customer)
	if err != nil {
		return nil, err
	}
	repairs, err := legacy.NewRepairDecoder(layouts.Repair)
	if err != nil {
		return nil, err
	}
	return &RecordHandlers{dataDir: dataDir, customers: customers, repairs: repairs}, nil
}

type InspectRecordInput struct {
	Format string `json:"format" jsonschema:"Record format (customer, repair)"`
	File   string `json:"file" jsonschema:"File name inside the data directory, e.g. CLAIMS2019.DAT"`
	Index  int    `json:"index" jsonschema:"Zero-based record index"`
}

func (h *RecordHandlers) InspectRecord(_ context.Context, _ *mcp.CallToolRequest, input InspectRecordInput) (*mcp.CallToolResult, legacy.Inspection, error) {
	if h.dataDir == "" {
		return nil, legacy.Inspection{}, fmt.Errorf("no data directory configured")
	}
	if input.File == "" || filepath.Base(input.File) != input.File {
		return nil, legacy.Inspection{}, fmt.Errorf("file must be a plain file name, got %q", input.File)
	}
	path := legacy.FindFile(h.dataDir, input.File)

	var (
		in  *legacy.Inspection
		err error
	)
	switch input.Format {
	case "customer":
		var f *legacy.RecordFile
		if f, err = legacy.ReadRecordFile(path, h.customers.Layout().RecordSize); err == nil {
			in, err = legacy.InspectCustomer(f, input.Index, h.customers)
		}
	case "repair":
		var f *legacy.RecordFile
		if f, err = legacy.ReadRecordFile(path, h.repairs.Layout().RecordSize); err == nil {
			in, err = legacy.InspectRepair(f, input.Index, h.repairs)
		}
	default:
		return nil, legacy.Inspection{}, fmt.Errorf("invalid format: %s (valid: customer, repair)", input.Format)
	}
	if err != nil {
		return nil, legacy.Inspection{}, err
	}
	return &mcp.CallToolResult{}, *in, nil
}

// ABOUTME: inspect subcommands that decode single legacy records and dBase tables
// ABOUTME: Shows raw bytes next to decoded values for diagnosing layouts
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/shopmigrate/dbf"
	"github.com/harperreed/shopmigrate/legacy"
)

func newInspectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode legacy records without loading them",
	}

	var asJSON bool
	for _, format := range []string{"customer", "repair"} {
		sub := &cobra.Command{
			Use:   format + " <file> <index>",
			Short: fmt.Sprintf("Decode one %s record by zero-based index", format),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				index, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid index %q: %w", args[1], err)
				}
				in, err := a.inspectRecord(format, args[0], index)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(in)
				}
				printInspection(cmd.OutOrStdout(), in)
				return nil
			},
		}
		sub.Flags().BoolVar(&asJSON, "json", false, "print the inspection as JSON")
		cmd.AddCommand(sub)
	}

	var limit int
	dbfCmd := &cobra.Command{
		Use:   "dbf <file>",
		Short: "Dump a dBase table's header, fields and first rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			charset, err := dbf.CharsetByName(a.cfg.DBFCharset)
			if err != nil {
				return err
			}
			var opts []dbf.Option
			if charset != nil {
				opts = append(opts, dbf.WithCharset(charset))
			}
			f, err := dbf.ReadFile(args[0], opts...)
			if err != nil {
				return err
			}
			printDBF(cmd.OutOrStdout(), f, limit)
			return nil
		},
	}
	dbfCmd.Flags().IntVar(&limit, "limit", 10, "rows to show")
	cmd.AddCommand(dbfCmd)

	return cmd
}

func (a *app) inspectRecord(format, path string, index int) (*legacy.Inspection, error) {
	layouts, err := legacy.LoadLayouts(a.cfg.LayoutFile)
	if err != nil {
		return nil, err
	}

	switch format {
	case "customer":
		d, err := legacy.NewCustomerDecoder(layouts.Customer)
		if err != nil {
			return nil, err
		}
		f, err := legacy.ReadRecordFile(path, layouts.Customer.RecordSize)
		if err != nil {
			return nil, err
		}
		return legacy.InspectCustomer(f, index, d)
	default:
		d, err := legacy.NewRepairDecoder(layouts.Repair)
		if err != nil {
			return nil, err
		}
		f, err := legacy.ReadRecordFile(path, layouts.Repair.RecordSize)
		if err != nil {
			return nil, err
		}
		return legacy.InspectRepair(f, index, d)
	}
}

func printInspection(out io.Writer, in *legacy.Inspection) {
	status := in.Outcome
	if in.Reason != "" {
		status += " (" + in.Reason + ")"
	}
	_, _ = fmt.Fprintf(out, "%s record %d, %d bytes: %s\n\n", in.Source, in.Index, in.Size, status)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tOFFSET\tLEN\tRAW\tVALUE")
	for _, f := range in.Fields {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", f.Name, f.Offset, f.Length, f.Raw, legacy.EscapeBytes([]byte(f.Value)))
	}
	_ = w.Flush()

	var decoded any
	switch {
	case in.Customer != nil:
		decoded = in.Customer
	case in.Repair != nil:
		decoded = in.Repair
	default:
		return
	}
	data, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(out, "\nDecoded:\n%s\n", data)
}

func printDBF(out io.Writer, f *dbf.File, limit int) {
	h := f.Header
	_, _ = fmt.Fprintf(out, "%s: version 0x%02x, %d records, header %d bytes, record %d bytes",
		f.Name, h.Version, h.RecordCount, h.HeaderLength, h.RecordLength)
	if !h.LastUpdate.IsZero() {
		_, _ = fmt.Fprintf(out, ", updated %s", h.LastUpdate.Format("2006-01-02"))
	}
	_, _ = fmt.Fprintln(out)
	st := f.Stats
	_, _ = fmt.Fprintf(out, "active %d, deleted %d, malformed %d, truncated %d\n\n", st.Active, st.Deleted, st.Malformed, st.Truncated)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tTYPE\tLEN\tDEC")
	for _, fd := range f.Fields {
		_, _ = fmt.Fprintf(w, "%s\t%c\t%d\t%d\n", fd.Name, fd.Type, fd.Length, fd.Decimals)
	}
	_ = w.Flush()

	if limit <= 0 || len(f.Rows) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)

	names := make([]string, len(f.Fields))
	for i, fd := range f.Fields {
		names[i] = fd.Name
	}
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(names, "\t"))
	for i, row := range f.Rows {
		if i == limit {
			break
		}
		values := make([]string, len(names))
		for j, name := range names {
			values[j] = formatValue(row[name])
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	_ = w.Flush()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "T"
		}
		return "F"
	case string:
		if v == "" {
			return "-"
		}
		return v
	}
	return fmt.Sprint(v)
}

// ABOUTME: Run summary rendering for terminals and plain output
// ABOUTME: Styled with lipgloss on a TTY, tab-aligned text otherwise
package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/shopmigrate/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

func printSummary(w io.Writer, runs []*models.MigrationRun, dryRun bool) {
	if len(runs) == 0 {
		return
	}
	if isTerminal(w) {
		_, _ = fmt.Fprintln(w, renderStyledSummary(runs, dryRun))
		return
	}
	_, _ = fmt.Fprint(w, renderPlainSummary(runs, dryRun))
}

func summaryTitle(dryRun bool) string {
	if dryRun {
		return "MIGRATION SUMMARY (dry run, nothing written)"
	}
	return "MIGRATION SUMMARY"
}

func renderPlainSummary(runs []*models.MigrationRun, dryRun bool) string {
	var sb strings.Builder
	sb.WriteString(summaryTitle(dryRun) + "\n")

	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tSTATUS\tREAD\tSKIPPED\tREJECTED\tDUPLICATES\tINSERTED\tUPDATED\tUNCHANGED\tPENDING\tFAILED")
	for _, r := range runs {
		s := r.Stats
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.Kind, r.Status, s.Read, s.Skipped, s.Rejected, s.Duplicates, s.Inserted, s.Updated, s.Unchanged, s.Pending, s.WriteFailed)
	}
	_ = w.Flush()

	for _, r := range runs {
		sb.WriteString(runDetails(r))
	}
	return sb.String()
}

func runDetails(r *models.MigrationRun) string {
	var sb strings.Builder
	if len(r.Stats.Reasons) > 0 {
		keys := make([]string, 0, len(r.Stats.Reasons))
		for k := range r.Stats.Reasons {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, r.Stats.Reasons[k]))
		}
		fmt.Fprintf(&sb, "%s reasons: %s\n", r.Kind, strings.Join(parts, " "))
	}
	for _, fe := range r.Stats.FileErrors {
		fmt.Fprintf(&sb, "%s unreadable: %s\n", r.Kind, fe)
	}
	if r.Error != "" {
		fmt.Fprintf(&sb, "%s error: %s\n", r.Kind, r.Error)
	}
	return sb.String()
}

func renderStyledSummary(runs []*models.MigrationRun, dryRun bool) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(summaryTitle(dryRun)))
	sb.WriteString("\n")

	for _, r := range runs {
		s := r.Stats
		status := okStyle.Render("✓ " + r.Status)
		if r.Status != models.RunStatusCompleted {
			status = failStyle.Render("✗ " + r.Status)
		}

		written := fmt.Sprintf("inserted %d  updated %d  unchanged %d", s.Inserted, s.Updated, s.Unchanged)
		if dryRun {
			written = fmt.Sprintf("would write %d", s.Pending)
		}
		lines := []string{
			headerStyle.Render(r.Kind) + "  " + status,
			fmt.Sprintf("read %d  skipped %d  rejected %d  duplicates %d", s.Read, s.Skipped, s.Rejected, s.Duplicates),
			written,
		}
		if s.WriteFailed > 0 {
			lines = append(lines, failStyle.Render(fmt.Sprintf("failed writes %d", s.WriteFailed)))
		}
		if details := strings.TrimSpace(runDetails(r)); details != "" {
			lines = append(lines, dimStyle.Render(details))
		}
		lines = append(lines, dimStyle.Render("run "+r.ID))
		sb.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
		sb.WriteString("\n")
	}
	return sb.String()
}

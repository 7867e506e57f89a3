// ABOUTME: Terminal styles and table helpers shared by CLI commands
// ABOUTME: Headers and states are rendered with lipgloss; tables with tabwriter
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/bizcrm/cache"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func title(w io.Writer, text string) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(text))
}

func success(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, okStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func warning(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, warnStyle.Render("! "+fmt.Sprintf(format, args...)))
}

// table writes a header, a dashed rule and rows separated by tabs.
func table(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
	rule := make([]string, len(header))
	for i, h := range header {
		rule[i] = strings.Repeat("-", len(h))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, r := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// resolveID finds the record whose ID equals ref or uniquely starts with it.
func resolveID[T cache.Record](items []T, ref string) (string, error) {
	var match string
	for _, it := range items {
		id := it.GetID()
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", ref)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("no record with id %q", ref)
	}
	return match, nil
}

package commands

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/report"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const rule = "───────────────────────────────────────────────────────────"

// PrintHeader prints a titled section header
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, rule)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTable prints a report table with columns sized to their content
func PrintTable(w io.Writer, t report.Table) {
	rows := t.StringRows()

	widths := make([]int, len(t.Header))
	for i, col := range t.Header {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	printRow(w, t.Header, widths)

	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", total))

	if len(rows) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintWindow prints the companies and period a view covers
func PrintWindow(w io.Writer, win analytics.Window) {
	PrintKeyValue(w, "Companies", fmt.Sprintf("%d (%s)", len(win.Companies), strings.Join(win.Companies, ", ")), 9)
	if !win.From.IsZero() {
		PrintKeyValue(w, "Period", win.From.Format(contracts.DateLayout)+" ~ "+win.To.Format(contracts.DateLayout), 9)
	}
	PrintKeyValue(w, "Rows", fmt.Sprintf("%d", win.Rows), 9)
}

// PrintWarnings prints one line per skipped file
func PrintWarnings(w io.Writer, warnings []contracts.FileWarning) {
	for _, warn := range warnings {
		PrintWarning(w, warn.String())
	}
}

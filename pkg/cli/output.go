package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var outputJSON bool

func SetJSONOutput(enabled bool) {
	outputJSON = enabled
}

func IsJSONOutput() bool {
	return outputJSON
}

// PrintJSON writes data as indented JSON when --json is set and reports whether it did
func PrintJSON(data interface{}) bool {
	if !outputJSON {
		return false
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(data)
	return true
}

func PrintSuccess(msg string) {
	fmt.Printf("  %s %s\n", SuccessStyle.Render(SymbolSuccess), msg)
}

// PrintSuccessWithValue prints a success line with a dimmed id or address after it
func PrintSuccessWithValue(msg, value string) {
	fmt.Printf("  %s %-40s %s\n", SuccessStyle.Render(SymbolSuccess), msg, DimStyle.Render(value))
}

func PrintErrorMsg(msg string) {
	fmt.Printf("  %s %s\n", ErrorStyle.Render(SymbolError), ErrorStyle.Render(msg))
}

func PrintInfo(msg string) {
	fmt.Printf("  %s %s\n", InfoStyle.Render(SymbolInfo), msg)
}

func PrintHint(msg string) {
	fmt.Printf("\n  %s\n", HintStyle.Render(msg))
}

func PrintSuggestions(title string, suggestions []string) {
	fmt.Println()
	fmt.Printf("  %s\n", DimStyle.Render(title))
	for _, s := range suggestions {
		fmt.Printf("    %s %s\n", DimStyle.Render(SymbolBullet), s)
	}
}

func PrintKeyValue(key, value string) {
	fmt.Printf("  %s %s\n", KeyStyle.Render(key), value)
}

func PrintNewline() {
	fmt.Println()
}

// Table lays out rows under headers. Column widths are measured on the
// rendered text, so cells may carry styles such as a job status color.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow appends a row, padding missing cells and dropping extra ones
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	for i, cell := range row {
		if w := lipgloss.Width(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Print() {
	t.Render(os.Stdout)
}

// Render writes the table to w. An empty table writes nothing.
func (t *Table) Render(w io.Writer) {
	if len(t.rows) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, h := range t.headers {
		b.WriteString(TableHeaderStyle.Width(t.widths[i] + 2).Render(h))
	}
	b.WriteString("\n  ")
	for i := range t.headers {
		b.WriteString(DimStyle.Render(strings.Repeat("─", t.widths[i])))
		b.WriteString("  ")
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		b.WriteString("  ")
		for i, cell := range row {
			b.WriteString(TableCellStyle.Width(t.widths[i] + 2).Render(cell))
		}
		b.WriteString("\n")
	}
	io.WriteString(w, b.String())
}

// RelativeTime renders at relative to now, e.g. "3 minutes ago" for a last
// sync or "in 12 minutes" for a job's next run.
func RelativeTime(at, now time.Time) string {
	d := now.Sub(at)
	future := d < 0
	if future {
		d = -d
	}

	var amount string
	switch {
	case d < time.Minute:
		if future {
			return "in under a minute"
		}
		return "just now"
	case d < time.Hour:
		amount = plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		amount = plural(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		amount = plural(int(d.Hours()/24), "day")
	default:
		return at.Local().Format("Jan 2, 2006 15:04")
	}

	if future {
		return "in " + amount
	}
	return amount + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Truncate shortens s to at most maxLen runes, ending in "..." when cut
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

package cli

import (
	"github.com/beam-cloud/mailsync/pkg/types"
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorPrimary = lipgloss.Color("#0EA5E9") // sky
	ColorSuccess = lipgloss.Color("#22C55E")
	ColorError   = lipgloss.Color("#EF4444")
	ColorInfo    = lipgloss.Color("#3B82F6")
	ColorSubtle  = lipgloss.Color("#6B7280")
	ColorMuted   = lipgloss.Color("#9CA3AF")
)

const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolInfo    = "→"
	SymbolBullet  = "•"
)

var (
	BrandStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorInfo)

	BoldStyle  = lipgloss.NewStyle().Bold(true)
	DimStyle   = lipgloss.NewStyle().Foreground(ColorSubtle)
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	CodeStyle  = lipgloss.NewStyle().Foreground(ColorPrimary)
	HintStyle  = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)

	// KeyStyle is wide enough for "Next run" and "Account"
	KeyStyle = lipgloss.NewStyle().Foreground(ColorSubtle).Width(12)

	// Headers stay on one line; Table draws its own separator
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorSubtle)
	TableCellStyle   = lipgloss.NewStyle()
)

// IndentedStyle returns a style with the given indent level (2 spaces per level)
func IndentedStyle(level int) lipgloss.Style {
	return lipgloss.NewStyle().PaddingLeft(level * 2)
}

// JobStatusStyle picks the style used to render a job status
func JobStatusStyle(status types.JobStatus) lipgloss.Style {
	switch status {
	case types.JobStatusCompleted:
		return SuccessStyle
	case types.JobStatusFailed:
		return ErrorStyle
	case types.JobStatusRunning:
		return InfoStyle
	case types.JobStatusCancelled:
		return MutedStyle
	}
	return DimStyle
}

// RenderJobStatus renders a job status in its style
func RenderJobStatus(status types.JobStatus) string {
	return JobStatusStyle(status).Render(string(status))
}

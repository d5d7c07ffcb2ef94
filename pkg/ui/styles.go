package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette for bid-analysis output
var (
	// Brand colors
	Primary   = lipgloss.Color("#2563EB") // Blue - brand color
	Secondary = lipgloss.Color("#0EA5E9") // Light blue

	// Risk level colors
	RiskLowColor      = lipgloss.Color("#6BCB77") // Green
	RiskMediumColor   = lipgloss.Color("#FFD93D") // Yellow
	RiskHighColor     = lipgloss.Color("#FF6B6B") // Red/Orange
	RiskCriticalColor = lipgloss.Color("#FF0000") // Bright red

	// Status colors
	Success = lipgloss.Color("#00D26A") // Bright green
	Warning = lipgloss.Color("#FFB800") // Amber
	Error   = lipgloss.Color("#FF3838") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray

	// Verdict colors
	BestColor    = lipgloss.Color("#00D26A") // Green - winning value
	WorstColor   = lipgloss.Color("#FF3838") // Red - losing value
	NeutralColor = lipgloss.Color("#9CA3AF") // Gray - in between
)

// Pre-configured styles
var (
	// Title and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Banner style
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Version badge
	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Section headers
	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			MarginTop(1)

	// Configuration display
	ConfigLabelStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Width(15)

	ConfigValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))

	// Statistics
	StatLabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	StatValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	// Bracketed metadata
	BracketStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Verdict styles
	BestStyle = lipgloss.NewStyle().
			Foreground(BestColor).
			Bold(true)

	WorstStyle = lipgloss.NewStyle().
			Foreground(WorstColor).
			Bold(true)

	NeutralStyle = lipgloss.NewStyle().
			Foreground(NeutralColor)

	// Message markers
	PassStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	// Divider
	DividerStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Help/footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// URL style
	URLStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)

	// Project name badge
	ProjectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3B3B4F")).
			Padding(0, 1)

	// Accent marker (info lines)
	AccentStyle = lipgloss.NewStyle().
			Foreground(Primary)

	// Money amounts
	MoneyStyle = lipgloss.NewStyle().
			Foreground(Secondary)
)

// RiskStyle returns the badge style for a risk level label. Levels are
// free text from the upstream analysis; matching is case-insensitive.
func RiskStyle(level string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch strings.ToUpper(level) {
	case "LOW":
		return base.Foreground(lipgloss.Color("#000000")).Background(RiskLowColor)
	case "MEDIUM", "MODERATE":
		return base.Foreground(lipgloss.Color("#000000")).Background(RiskMediumColor)
	case "HIGH":
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(RiskHighColor)
	case "CRITICAL", "SEVERE":
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(RiskCriticalColor)
	default:
		return base.Foreground(Muted)
	}
}

// RecommendationStyle returns the style for a bid recommendation.
func RecommendationStyle(rec string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch rec {
	case "YES":
		return base.Foreground(Success)
	case "NO":
		return base.Foreground(Error)
	case "MAYBE":
		return base.Foreground(Warning)
	default:
		return base.Foreground(Muted)
	}
}

// ClassificationStyle returns the style for a per-metric verdict
// ("best", "worst", "neutral").
func ClassificationStyle(classification string) lipgloss.Style {
	switch classification {
	case "best":
		return BestStyle
	case "worst":
		return WorstStyle
	default:
		return NeutralStyle
	}
}

// RankStyle highlights the top-ranked report.
func RankStyle(rank int) lipgloss.Style {
	if rank == 1 {
		return BestStyle
	}
	return StatValueStyle
}

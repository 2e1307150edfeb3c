// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/JJCAR01/UX/internal/view"
)

// Color palette - warehouse slate and signal colors
var (
	colorPaper     = lipgloss.Color("#F5F7FA")
	colorSlate     = lipgloss.Color("#2F3B4C")
	colorSteel     = lipgloss.Color("#5C6B7F")
	colorTeal      = lipgloss.Color("#2BB3A3")
	colorHighlight = lipgloss.Color("#FFB020")
	colorSuccess   = lipgloss.Color("#4CAF50")
	colorWarning   = lipgloss.Color("#FFC107")
	colorError     = lipgloss.Color("#F44336")
	colorInfo      = lipgloss.Color("#42A5F5")
	colorMuted     = lipgloss.Color("#9E9E9E")
)

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// App container
	App lipgloss.Style

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderUser  lipgloss.Style

	// Sidebar
	Sidebar         lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style

	// Content
	Title     lipgloss.Style
	Card      lipgloss.Style
	CardFocus lipgloss.Style
	StatValue lipgloss.Style
	StatLabel lipgloss.Style
	Checked   lipgloss.Style
	PageCur   lipgloss.Style
	Table     table.Styles

	// Stock badges
	StockCritical lipgloss.Style
	StockLow      lipgloss.Style
	StockNormal   lipgloss.Style
	StockHigh     lipgloss.Style

	// Notifications
	NoticeSuccess lipgloss.Style
	NoticeError   lipgloss.Style
	NoticeWarning lipgloss.Style
	NoticeInfo    lipgloss.Style

	// General
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Box       lipgloss.Style
	HelpBar   lipgloss.Style
}

// DefaultStyles returns the default TUI styles.
func DefaultStyles() Styles {
	card := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSteel).
		Padding(0, 1)

	tbl := table.DefaultStyles()
	tbl.Header = tbl.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSteel).
		BorderBottom(true).
		Foreground(colorTeal).
		Bold(true)
	tbl.Selected = tbl.Selected.
		Foreground(colorSlate).
		Background(colorHighlight).
		Bold(false)

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorSteel).
			MarginBottom(1).
			Padding(0, 1),

		HeaderTitle: lipgloss.NewStyle().
			Foreground(colorTeal).
			Bold(true),

		HeaderUser: lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(colorSteel).
			PaddingRight(2).
			MarginRight(2),

		SidebarItem: lipgloss.NewStyle().
			Foreground(colorPaper).
			PaddingLeft(2),

		SidebarSelected: lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true).
			PaddingLeft(1).
			SetString("▸"),

		Title: lipgloss.NewStyle().
			Foreground(colorTeal).
			Bold(true).
			MarginBottom(1),

		Card: card,

		CardFocus: card.
			BorderForeground(colorHighlight),

		StatValue: lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true),

		StatLabel: lipgloss.NewStyle().
			Foreground(colorMuted),

		Checked: lipgloss.NewStyle().
			Foreground(colorTeal).
			Bold(true),

		PageCur: lipgloss.NewStyle().
			Foreground(colorSlate).
			Background(colorTeal).
			Bold(true),

		Table: tbl,

		StockCritical: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),

		StockLow: lipgloss.NewStyle().
			Foreground(colorWarning),

		StockNormal: lipgloss.NewStyle().
			Foreground(colorSuccess),

		StockHigh: lipgloss.NewStyle().
			Foreground(colorInfo),

		NoticeSuccess: lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true),

		NoticeError: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),

		NoticeWarning: lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true),

		NoticeInfo: lipgloss.NewStyle().
			Foreground(colorInfo),

		Subtle: lipgloss.NewStyle().
			Foreground(colorMuted),

		Highlight: lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(colorSuccess),

		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorSteel).
			Padding(1, 2),

		HelpBar: lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1),
	}
}

// Stock returns the badge style for a stock level.
func (s Styles) Stock(l view.StockLevel) lipgloss.Style {
	switch l {
	case view.StockCritical:
		return s.StockCritical
	case view.StockLow:
		return s.StockLow
	case view.StockNormal:
		return s.StockNormal
	default:
		return s.StockHigh
	}
}

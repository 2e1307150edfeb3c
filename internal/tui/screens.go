package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/JJCAR01/UX/internal/importer"
	"github.com/JJCAR01/UX/internal/view"
)

// Number of staged rows shown in the import preview.
const previewRows = 15

// cell pads or cuts s to exactly width cells.
func cell(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

func (m Model) statCard(label string, value string) string {
	return m.styles.Card.Width(20).Render(
		m.styles.StatValue.Render(value) + "\n" + m.styles.StatLabel.Render(label),
	)
}

// Dashboard

func (m Model) viewDashboard() string {
	d := m.ctrl.Dashboard()
	stats := m.snap.Stats

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		m.statCard("Products", fmt.Sprint(d.Total)),
		m.statCard("Updated today", fmt.Sprint(d.UpdatedToday)),
		m.statCard("Low stock", fmt.Sprint(d.LowStock)),
		m.statCard("Critical", fmt.Sprint(stats.Critical)),
	)

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Dashboard"))
	b.WriteString("\n")
	b.WriteString(cards)
	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render(fmt.Sprintf("Estimated inventory value: $%.2f", stats.Value)))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Highlight.Render("Recently updated"))
	b.WriteString("\n")

	if len(d.Recent) == 0 {
		b.WriteString(m.styles.Subtle.Render("No products yet."))
		return b.String()
	}
	for _, p := range d.Recent {
		level := view.StockLevelOf(p.Quantity)
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			cell(p.Code, 12),
			cell(p.Name, 28),
			m.styles.Stock(level).Render(cell(level.Icon()+" "+p.DisplayQuantity(), 18)),
			m.styles.Subtle.Render(formatDate(p.LastUpdated)),
		))
	}
	return b.String()
}

// Reports

func (m Model) viewReports() string {
	br := m.ctrl.Breakdown()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Reports"))
	b.WriteString("\n")
	b.WriteString(m.styles.Highlight.Render("Stock levels"))
	b.WriteString("\n")

	total := 0
	for _, n := range br.ByLevel {
		total += n
	}
	for _, level := range view.StockLevels {
		n := br.ByLevel[level]
		bar := ""
		if total > 0 {
			bar = strings.Repeat("█", n*30/total)
		}
		b.WriteString(fmt.Sprintf("%s %s %3d\n",
			cell(level.Icon()+" "+level.Label(), 12),
			m.styles.Stock(level).Render(cell(bar, 30)),
			n,
		))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Highlight.Render("By category"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render(fmt.Sprintf("%s %8s %8s %12s", cell("Category", 18), "Products", "Units", "Value")))
	b.WriteString("\n")
	for _, c := range br.ByCategory {
		b.WriteString(fmt.Sprintf("%s %8d %8d %12.2f\n", cell(c.Category, 18), c.Products, c.Units, c.Value))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Estimated inventory value: %s", m.styles.StatValue.Render(fmt.Sprintf("$%.2f", br.Value))))
	return b.String()
}

// Import

func (m Model) handleImportPathKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.importPath.Value())
		if path == "" {
			cmd := m.notify(noticeWarning, "Type the path of an .xlsx or .csv file")
			return m, cmd
		}
		m.loading = "Reading file"
		return m, m.stageCmd(path)
	case "esc":
		m.importPath.Blur()
		return m, nil
	case "tab", "shift+tab":
		m.importPath.Blur()
		step := 1
		if msg.String() == "shift+tab" {
			step = -1
		}
		cmd := m.cycleScreen(step)
		return m, cmd
	}

	var cmd tea.Cmd
	m.importPath, cmd = m.importPath.Update(msg)
	return m, cmd
}

func (m Model) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "enter", "i":
		cmd = m.importPath.Focus()
	case "y":
		sum := m.ctrl.ImportSummary()
		if sum.Valid == 0 {
			cmd = m.notify(noticeWarning, userMessage(importer.ErrNothingStaged))
			break
		}
		cmd = m.askConfirm(
			fmt.Sprintf("Import %d products?", sum.Valid),
			fmt.Sprintf("%d rows with errors will be skipped.", sum.Errors),
			func(m *Model) tea.Cmd {
				m.loading = "Importing"
				return m.confirmImportCmd()
			},
		)
	case "n", "esc":
		if m.ctrl.ImportSummary().Total > 0 {
			if err := m.ctrl.CancelImport(); err != nil {
				cmd = m.fail(err)
				break
			}
			m.importPath.Reset()
			cmd = tea.Batch(m.notify(noticeInfo, "Import cancelled"), m.importPath.Focus())
		}
	case "t":
		m.loading = "Writing template"
		cmd = m.templateCmd()
	}
	return m, cmd
}

func (m Model) stageCmd(path string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		sum, err := ctrl.StageImportFile(path)
		return importStagedMsg{summary: sum, err: err}
	}
}

func (m Model) confirmImportCmd() tea.Cmd {
	ctrl := m.ctrl
	timeout := m.opts.Timeout
	return func() tea.Msg {
		// One request per row
		rows := max(ctrl.ImportSummary().Valid, 1)
		ctx, cancel := context.WithTimeout(context.Background(), timeout*time.Duration(rows))
		defer cancel()

		n, err := ctrl.ConfirmImport(ctx)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{text: fmt.Sprintf("%d products imported", n)}
	}
}

func (m Model) templateCmd() tea.Cmd {
	ctrl, dir := m.ctrl, m.opts.ExportDir
	return m.run(func(context.Context) (string, error) {
		path, err := ctrl.WriteImportTemplate(dir)
		if err != nil {
			return "", err
		}
		return "Template written to " + path, nil
	})
}

func (m Model) viewImport() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Import from Excel"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render("Columns: " + strings.Join(importer.Columns, ", ")))
	b.WriteString("\n\n")
	b.WriteString("File: " + m.importPath.View())
	b.WriteString("\n\n")

	rows := m.ctrl.ImportRows()
	if len(rows) == 0 {
		b.WriteString(m.styles.Subtle.Render("No file loaded. Press t to write a template to " + m.opts.ExportDir))
		return b.String()
	}

	sum := m.ctrl.ImportSummary()
	b.WriteString(fmt.Sprintf("%d rows · %s · %s\n\n",
		sum.Total,
		m.styles.Success.Render(fmt.Sprintf("%d valid", sum.Valid)),
		m.styles.Error.Render(fmt.Sprintf("%d with errors", sum.Errors)),
	))

	header := fmt.Sprintf("%s %s %s %s %s %s %s",
		cell("Row", 5), cell("", 2), cell("Code", 12), cell("Name", 24), cell("Category", 14), cell("Qty", 6), "Problems")
	b.WriteString(m.styles.Subtle.Render(header))
	b.WriteString("\n")

	for _, r := range rows[:min(len(rows), previewRows)] {
		status := m.styles.Success.Render("✓ ")
		if !r.Valid() {
			status = m.styles.Error.Render("✗ ")
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s %s %s %s\n",
			cell(fmt.Sprint(r.Row), 5),
			status,
			cell(r.Code, 12),
			cell(r.Name, 24),
			cell(r.Category, 14),
			cell(fmt.Sprint(r.Quantity), 6),
			m.styles.Error.Render(strings.Join(r.Problems, ", ")),
		))
	}
	if len(rows) > previewRows {
		b.WriteString(m.styles.Subtle.Render(fmt.Sprintf("… and %d more rows", len(rows)-previewRows)))
	}
	return b.String()
}

// Profile

func (m Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "l" {
		return m, nil
	}
	cmd := m.confirmLogout()
	return m, cmd
}

func (m *Model) confirmLogout() tea.Cmd {
	return m.askConfirm("Sign out?", "Staged import rows will be discarded.", func(m *Model) tea.Cmd {
		m.ctrl.Logout()
		return m.signedOut("")
	})
}

func (m Model) viewProfile() string {
	s := m.ctrl.Session()
	u, _ := s.User()

	expiry := "no expiry"
	if exp := s.ExpiresAt(); !exp.IsZero() {
		expiry = exp.Local().Format(dateLayout)
		if s.Expired(m.opts.Now()) {
			expiry += m.styles.Error.Render(" (expired)")
		}
	}
	team := s.Team()
	if team == "" {
		team = "-"
	}

	rows := [][2]string{
		{"Name", u.Name},
		{"Email", u.Email},
		{"Role", string(u.Role)},
		{"Team", team},
		{"Session expires", expiry},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(m.styles.StatLabel.Render(cell(r[0], 18)))
		b.WriteString(r[1])
		b.WriteString("\n")
	}

	return m.styles.Title.Render("My Profile") + "\n" + m.styles.Box.Render(strings.TrimRight(b.String(), "\n"))
}

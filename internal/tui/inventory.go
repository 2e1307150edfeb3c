package tui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JJCAR01/UX/internal/app"
	"github.com/JJCAR01/UX/internal/inventory"
	"github.com/JJCAR01/UX/internal/session"
	"github.com/JJCAR01/UX/internal/view"
)

const (
	gridColumns  = 3
	sidebarWidth = 26
	dateLayout   = "02/01/2006 15:04"
)

// cycle returns the item step positions after cur, wrapping around.
func cycle[T comparable](items []T, cur T, step int) T {
	if len(items) == 0 {
		return cur
	}
	i := slices.Index(items, cur)
	if i < 0 {
		i = 0
		step = max(step-1, 0)
	}
	n := len(items)
	return items[((i+step)%n+n)%n]
}

func formatDate(t inventory.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

// current returns the product under the cursor.
func (m Model) current() (inventory.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Visible) {
		return inventory.Product{}, false
	}
	return m.snap.Visible[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	if len(m.snap.Visible) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.snap.Visible)-1, m.cursor+delta))
	m.table.SetCursor(m.cursor)
}

func (m Model) gridLayout() bool {
	return m.snap.State.Layout == view.LayoutGrid
}

func (m Model) handleInventoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.snap.State
	var cmd tea.Cmd

	switch key := msg.String(); key {
	// Cursor
	case "up", "k":
		if m.gridLayout() {
			m.moveCursor(-gridColumns)
		} else {
			m.moveCursor(-1)
		}
	case "down", "j":
		if m.gridLayout() {
			m.moveCursor(gridColumns)
		} else {
			m.moveCursor(1)
		}
	case "left", "h":
		if m.gridLayout() {
			m.moveCursor(-1)
		} else {
			cmd = m.dispatch(view.PrevPage{})
		}
	case "right", "l":
		if m.gridLayout() {
			m.moveCursor(1)
		} else {
			cmd = m.dispatch(view.NextPage{})
		}

	// Pagination
	case "[", "pgup":
		cmd = m.dispatch(view.PrevPage{})
	case "]", "pgdown":
		cmd = m.dispatch(view.NextPage{})
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		page, _ := strconv.Atoi(key)
		cmd = m.dispatch(view.GoToPage{Page: page})
	case "p":
		cmd = m.dispatch(view.SetPageSize{Size: cycle(view.PageSizes, state.PerPage, 1)})

	// Filters
	case "/":
		m.searching = true
		m.search.SetValue(state.Search)
		m.search.CursorEnd()
		cmd = m.search.Focus()
	case "c":
		categories := append([]string{""}, m.snap.Categories...)
		cmd = m.dispatch(view.SetCategory{Category: cycle(categories, state.Category, 1)})
	case "s":
		levels := append([]view.StockLevel{view.StockAny}, view.StockLevels...)
		cmd = m.dispatch(view.SetStockFilter{Level: cycle(levels, state.Stock, 1)})
	case "o":
		cmd = m.dispatch(view.SetSort{Key: cycle(view.SortKeys, state.Sort, 1)})
	case "z":
		m.search.SetValue("")
		m.searchSeq++
		cmd = m.dispatch(view.ClearFilters{})
	case "v":
		layout := view.LayoutGrid
		if m.gridLayout() {
			layout = view.LayoutTable
		}
		cmd = m.dispatch(view.SetLayout{Layout: layout})

	// Selection
	case " ", "space":
		if p, ok := m.current(); ok {
			cmd = m.dispatch(view.ToggleSelect{ID: p.ID})
		}
	case "a":
		cmd = m.dispatch(view.SelectPage{Checked: !state.SelectAllChecked})
	case "x":
		cmd = m.dispatch(view.ClearSelection{})
	case "esc":
		// Clear the selection first, leave on a second press.
		if len(m.snap.Selected) > 0 {
			cmd = m.dispatch(view.ClearSelection{})
			break
		}
		cmd = m.openScreen(session.ScreenDashboard)

	// Actions
	case "n":
		cmd = m.newProductForm()
	case "d":
		if p, ok := m.current(); ok {
			cmd = m.askConfirm(
				fmt.Sprintf("Delete %s (%s)?", p.Name, p.Code),
				"This cannot be undone.",
				func(m *Model) tea.Cmd {
					m.loading = "Deleting"
					return m.deleteCmd(p)
				},
			)
		}
	case "D":
		n := len(m.snap.Selected)
		if n == 0 {
			cmd = m.notify(noticeWarning, userMessage(app.ErrEmptySelection))
			break
		}
		cmd = m.askConfirm(
			fmt.Sprintf("Delete %d selected products?", n),
			"This cannot be undone.",
			func(m *Model) tea.Cmd {
				m.loading = fmt.Sprintf("Deleting %d products", n)
				return m.deleteSelectedCmd()
			},
		)
	case "e":
		m.loading = "Exporting"
		cmd = m.exportCmd(false)
	case "E":
		m.loading = "Exporting selection"
		cmd = m.exportCmd(true)
	case "r":
		m.loading = "Refreshing"
		cmd = m.reloadCmd()
	}

	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.searchSeq++
		cmd := m.dispatch(view.SetSearch{Term: m.search.Value()})
		return m, cmd
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.searchSeq++
		cmd := m.dispatch(view.SetSearch{})
		return m, cmd
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	// Debounce: only the latest keystroke's tick applies the term
	m.searchSeq++
	seq, term := m.searchSeq, m.search.Value()
	return m, tea.Batch(cmd, tea.Tick(searchDebounce, func(_ time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq, term: term}
	}))
}

func (m Model) deleteCmd(p inventory.Product) tea.Cmd {
	ctrl := m.ctrl
	return m.run(func(ctx context.Context) (string, error) {
		if err := ctrl.DeleteProduct(ctx, p.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Product %s deleted", p.Code), nil
	})
}

func (m Model) deleteSelectedCmd() tea.Cmd {
	ctrl := m.ctrl
	return m.run(func(ctx context.Context) (string, error) {
		n, err := ctrl.DeleteSelected(ctx)
		if err != nil {
			if n > 0 {
				return "", fmt.Errorf("%d products deleted, then: %s", n, userMessage(err))
			}
			return "", err
		}
		return fmt.Sprintf("%d products deleted", n), nil
	})
}

func (m Model) exportCmd(selected bool) tea.Cmd {
	ctrl, dir := m.ctrl, m.opts.ExportDir
	return m.run(func(context.Context) (string, error) {
		path, n, err := ctrl.ExportToDir(dir, selected)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Exported %d products to %s", n, path), nil
	})
}

// resizeTable fits the columns to the terminal width.
func (m *Model) resizeTable() {
	width := m.width - sidebarWidth - 4
	fixed := 4 + 12 + 14 + 18 + 16
	nameWidth := max(16, width-fixed-12)

	m.table.SetWidth(4 + 12 + nameWidth + 14 + 18 + 16 + 12)
	m.table.SetColumns([]table.Column{
		{Title: "Sel", Width: 4},
		{Title: "Code", Width: 12},
		{Title: "Name", Width: nameWidth},
		{Title: "Category", Width: 14},
		{Title: "Stock", Width: 18},
		{Title: "Updated", Width: 16},
	})
	m.syncTable()
}

func (m *Model) syncTable() {
	rows := make([]table.Row, 0, len(m.snap.Visible))
	for _, p := range m.snap.Visible {
		check := "[ ]"
		if m.snap.IsSelected(p.ID) {
			check = "[x]"
		}
		level := view.StockLevelOf(p.Quantity)
		rows = append(rows, table.Row{
			check,
			p.Code,
			p.Name,
			p.Category,
			level.Icon() + " " + p.DisplayQuantity(),
			formatDate(p.LastUpdated),
		})
	}
	m.table.SetRows(rows)
	m.table.SetHeight(min(max(len(rows), 1), 25) + 2)
	m.table.SetCursor(m.cursor)
}

func (m Model) viewInventory() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Inventory"))
	b.WriteString("\n")
	b.WriteString(m.viewFilterBar())
	b.WriteString("\n")

	status := m.snap.FilterStats
	if n := len(m.snap.Selected); n > 0 {
		status += m.styles.Checked.Render(fmt.Sprintf(" · %d selected", n))
	}
	b.WriteString(m.styles.Subtle.Render(status))
	b.WriteString("\n\n")

	switch {
	case m.snap.Page.Total == 0:
		b.WriteString(m.styles.Subtle.Render("No products yet. Press n to add one."))
	case len(m.snap.Visible) == 0:
		b.WriteString(m.styles.Subtle.Render("No products match the current filters. Press z to clear them."))
	case m.gridLayout():
		b.WriteString(m.viewGrid())
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if len(m.snap.Visible) > 0 {
		b.WriteString(m.viewPagination())
		b.WriteString("\n")
		b.WriteString(m.viewDetail())
	}
	return b.String()
}

func (m Model) viewFilterBar() string {
	state := m.snap.State

	search := state.Search
	if m.searching {
		search = m.search.View()
	} else if search == "" {
		search = m.styles.Subtle.Render("none")
	}
	category := state.Category
	if category == "" {
		category = "All categories"
	}
	allSelected := "[ ]"
	if state.SelectAllChecked {
		allSelected = "[x]"
	}

	parts := []string{
		"Search: " + search,
		"Category: " + m.styles.Highlight.Render(category),
		"Stock: " + m.styles.Highlight.Render(state.Stock.Label()),
		"Sort: " + m.styles.Highlight.Render(state.Sort.Label()),
		"Page " + allSelected,
	}
	return strings.Join(parts, "  ")
}

func (m Model) viewGrid() string {
	var rows, line []string
	for i, p := range m.snap.Visible {
		line = append(line, m.viewCard(p, i == m.cursor))
		if len(line) == gridColumns {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
			line = nil
		}
	}
	if len(line) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) viewCard(p inventory.Product, focused bool) string {
	const width = 26

	check := "[ ]"
	if m.snap.IsSelected(p.ID) {
		check = m.styles.Checked.Render("[x]")
	}
	level := view.StockLevelOf(p.Quantity)
	badge := m.styles.Stock(level).Render(level.Icon() + " " + level.Label())

	lines := []string{
		check + " " + m.styles.Subtle.Render(p.Code),
		m.styles.Highlight.Render(truncate(p.Name, width)),
		truncate(p.Category, width),
		badge + " " + p.DisplayQuantity(),
		m.styles.Subtle.Render(formatDate(p.LastUpdated)),
	}

	style := m.styles.Card
	if focused {
		style = m.styles.CardFocus
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) viewPagination() string {
	pi := m.snap.Page

	prev, next := "‹", "›"
	if !pi.HasPrev {
		prev = m.styles.Subtle.Render(prev)
	}
	if !pi.HasNext {
		next = m.styles.Subtle.Render(next)
	}

	parts := []string{prev}
	for _, n := range pi.Numbers {
		label := strconv.Itoa(n)
		if n == pi.Page {
			label = m.styles.PageCur.Render(" " + label + " ")
		}
		parts = append(parts, label)
	}
	parts = append(parts, next)

	info := fmt.Sprintf("   Page %d of %d · %d per page", pi.Page, pi.TotalPages, pi.PerPage)
	return strings.Join(parts, " ") + m.styles.Subtle.Render(info)
}

func (m Model) viewDetail() string {
	p, ok := m.current()
	if !ok {
		return ""
	}
	level := view.StockLevelOf(p.Quantity)

	var b strings.Builder
	b.WriteString(m.styles.Highlight.Render(p.Name))
	b.WriteString("  ")
	b.WriteString(m.styles.Stock(level).Render(level.Icon() + " " + level.Label() + " stock"))
	if desc := oneLine(p.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Subtle.Render(truncate(desc, max(m.width-sidebarWidth-8, 40))))
	}
	return "\n" + b.String()
}

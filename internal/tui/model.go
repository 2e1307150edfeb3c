package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/JJCAR01/UX/internal/app"
	"github.com/JJCAR01/UX/internal/importer"
	"github.com/JJCAR01/UX/internal/inventory"
	"github.com/JJCAR01/UX/internal/session"
	"github.com/JJCAR01/UX/internal/view"
)

const (
	searchDebounce = 300 * time.Millisecond
	noticeLifetime = 3 * time.Second
	defaultTimeout = 10 * time.Second
)

// Options configures the TUI.
type Options struct {
	// Teams offered on the login form. The selector is hidden when empty.
	Teams []string
	// ExportDir receives exports and the import template.
	ExportDir string
	// Timeout bounds every API call started from the UI.
	Timeout time.Duration
	Now     func() time.Time
}

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeWarning
	noticeError
)

// notice is a transient message shown under the content.
type notice struct {
	kind noticeKind
	text string
	id   int
}

// Model is the main Bubble Tea model.
type Model struct {
	ctrl   *app.Controller
	opts   Options
	styles Styles
	width  int
	height int

	// Empty while signed out
	screen session.Screen

	// Login
	login     *loginValues
	loginForm *huh.Form

	// Inventory
	snap      app.Snapshot
	cursor    int
	table     table.Model
	search    textinput.Model
	searching bool
	searchSeq int

	// Add product
	product     *productValues
	productForm *huh.Form

	// Confirmation dialog
	confirmForm *huh.Form
	confirmed   *bool
	onConfirm   func(*Model) tea.Cmd

	// Import
	importPath textinput.Model

	// Loading state
	spinner spinner.Model
	loading string

	notice    notice
	noticeSeq int
}

// Messages
type (
	loginDoneMsg struct {
		email string
		user  inventory.User
		err   error
	}
	actionDoneMsg struct {
		text string
		err  error
	}
	importStagedMsg struct {
		summary importer.Summary
		err     error
	}
	searchDebounceMsg struct {
		seq  int
		term string
	}
	noticeExpiredMsg struct {
		id int
	}
)

// NewModel creates a signed-out TUI model driven by ctrl.
func NewModel(ctrl *app.Controller, opts Options) Model {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorTeal)

	search := textinput.New()
	search.Placeholder = "Search by code, name or description..."
	search.CharLimit = 50
	search.Width = 40

	path := textinput.New()
	path.Placeholder = "/path/to/productos.xlsx"
	path.CharLimit = 256
	path.Width = 50

	tbl := table.New(
		table.WithFocused(true),
		table.WithStyles(styles.Table),
	)

	m := Model{
		ctrl:       ctrl,
		opts:       opts,
		styles:     styles,
		table:      tbl,
		search:     search,
		importPath: path,
		spinner:    sp,
	}
	m.newLoginForm()
	m.resizeTable()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loginForm.Init(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTable()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noticeExpiredMsg:
		if msg.id == m.notice.id {
			m.notice = notice{}
		}
		return m, nil

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case actionDoneMsg:
		m.loading = ""
		m.refresh()
		var cmd tea.Cmd
		switch {
		case msg.err != nil:
			cmd = m.fail(msg.err)
		case msg.text != "":
			cmd = m.notify(noticeSuccess, msg.text)
		}
		return m, cmd

	case importStagedMsg:
		m.loading = ""
		if msg.err != nil {
			cmd := m.fail(msg.err)
			return m, cmd
		}
		m.importPath.Blur()
		s := msg.summary
		cmd := m.notify(noticeInfo, fmt.Sprintf("%d rows read: %d valid, %d with errors", s.Total, s.Valid, s.Errors))
		return m, cmd

	case searchDebounceMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		cmd := m.dispatch(view.SetSearch{Term: msg.term})
		return m, cmd
	}

	switch {
	case m.confirmForm != nil:
		return m.updateConfirm(msg)
	case m.productForm != nil:
		return m.updateProductForm(msg)
	case m.screen == "":
		return m.updateLogin(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeyMsg(key)
	}

	// Cursor blink and similar input messages
	var cmd tea.Cmd
	switch {
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	case m.importPath.Focused():
		m.importPath, cmd = m.importPath.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.Session().Expired(m.opts.Now()) {
		m.ctrl.Logout()
		cmd := m.signedOut("Your session has expired, please sign in again")
		return m, cmd
	}

	if m.searching {
		return m.handleSearchKeys(msg)
	}
	if m.screen == session.ScreenImport && m.importPath.Focused() {
		return m.handleImportPathKeys(msg)
	}

	// Global keys
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		cmd := m.cycleScreen(1)
		return m, cmd
	case "shift+tab":
		cmd := m.cycleScreen(-1)
		return m, cmd
	case "ctrl+l":
		cmd := m.confirmLogout()
		return m, cmd
	}

	switch m.screen {
	case session.ScreenInventory:
		return m.handleInventoryKeys(msg)
	case session.ScreenImport:
		return m.handleImportKeys(msg)
	case session.ScreenProfile:
		return m.handleProfileKeys(msg)
	case session.ScreenDashboard, session.ScreenReports:
		if msg.String() == "r" {
			m.loading = "Refreshing"
			return m, m.reloadCmd()
		}
	}
	return m, nil
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.loading = ""
	if !m.ctrl.Session().Authenticated() {
		m.login = &loginValues{Email: msg.email}
		formCmd := m.newLoginForm()
		noticeCmd := m.notify(noticeError, userMessage(msg.err))
		return m, tea.Batch(formCmd, noticeCmd)
	}

	m.screen = session.ScreenDashboard
	m.cursor = 0
	m.refresh()

	var cmd tea.Cmd
	if msg.err != nil {
		cmd = m.notify(noticeWarning, userMessage(msg.err))
	} else {
		cmd = m.notify(noticeSuccess, "Welcome, "+msg.user.Name)
	}
	return m, cmd
}

// cycleScreen moves through the screens the user may open.
func (m *Model) cycleScreen(step int) tea.Cmd {
	screens := m.ctrl.Session().Screens()
	if len(screens) == 0 {
		return nil
	}
	i := slices.Index(screens, m.screen)
	if i < 0 {
		i = 0
	}
	i = (i + step + len(screens)) % len(screens)
	return m.openScreen(screens[i])
}

func (m *Model) openScreen(s session.Screen) tea.Cmd {
	if !m.ctrl.Session().Allows(s) {
		return m.notify(noticeWarning, "You do not have access to "+s.Title())
	}
	m.screen = s
	m.refresh()

	cmds := []tea.Cmd{m.refreshIfStaleCmd()}
	if s == session.ScreenImport && m.ctrl.ImportSummary().Total == 0 {
		cmds = append(cmds, m.importPath.Focus())
	}
	return tea.Batch(cmds...)
}

// signedOut returns to the login form and drops per-session UI state.
func (m *Model) signedOut(reason string) tea.Cmd {
	m.screen = ""
	m.searching = false
	m.search.Reset()
	m.search.Blur()
	m.importPath.Reset()
	m.importPath.Blur()
	m.productForm = nil
	m.confirmForm = nil
	m.onConfirm = nil
	m.cursor = 0
	m.snap = app.Snapshot{}
	m.syncTable()

	cmds := []tea.Cmd{m.newLoginForm()}
	if reason != "" {
		cmds = append(cmds, m.notify(noticeWarning, reason))
	}
	return tea.Batch(cmds...)
}

// refresh re-reads the controller view.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	if m.cursor >= len(m.snap.Visible) {
		m.cursor = max(len(m.snap.Visible)-1, 0)
	}
	m.syncTable()
}

// dispatch applies a view intent. The cursor returns to the top when
// the page changes.
func (m *Model) dispatch(intent view.Intent) tea.Cmd {
	page := m.snap.State.Page
	if err := m.ctrl.Dispatch(intent); err != nil {
		return m.notify(noticeError, err.Error())
	}
	m.refresh()
	if m.snap.State.Page != page {
		m.cursor = 0
		m.table.SetCursor(0)
	}
	return nil
}

func (m *Model) notify(kind noticeKind, text string) tea.Cmd {
	m.noticeSeq++
	id := m.noticeSeq
	m.notice = notice{kind: kind, text: text, id: id}
	return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

// fail reports err. A rejected token sends the user back to login.
func (m *Model) fail(err error) tea.Cmd {
	if m.screen != "" && !m.ctrl.Session().Authenticated() {
		return m.signedOut("Your session has expired, please sign in again")
	}
	return m.notify(noticeError, userMessage(err))
}

// userMessage turns an error into something an operator can act on.
func userMessage(err error) string {
	var (
		apiErr     *inventory.APIError
		confirmErr *importer.ConfirmError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, app.ErrEmptySelection):
		return "Select at least one product first"
	case errors.Is(err, app.ErrBusy), errors.Is(err, importer.ErrInFlight):
		return "Still working on the previous request"
	case errors.Is(err, app.ErrNotAuthenticated):
		return "Please sign in first"
	case errors.Is(err, importer.ErrNothingStaged):
		return "There are no valid rows to import"
	case errors.As(err, &confirmErr):
		return fmt.Sprintf("Import stopped at row %d after creating %d products: %s",
			confirmErr.Row, confirmErr.Created, userMessage(confirmErr.Err))
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if errors.Is(apiErr, inventory.ErrUnauthorized) {
			return "Invalid credentials"
		}
		return fmt.Sprintf("Server error (status %d)", apiErr.Status)
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond"
	default:
		return err.Error()
	}
}

// Commands

func (m Model) loginCmd(v loginValues) tea.Cmd {
	ctrl, timeout := m.ctrl, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		user, err := ctrl.Login(ctx, v.Email, v.Password, v.Team)
		return loginDoneMsg{email: v.Email, user: user, err: err}
	}
}

// run executes fn off the UI loop and reports its outcome as an
// actionDoneMsg.
func (m Model) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	timeout := m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		text, err := fn(ctx)
		return actionDoneMsg{text: text, err: err}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	ctrl := m.ctrl
	return m.run(func(ctx context.Context) (string, error) {
		if err := ctrl.LoadProducts(ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d products loaded", len(ctrl.Products())), nil
	})
}

func (m Model) refreshIfStaleCmd() tea.Cmd {
	ctrl := m.ctrl
	return m.run(func(ctx context.Context) (string, error) {
		err := ctrl.Refresh(ctx)
		if errors.Is(err, app.ErrBusy) {
			return "", nil
		}
		return "", err
	})
}

// View renders the UI.
func (m Model) View() string {
	if m.screen == "" {
		return m.styles.App.Render(m.viewLogin())
	}

	var body string
	switch {
	case m.confirmForm != nil:
		body = m.styles.Box.Render(m.confirmForm.View())
	case m.productForm != nil:
		body = m.styles.Title.Render("New product") + "\n" + m.productForm.View()
	default:
		switch m.screen {
		case session.ScreenDashboard:
			body = m.viewDashboard()
		case session.ScreenInventory:
			body = m.viewInventory()
		case session.ScreenReports:
			body = m.viewReports()
		case session.ScreenImport:
			body = m.viewImport()
		case session.ScreenProfile:
			body = m.viewProfile()
		}
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), body)
	return m.styles.App.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewNotice(),
		m.viewHelp(),
	))
}

func (m Model) viewHeader() string {
	title := m.styles.HeaderTitle.Render("▣ Inventory Terminal")

	var who string
	if u, ok := m.ctrl.Session().User(); ok {
		who = fmt.Sprintf("%s (%s)", u.Name, u.Role)
		if team := m.ctrl.Session().Team(); team != "" {
			who += " · " + team
		}
	}
	line := title + "  " + m.styles.HeaderUser.Render(who)
	if m.loading != "" {
		line += "  " + m.spinner.View() + " " + m.styles.Subtle.Render(m.loading+"...")
	}
	return m.styles.Header.Render(line)
}

func (m Model) viewSidebar() string {
	var items []string
	for _, s := range m.ctrl.Session().Screens() {
		if s == m.screen {
			items = append(items, m.styles.SidebarSelected.Render(s.Title()))
		} else {
			items = append(items, m.styles.SidebarItem.Render(s.Title()))
		}
	}
	return m.styles.Sidebar.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (m Model) viewNotice() string {
	if m.notice.text == "" {
		return ""
	}
	style := m.styles.NoticeInfo
	switch m.notice.kind {
	case noticeSuccess:
		style = m.styles.NoticeSuccess
	case noticeWarning:
		style = m.styles.NoticeWarning
	case noticeError:
		style = m.styles.NoticeError
	}
	return "\n" + style.Render(m.notice.text)
}

func (m Model) viewHelp() string {
	var help string
	switch {
	case m.confirmForm != nil, m.productForm != nil:
		help = "esc: cancel"
	case m.searching:
		help = "enter: apply • esc: clear search"
	default:
		switch m.screen {
		case session.ScreenInventory:
			help = "↑/↓: move • space: select • a: select page • x/esc: clear selection • /: search • c: category • s: stock • o: sort • z: clear filters\n" +
				"[/]: page • 1-9: go to page • p: page size • v: layout • n: new • d: delete • D: delete selected • e/E: export • r: refresh"
		case session.ScreenImport:
			if m.importPath.Focused() {
				help = "enter: read file • esc: leave field"
			} else {
				help = "enter: choose file • y: import valid rows • n: cancel • t: write template"
			}
		case session.ScreenProfile:
			help = "l: sign out"
		default:
			help = "r: refresh"
		}
		help += " • tab: next screen • ctrl+l: sign out • q: quit"
	}
	return m.styles.HelpBar.Render(help)
}

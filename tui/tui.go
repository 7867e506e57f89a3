// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen browser for tasks, deals, contacts and invoices with sync controls
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/bizcrm/app"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewDashboard
	ViewConfirmDelete
)

// Tab is the collection shown in the list view
type Tab int

const (
	TabTasks Tab = iota
	TabDeals
	TabContacts
	TabInvoices
	TabSync
)

var tabNames = []string{"Tasks", "Deals", "Contacts", "Invoices", "Sync"}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	svc      *app.Service
	viewMode ViewMode
	tab      Tab

	// List view state
	selectedRow int

	// Detail and delete views act on this record
	selectedID string

	// Edit view state
	formInputs []textinput.Model
	focusIndex int

	// Sync view state
	selectedService int
	syncInProgress  map[string]bool
	syncMessages    []string

	// UI state
	status string
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, svc *app.Service) Model {
	return Model{
		ctx:            ctx,
		svc:            svc,
		viewMode:       ViewList,
		tab:            TabTasks,
		syncInProgress: make(map[string]bool),
		width:          80,
		height:         24,
	}
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, svc *app.Service) error {
	p := tea.NewProgram(NewModel(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case SyncCompleteMsg:
		m.handleSyncComplete(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		if m.tab == TabSync {
			return m.renderSyncView()
		}
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewDashboard:
		return m.renderDashboardView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	// Forms take every printable key.
	if m.viewMode == ViewEdit {
		return m.handleEditKeys(msg)
	}
	if msg.String() == "q" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		if m.tab == TabSync {
			return m.handleSyncKeys(msg)
		}
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewDashboard:
		return m.handleDashboardKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// switchTab moves between tabs; the sync tab is part of the cycle.
func (m *Model) switchTab(delta int) {
	n := len(tabNames)
	m.tab = Tab((int(m.tab) + delta + n) % n)
	m.selectedRow = 0
	m.status = ""
	m.err = nil
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

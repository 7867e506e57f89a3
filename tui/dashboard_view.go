package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/bizcrm/viz"
)

func (m Model) renderDashboardView() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Render(viz.RenderDashboard(m.svc.Dashboard())))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(strings.Join([]string{"Esc: Back", "q: Quit"}, " • ")))

	return s.String()
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "g":
		m.viewMode = ViewList
	}
	return m, nil
}

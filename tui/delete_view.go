// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Confirms deletion of tasks, deals and contacts before touching the store
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/bizcrm/models"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

// deleteTarget names the selected record and its kind.
func (m Model) deleteTarget() (name, kind string, ok bool) {
	switch m.tab {
	case TabTasks:
		t, found := m.svc.Cache().Tasks.Get(m.selectedID)
		return t.Title, "task", found
	case TabDeals:
		d, found := m.svc.Cache().Deals.Get(m.selectedID)
		return d.Title, "deal", found
	case TabContacts:
		c, found := m.svc.Cache().Contacts.Get(m.selectedID)
		return c.Name, "contact", found
	}
	return "", "", false
}

func (m Model) renderConfirmDeleteView() string {
	name, kind, ok := m.deleteTarget()
	if !ok {
		return errorStyle.Render("Nothing to delete") + "\n" + helpStyle.Render("Esc: Back")
	}

	var s strings.Builder
	s.WriteString(warningStyle.Render("DELETE " + strings.ToUpper(kind)))
	s.WriteString("\n\n")
	fmt.Fprintf(&s, "Delete %s %q?", kind, name)
	if kind == "task" {
		s.WriteString("\nA linked calendar event is removed too.")
	}
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("y: Delete • n/Esc: Cancel"))
	return confirmBoxStyle.Render(s.String())
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.deleteSelected()
		m.viewMode = ViewList
		m.selectedID = ""
		m.selectedRow = 0
	case "n", "N", "esc":
		m.viewMode = ViewList
	}
	return m, nil
}

func (m *Model) deleteSelected() {
	name, kind, ok := m.deleteTarget()
	if !ok {
		return
	}

	var err error
	switch kind {
	case "task":
		var link *models.CalendarLink
		_, link, err = m.svc.DeleteTask(m.ctx, m.selectedID)
		if err == nil && link != nil && link.State == models.LinkLocalOnly {
			m.report(nil, fmt.Sprintf("Deleted %s; calendar event may remain: %s", name, link.Reason))
			return
		}
	case "deal":
		_, err = m.svc.DeleteDeal(m.ctx, m.selectedID)
	case "contact":
		_, err = m.svc.DeleteContact(m.ctx, m.selectedID)
	}
	m.report(err, "Deleted "+name)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

func (m Model) renderEditView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("NEW " + m.entityTypeName()))
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.err != nil {
		s.WriteString(m.renderStatus())
		s.WriteString("\n")
	}
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) entityTypeName() string {
	if m.tab == TabContacts {
		return "CONTACT"
	}
	return "TASK"
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

// startEdit opens an empty form for the active tab.
func (m *Model) startEdit() tea.Cmd {
	var placeholders []string
	if m.tab == TabContacts {
		placeholders = []string{"Name", "Email", "Company"}
	} else {
		placeholders = []string{"Title", "Due (e.g. tomorrow, 2025-07-01)", "Type (call, email, meeting, todo)"}
	}

	m.formInputs = make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		input := textinput.New()
		input.Placeholder = p
		input.CharLimit = 120
		m.formInputs[i] = input
	}
	m.focusIndex = 0
	m.viewMode = ViewEdit
	m.err = nil
	return m.formInputs[0].Focus()
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.formInputs = nil
		m.err = nil
		return m, nil
	case "tab", "shift+tab":
		delta := 1
		if msg.String() == "shift+tab" {
			delta = len(m.formInputs) - 1
		}
		m.focusIndex = (m.focusIndex + delta) % len(m.formInputs)
		cmd := m.updateFormFocus()
		return m, cmd
	case "enter":
		status, err := m.saveEntity()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.viewMode = ViewList
		m.formInputs = nil
		m.selectedRow = 0
		m.report(nil, status)
		return m, nil
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) updateFormFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.focusIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

func (m Model) field(i int) string {
	return strings.TrimSpace(m.formInputs[i].Value())
}

func (m Model) saveEntity() (string, error) {
	if m.field(0) == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(m.formInputs[0].Placeholder))
	}

	if m.tab == TabContacts {
		c, err := m.svc.SaveContact(m.ctx, models.Contact{
			Name:    m.field(0),
			Email:   m.field(1),
			Company: m.field(2),
		})
		if err != nil {
			return "", err
		}
		return "Added " + c.Name, nil
	}

	due, err := app.ParseDue(m.field(1), m.svc.Cache().Now())
	if err != nil {
		return "", err
	}
	t, err := m.svc.SaveTask(m.ctx, models.Task{
		Title:    m.field(0),
		DueDate:  due,
		Type:     models.TaskType(m.field(2)),
		IsAllDay: due != "",
	})
	if err != nil {
		return "", err
	}
	return "Added " + t.Title, nil
}

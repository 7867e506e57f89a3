package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Width(14)

	detailSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginTop(1)
)

func (m Model) renderDetailView() string {
	contact, ok := m.svc.Cache().Contacts.Get(m.selectedID)
	if !ok {
		return errorStyle.Render("Contact not found") + "\n" + helpStyle.Render("Esc: Back")
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(contact.Name))
	s.WriteString("\n")

	fields := [][2]string{
		{"Company", contact.Company},
		{"Role", contact.Role},
		{"Email", contact.Email},
		{"Last contact", contact.LastContact},
		{"Link", contact.Link},
		{"Notes", contact.Notes},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		s.WriteString(detailLabelStyle.Render(f[0]))
		s.WriteString(f[1])
		s.WriteString("\n")
	}

	s.WriteString(detailSectionStyle.Render("Deals"))
	s.WriteString("\n")
	for _, d := range m.svc.GetDeals() {
		if d.ContactID == contact.ID {
			fmt.Fprintf(&s, "  %s  %s  %s\n", d.Title, d.Stage, d.Value.StringFixed(2))
		}
	}

	s.WriteString(detailSectionStyle.Render("Tasks"))
	s.WriteString("\n")
	for _, t := range m.svc.Cache().Tasks.List() {
		if t.ContactID == contact.ID {
			fmt.Fprintf(&s, "  %s %s  %s\n", checkbox(t.IsCompleted), t.Title, t.DueDate)
		}
	}

	s.WriteString(detailSectionStyle.Render("Invoices"))
	s.WriteString("\n")
	for _, inv := range m.svc.GetInvoices() {
		if inv.ContactID == contact.ID {
			fmt.Fprintf(&s, "  %s  %s  %s\n", inv.Number, inv.Amount.StringFixed(2), invoiceState(inv))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Esc: Back • d: Delete • q: Quit"))
	return s.String()
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.selectedID = ""
	case "d":
		m.viewMode = ViewConfirmDelete
	}
	return m, nil
}

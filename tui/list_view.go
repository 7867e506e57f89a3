package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/bizcrm/models"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("BIZCRM"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")
	s.WriteString(m.renderTable())
	s.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}
	s.WriteString(m.renderListHelp())

	return s.String()
}

// listing returns the columns, rows and record IDs for the active tab.
func (m Model) listing() ([]table.Column, []table.Row, []string) {
	var (
		rows []table.Row
		ids  []string
	)
	contacts := contactNames(m.svc.GetContacts())

	switch m.tab {
	case TabTasks:
		for _, t := range m.svc.Cache().Tasks.List() {
			rows = append(rows, table.Row{checkbox(t.IsCompleted), t.Title, string(t.Type), t.DueDate, string(t.Priority), contacts[t.ContactID]})
			ids = append(ids, t.ID)
		}
		return []table.Column{
			{Title: "", Width: 3},
			{Title: "Title", Width: 30},
			{Title: "Type", Width: 8},
			{Title: "Due", Width: 10},
			{Title: "Priority", Width: 8},
			{Title: "Contact", Width: 18},
		}, rows, ids

	case TabDeals:
		for _, d := range m.svc.GetDeals() {
			rows = append(rows, table.Row{d.Title, string(d.Stage), d.Value.StringFixed(2), d.DueDate, contacts[d.ContactID]})
			ids = append(ids, d.ID)
		}
		return []table.Column{
			{Title: "Title", Width: 28},
			{Title: "Stage", Width: 12},
			{Title: "Value", Width: 12},
			{Title: "Due", Width: 10},
			{Title: "Contact", Width: 18},
		}, rows, ids

	case TabContacts:
		for _, c := range m.svc.GetContacts() {
			rows = append(rows, table.Row{c.Name, c.Company, c.Email, c.LastContact})
			ids = append(ids, c.ID)
		}
		return []table.Column{
			{Title: "Name", Width: 22},
			{Title: "Company", Width: 22},
			{Title: "Email", Width: 28},
			{Title: "Last contact", Width: 12},
		}, rows, ids

	case TabInvoices:
		for _, inv := range m.svc.GetInvoices() {
			rows = append(rows, table.Row{inv.Number, inv.Date, contacts[inv.ContactID], inv.Amount.StringFixed(2), invoiceState(inv)})
			ids = append(ids, inv.ID)
		}
		return []table.Column{
			{Title: "Number", Width: 10},
			{Title: "Date", Width: 10},
			{Title: "Contact", Width: 20},
			{Title: "Amount", Width: 12},
			{Title: "Status", Width: 10},
		}, rows, ids
	}
	return nil, nil, nil
}

func (m Model) renderTable() string {
	columns, rows, _ := m.listing()
	if len(rows) == 0 {
		return helpStyle.Render("Nothing here yet.")
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{"↑/↓: Navigate", "Tab: Switch tabs"}
	switch m.tab {
	case TabTasks:
		help = append(help, "Space: Done", "n: New", "d: Delete")
	case TabDeals:
		help = append(help, "a: Advance", "d: Delete")
	case TabContacts:
		help = append(help, "Enter: Details", "n: New", "d: Delete")
	case TabInvoices:
		help = append(help, "p: Paid")
	}
	help = append(help, "g: Dashboard", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, _, ids := m.listing()
	selected := ""
	if m.selectedRow < len(ids) {
		selected = ids[m.selectedRow]
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(ids)-1 {
			m.selectedRow++
		}
	case "tab":
		m.switchTab(1)
	case "shift+tab":
		m.switchTab(-1)
	case "g":
		m.viewMode = ViewDashboard
	case "enter":
		if m.tab == TabContacts && selected != "" {
			m.viewMode = ViewDetail
			m.selectedID = selected
		}
	case "n":
		if m.tab == TabTasks || m.tab == TabContacts {
			cmd := m.startEdit()
			return m, cmd
		}
	case "d":
		if selected != "" && m.tab != TabInvoices {
			m.viewMode = ViewConfirmDelete
			m.selectedID = selected
		}
	case " ", "x":
		if m.tab == TabTasks && selected != "" {
			m.toggleTask(selected)
		}
	case "a":
		if m.tab == TabDeals && selected != "" {
			m.advanceDeal(selected)
		}
	case "p":
		if m.tab == TabInvoices && selected != "" {
			m.payInvoice(selected)
		}
	}

	return m, nil
}

func (m *Model) toggleTask(id string) {
	t, ok := m.svc.Cache().Tasks.Get(id)
	if !ok {
		return
	}
	t, _, err := m.svc.CompleteTask(m.ctx, id, !t.IsCompleted)
	m.report(err, fmt.Sprintf("%s %s", doneWord(t.IsCompleted), t.Title))
}

func (m *Model) advanceDeal(id string) {
	d, _, err := m.svc.AdvanceDeal(m.ctx, id)
	m.report(err, fmt.Sprintf("%s is now %s", d.Title, d.Stage))
}

func (m *Model) payInvoice(id string) {
	inv, err := m.svc.MarkInvoicePaid(m.ctx, id, "")
	m.report(err, fmt.Sprintf("Invoice %s marked paid", inv.Number))
}

func (m *Model) report(err error, status string) {
	m.err = err
	if err == nil {
		m.status = status
	}
}

func contactNames(contacts []models.Contact) map[string]string {
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.Name
	}
	return names
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func doneWord(done bool) string {
	if done {
		return "Completed"
	}
	return "Reopened"
}

func invoiceState(inv models.Invoice) string {
	switch {
	case inv.IsCreditNote():
		return "credit"
	case inv.IsCancelled:
		return "cancelled"
	case inv.IsPaid:
		return "paid"
	}
	return "open"
}

// ABOUTME: TUI view for Google sync status and controls
// ABOUTME: Shows calendar and mail connection state and runs a sync or scan in the background
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	serviceCalendar = "calendar"
	serviceMail     = "mail"
)

var syncServices = []string{serviceCalendar, serviceMail}

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncServiceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(12)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncCompleteMsg is sent when a sync operation completes.
type SyncCompleteMsg struct {
	Service string
	Summary string
	Error   error
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("BIZCRM"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	status := m.svc.GetIntegrationStatus()
	account := status.Email
	if account == "" {
		account = "not signed in"
	}
	s.WriteString(syncHeaderStyle.Render("Google"))
	s.WriteString("\n")
	s.WriteString(syncMessageStyle.Render("  Account: " + account))
	s.WriteString("\n\n")

	connected := map[string]bool{serviceCalendar: status.Calendar, serviceMail: status.Mail}
	for i, service := range syncServices {
		var row strings.Builder
		name := strings.ToUpper(service[:1]) + service[1:]
		if i == m.selectedService {
			row.WriteString("▶ ")
			row.WriteString(syncSelectedStyle.Render(syncServiceStyle.Render(name)))
		} else {
			row.WriteString("  ")
			row.WriteString(syncServiceStyle.Render(name))
		}

		switch {
		case m.syncInProgress[service]:
			row.WriteString(syncSyncingStyle.Render("  ⟳ Syncing..."))
		case !connected[service]:
			row.WriteString(syncMessageStyle.Render("  Not connected"))
		default:
			row.WriteString(syncIdleStyle.Render("  ✓ Connected"))
		}
		if service == serviceCalendar {
			if last := m.svc.Cache().SyncState().LastSyncTime; last != nil {
				row.WriteString(syncMessageStyle.Render(" • Last synced " + formatTimeSince(*last)))
			}
		}
		s.WriteString(row.String())
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(m.syncMessages) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		start := max(len(m.syncMessages)-5, 0)
		for _, line := range m.syncMessages[start:] {
			s.WriteString(syncMessageStyle.Render("  " + line))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderSyncHelp())
	return s.String()
}

func (m Model) renderSyncHelp() string {
	help := []string{
		"↑/↓: Select service",
		"Enter: Sync selected",
		"a: Sync all",
		"Tab: Switch tabs",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedService > 0 {
			m.selectedService--
		}
	case "down", "j":
		if m.selectedService < len(syncServices)-1 {
			m.selectedService++
		}
	case "tab":
		m.switchTab(1)
	case "shift+tab":
		m.switchTab(-1)
	case "enter":
		service := syncServices[m.selectedService]
		if m.syncInProgress[service] {
			return m, nil
		}
		m.startSync(service)
		return m, m.syncService(service)
	case "a":
		var cmds []tea.Cmd
		for _, service := range syncServices {
			if !m.syncInProgress[service] {
				m.startSync(service)
				cmds = append(cmds, m.syncService(service))
			}
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m *Model) startSync(service string) {
	m.syncInProgress[service] = true
	m.addSyncMessage(fmt.Sprintf("Starting %s sync...", service))
}

// syncService runs off the update loop; its result arrives as a SyncCompleteMsg.
func (m Model) syncService(service string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		switch service {
		case serviceCalendar:
			res, err := svc.SyncCalendar(ctx)
			if err != nil {
				return SyncCompleteMsg{Service: service, Error: err}
			}
			if res.Skipped {
				return SyncCompleteMsg{Service: service, Summary: "skipped: " + res.SkipReason}
			}
			return SyncCompleteMsg{Service: service, Summary: fmt.Sprintf("%d imported, %d updated", res.Imported, res.Updated)}
		case serviceMail:
			res, err := svc.ScanMail(ctx)
			if err != nil {
				return SyncCompleteMsg{Service: service, Error: err}
			}
			if res.Skipped {
				return SyncCompleteMsg{Service: service, Summary: "skipped: " + res.SkipReason}
			}
			return SyncCompleteMsg{Service: service, Summary: fmt.Sprintf("%d contacts updated", res.Updated)}
		}
		return SyncCompleteMsg{Service: service, Error: fmt.Errorf("unknown service %s", service)}
	}
}

func (m *Model) addSyncMessage(msg string) {
	timestamp := time.Now().Format("15:04:05")
	m.syncMessages = append(m.syncMessages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

func (m *Model) handleSyncComplete(msg SyncCompleteMsg) {
	m.syncInProgress[msg.Service] = false
	if msg.Error != nil {
		m.addSyncMessage(fmt.Sprintf("✗ %s sync failed: %v", msg.Service, msg.Error))
		return
	}
	m.addSyncMessage(fmt.Sprintf("✓ %s sync %s", msg.Service, msg.Summary))
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	}
	return plural(int(duration.Hours()/24), "day")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

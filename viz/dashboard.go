// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes pipeline, workload and receivables from the entity cache
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harperreed/bizcrm/cache"
	"github.com/harperreed/bizcrm/models"
)

// Contacts with no touch for this many days need attention.
const staleContactDays = 30

type DashboardStats struct {
	Pipeline      []cache.StageTotal
	PipelineValue decimal.Decimal // every stage except Won

	TotalContacts int
	TotalDeals    int
	OpenTasks     int
	DueToday      int
	OverdueTasks  int

	OpenInvoices  int
	Receivables   decimal.Decimal
	UnreadUpdates int

	StaleContacts []StaleContact
	OverdueDeals  []OverdueDeal
}

type StaleContact struct {
	Name      string
	DaysSince int // -1 when never contacted
}

type OverdueDeal struct {
	Title       string
	Stage       models.DealStage
	DaysOverdue int
}

// GenerateDashboardStats reads every collection once. Dates are compared as
// YYYY-MM-DD in now's location.
func GenerateDashboardStats(c *cache.Cache, now time.Time) *DashboardStats {
	today := now.Format(time.DateOnly)
	stats := &DashboardStats{
		Pipeline:      c.PipelineSummary(),
		PipelineValue: decimal.Zero,
		Receivables:   decimal.Zero,
		UnreadUpdates: c.UnreadCount(),
	}

	for _, st := range stats.Pipeline {
		if st.Stage != models.StageWon {
			stats.PipelineValue = stats.PipelineValue.Add(st.Value)
		}
	}

	contacts := c.Contacts.List()
	stats.TotalContacts = len(contacts)
	for _, contact := range contacts {
		if contact.LastContact == "" {
			stats.StaleContacts = append(stats.StaleContacts, StaleContact{Name: contact.Name, DaysSince: -1})
			continue
		}
		if days := daysBetween(contact.LastContact, now); days > staleContactDays {
			stats.StaleContacts = append(stats.StaleContacts, StaleContact{Name: contact.Name, DaysSince: days})
		}
	}

	deals := c.Deals.List()
	stats.TotalDeals = len(deals)
	for _, deal := range deals {
		if deal.Stage == models.StageWon || deal.DueDate == "" || deal.DueDate >= today {
			continue
		}
		stats.OverdueDeals = append(stats.OverdueDeals, OverdueDeal{
			Title:       deal.Title,
			Stage:       deal.Stage,
			DaysOverdue: daysBetween(deal.DueDate, now),
		})
	}

	for _, task := range c.Tasks.List() {
		if task.IsCompleted {
			continue
		}
		stats.OpenTasks++
		switch {
		case task.DueDate == today:
			stats.DueToday++
		case task.DueDate != "" && task.DueDate < today:
			stats.OverdueTasks++
		}
	}

	for _, inv := range c.Invoices.List() {
		if inv.IsOpen() {
			stats.OpenInvoices++
			stats.Receivables = stats.Receivables.Add(inv.Amount)
		}
	}

	sort.Slice(stats.StaleContacts, func(i, j int) bool {
		return stats.StaleContacts[i].Name < stats.StaleContacts[j].Name
	})
	sort.Slice(stats.OverdueDeals, func(i, j int) bool {
		return stats.OverdueDeals[i].DaysOverdue > stats.OverdueDeals[j].DaysOverdue
	})
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  BIZCRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE\n")
	renderPipeline(&out, stats.Pipeline)
	fmt.Fprintf(&out, "  open value %s\n\n", stats.PipelineValue.StringFixed(2))

	out.WriteString("STATS\n")
	fmt.Fprintf(&out, "  %d contacts  %d deals  %d open tasks (%d due today, %d overdue)\n",
		stats.TotalContacts, stats.TotalDeals, stats.OpenTasks, stats.DueToday, stats.OverdueTasks)
	fmt.Fprintf(&out, "  %d open invoices  %s receivable  %d unread updates\n\n",
		stats.OpenInvoices, stats.Receivables.StringFixed(2), stats.UnreadUpdates)

	if len(stats.StaleContacts) == 0 && len(stats.OverdueDeals) == 0 {
		return out.String()
	}

	out.WriteString("NEEDS ATTENTION\n")
	for _, c := range stats.StaleContacts {
		if c.DaysSince < 0 {
			fmt.Fprintf(&out, "  ! %s - never contacted\n", c.Name)
			continue
		}
		fmt.Fprintf(&out, "  ! %s - no contact in %d days\n", c.Name, c.DaysSince)
	}
	for _, d := range stats.OverdueDeals {
		fmt.Fprintf(&out, "  ! %s (%s) - %d days past due\n", d.Title, d.Stage, d.DaysOverdue)
	}
	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline []cache.StageTotal) {
	maxCount := 0
	for _, st := range pipeline {
		if st.Count > maxCount {
			maxCount = st.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, st := range pipeline {
		barLength := (st.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		fmt.Fprintf(out, "  %-12s %s  %2d  %s\n", st.Stage, bar, st.Count, st.Value.StringFixed(2))
	}
}

// daysBetween counts whole days from a YYYY-MM-DD date to now. Unparseable
// dates count as zero.
func daysBetween(date string, now time.Time) int {
	d, err := time.ParseInLocation(time.DateOnly, date, now.Location())
	if err != nil {
		return 0
	}
	y, m, day := now.Date()
	midnight := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	return int(midnight.Sub(d).Hours() / 24)
}

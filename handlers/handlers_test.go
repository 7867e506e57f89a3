// ABOUTME: Tests for MCP tool, resource and prompt handlers
// ABOUTME: Runs handlers against a seeded in-memory service with Google disconnected
package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/config"
	"github.com/harperreed/bizcrm/session"
	"github.com/harperreed/bizcrm/store"
)

var testNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

type memTokens struct{ sess *session.StoredSession }

func (m *memTokens) Load() (*session.StoredSession, error) { return m.sess, nil }
func (m *memTokens) Save(s *session.StoredSession) error   { m.sess = s; return nil }
func (m *memTokens) Clear() error                          { m.sess = nil; return nil }

func setupService(t *testing.T) *app.Service {
	t.Helper()
	cfg := &config.Config{Backend: config.BackendMemory, MergePolicy: "provider_wins", Timezone: "UTC"}
	svc, err := app.New(cfg, store.NewMemory(), app.Deps{
		TokenStore: &memTokens{},
		Clock:      func() time.Time { return testNow },
	})
	require.NoError(t, err)
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

func TestListAndAddContacts(t *testing.T) {
	svc := setupService(t)
	h := NewContactHandlers(svc)
	ctx := context.Background()

	_, out, err := h.ListContacts(ctx, nil, ListContactsInput{Query: "northwind"})
	require.NoError(t, err)
	require.Len(t, out.Contacts, 1)
	assert.Equal(t, "Sarah Miller", out.Contacts[0].Name)

	_, added, err := h.AddContact(ctx, nil, AddContactInput{Name: "Nina Park", Company: "Acme"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	_, out, err = h.ListContacts(ctx, nil, ListContactsInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Contacts, 2)
	assert.Equal(t, "Nina Park", out.Contacts[0].Name)

	_, _, err = h.AddContact(ctx, nil, AddContactInput{Name: "  "})
	assert.Error(t, err)
}

func TestDealHandlers(t *testing.T) {
	svc := setupService(t)
	h := NewDealHandlers(svc)
	ctx := context.Background()

	_, out, err := h.ListDeals(ctx, nil, ListDealsInput{Stage: "Proposal"})
	require.NoError(t, err)
	require.Len(t, out.Deals, 1)
	assert.Equal(t, "12000.00", out.Deals[0].Value)

	_, d, err := h.AdvanceDeal(ctx, nil, AdvanceDealInput{ID: out.Deals[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "Negotiation", d.Stage)

	_, _, err = h.ListDeals(ctx, nil, ListDealsInput{Stage: "Dreaming"})
	assert.Error(t, err)
	_, _, err = h.AdvanceDeal(ctx, nil, AdvanceDealInput{ID: "ghost"})
	assert.Error(t, err)
}

func TestTaskLifecycle(t *testing.T) {
	svc := setupService(t)
	h := NewTaskHandlers(svc)
	h.now = func() time.Time { return testNow }
	ctx := context.Background()

	_, task, err := h.AddTask(ctx, nil, AddTaskInput{Title: "Send proposal", Due: "tomorrow", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-16", task.DueDate)
	assert.True(t, task.IsAllDay)
	assert.Equal(t, "todo", task.Type)
	assert.Empty(t, task.CalendarSync, "calendar not connected")

	_, done, err := h.CompleteTask(ctx, nil, CompleteTaskInput{ID: task.ID})
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	_, open, err := h.ListTasks(ctx, nil, ListTasksInput{})
	require.NoError(t, err)
	for _, o := range open.Tasks {
		assert.NotEqual(t, task.ID, o.ID)
	}

	_, all, err := h.ListTasks(ctx, nil, ListTasksInput{IncludeCompleted: true})
	require.NoError(t, err)
	assert.Len(t, all.Tasks, len(open.Tasks)+countCompleted(all.Tasks))

	_, del, err := h.DeleteTask(ctx, nil, DeleteTaskInput{ID: task.ID})
	require.NoError(t, err)
	assert.True(t, del.Deleted)

	_, del, err = h.DeleteTask(ctx, nil, DeleteTaskInput{ID: task.ID})
	require.NoError(t, err)
	assert.False(t, del.Deleted)

	_, _, err = h.AddTask(ctx, nil, AddTaskInput{Title: "x", Due: "when pigs fly"})
	assert.Error(t, err)
	_, _, err = h.CompleteTask(ctx, nil, CompleteTaskInput{ID: "ghost"})
	assert.Error(t, err)
}

func countCompleted(tasks []TaskOutput) int {
	n := 0
	for _, t := range tasks {
		if t.IsCompleted {
			n++
		}
	}
	return n
}

func TestInvoiceHandlers(t *testing.T) {
	svc := setupService(t)
	h := NewInvoiceHandlers(svc)
	ctx := context.Background()

	_, next, err := h.NextInvoiceNumber(ctx, nil, NextInvoiceNumberInput{Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "2025-102", next.Number)

	_, inv, err := h.CreateInvoice(ctx, nil, CreateInvoiceInput{ContactID: "seed-contact-2", Amount: "950", Date: "2025-06-01"})
	require.NoError(t, err)
	assert.Equal(t, "2025-102", inv.Number)
	assert.Equal(t, "950.00", inv.Amount)

	_, open, err := h.ListInvoices(ctx, nil, ListInvoicesInput{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open.Invoices, 1)
	assert.Equal(t, inv.ID, open.Invoices[0].ID)

	_, credit, err := h.CancelInvoice(ctx, nil, InvoiceIDInput{ID: inv.ID})
	require.NoError(t, err)
	assert.Equal(t, "2025-103", credit.Number)
	assert.Equal(t, "-950.00", credit.Amount)
	assert.Equal(t, inv.ID, credit.CancelsInvoiceID)

	_, _, err = h.PayInvoice(ctx, nil, InvoiceIDInput{ID: inv.ID})
	assert.Error(t, err, "cancelled invoices cannot be paid")

	_, _, err = h.CreateInvoice(ctx, nil, CreateInvoiceInput{ContactID: "seed-contact-2", Amount: "abc"})
	assert.Error(t, err)
	_, _, err = h.CreateInvoice(ctx, nil, CreateInvoiceInput{ContactID: "ghost", Amount: "10"})
	assert.Error(t, err)
	_, _, err = h.CreateInvoice(ctx, nil, CreateInvoiceInput{ContactID: "seed-contact-2", Amount: "-5"})
	assert.Error(t, err)
}

func TestCalendarHandlersWhileDisconnected(t *testing.T) {
	svc := setupService(t)
	h := NewCalendarHandlers(svc)
	ctx := context.Background()

	_, res, err := h.SyncCalendar(ctx, nil, SyncCalendarInput{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "provider_wins", res.Policy)

	_, scan, err := h.ScanMail(ctx, nil, ScanMailInput{})
	require.NoError(t, err)
	assert.True(t, scan.Skipped)
	assert.Equal(t, "mail not connected", scan.SkipReason)

	_, st, err := h.IntegrationStatus(ctx, nil, IntegrationStatusInput{})
	require.NoError(t, err)
	assert.False(t, st.Calendar)
	assert.False(t, st.Mail)
	assert.Equal(t, "idle", st.SyncStatus)
}

func TestReadResource(t *testing.T) {
	svc := setupService(t)
	h := NewResourceHandlers(svc)
	ctx := context.Background()

	res, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "bizcrm://contacts"}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var contacts []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &contacts))
	assert.Len(t, contacts, 3)

	res, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "bizcrm://contacts/seed-contact-1"}})
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "Sarah Miller")
	assert.Contains(t, res.Contents[0].Text, "Website relaunch")
	assert.Contains(t, res.Contents[0].Text, "Follow up on proposal")

	res, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "bizcrm://pipeline"}})
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, `"stage": "Proposal"`)

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://contacts"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "bizcrm://nope"}})
	assert.Error(t, err)
}

func TestGetPrompt(t *testing.T) {
	svc := setupService(t)
	h := NewPromptHandlers(svc)
	h.now = func() time.Time { return testNow }
	ctx := context.Background()

	res, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "follow-up-suggestions",
		Arguments: map[string]string{"days_since_contact": "1"},
	}})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Sarah Miller")

	for _, name := range []string{"pipeline-review", "payment-reminders"} {
		_, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: name}})
		assert.NoError(t, err, name)
	}

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "nope"}})
	assert.Error(t, err)
}

func TestVizHandlers(t *testing.T) {
	h := NewVizHandlers(setupService(t))
	ctx := context.Background()

	_, out, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "contacts", ContactID: "seed-contact-3"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "Lena Fischer")
	assert.Equal(t, 2, out.EdgeCount, "works-at and one deal")

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline", ContactID: "seed-contact-3"})
	assert.Error(t, err)
	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{})
	assert.Error(t, err)

	_, dash, err := h.Dashboard(ctx, nil, DashboardInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, dash.OpenTasks)
	assert.Equal(t, "43500.00", dash.PipelineValue)
	assert.Contains(t, dash.Text, "BIZCRM DASHBOARD")
}

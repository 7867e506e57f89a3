// ABOUTME: Tests for CRM data models
// ABOUTME: Covers deal stage ordering, invoice numbering and calendar link results
package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealStageOrdering(t *testing.T) {
	assert.Equal(t, 0, StageLead.Index())
	assert.Equal(t, 4, StageWon.Index())
	assert.Equal(t, -1, DealStage("Lost").Index())

	assert.Equal(t, StageContacted, StageLead.Next())
	assert.Equal(t, StageWon, StageNegotiation.Next())
	assert.Equal(t, StageWon, StageWon.Next())
	assert.False(t, DealStage("").Valid())
}

func TestNextInvoiceNumberUsesMaxNotCount(t *testing.T) {
	invoices := []Invoice{
		{Number: "2025-101"},
		{Number: "2025-103"},
	}

	assert.Equal(t, "2025-104", NextInvoiceNumber(invoices, 2025))
}

func TestNextInvoiceNumber(t *testing.T) {
	testCases := []struct {
		name     string
		numbers  []string
		year     int
		expected string
	}{
		{"empty collection", nil, 2025, "2025-101"},
		{"other years ignored", []string{"2024-250", "2024-251"}, 2025, "2025-101"},
		{"malformed ignored", []string{"draft", "2025-x", "2025-102"}, 2025, "2025-103"},
		{"unordered input", []string{"2025-120", "2025-101", "2025-119"}, 2025, "2025-121"},
		{"new year restarts", []string{"2025-150"}, 2026, "2026-101"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var invoices []Invoice
			for _, n := range tc.numbers {
				invoices = append(invoices, Invoice{Number: n})
			}
			assert.Equal(t, tc.expected, NextInvoiceNumber(invoices, tc.year))
		})
	}
}

func TestParseInvoiceNumber(t *testing.T) {
	year, seq, ok := ParseInvoiceNumber("2025-104")
	require.True(t, ok)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 104, seq)

	_, _, ok = ParseInvoiceNumber("25-104")
	assert.False(t, ok)
	_, _, ok = ParseInvoiceNumber("2025104")
	assert.False(t, ok)
}

func TestCreditNoteFor(t *testing.T) {
	original := Invoice{
		ID:        "inv-1",
		Number:    "2025-101",
		ContactID: "c-1",
		Amount:    decimal.NewFromInt(1200),
		Type:      InvoiceNormal,
	}

	credit := CreditNoteFor(original, "2025-102", "2025-03-01")

	assert.NotEmpty(t, credit.ID)
	assert.NotEqual(t, original.ID, credit.ID)
	assert.Equal(t, "inv-1", credit.CancelsInvoiceID)
	assert.Equal(t, "c-1", credit.ContactID)
	assert.True(t, credit.Amount.Equal(decimal.NewFromInt(-1200)))
	assert.True(t, credit.IsCreditNote())
	assert.False(t, credit.IsOpen())
}

func TestCommissionTotal(t *testing.T) {
	sources := []Invoice{
		{Amount: decimal.NewFromInt(1000)},
		{Amount: decimal.RequireFromString("250.50")},
	}

	total := CommissionTotal(sources, decimal.RequireFromString("0.1"))
	assert.Equal(t, "125.05", total.StringFixed(2))
}

func TestCalendarLinkJSON(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	task := Task{
		ID:            "t-1",
		Title:         "Call Anna",
		Type:          TaskCall,
		DueDate:       "2025-03-02",
		Priority:      PriorityHigh,
		GoogleEventID: "evt-1",
		CalendarSync:  Synced("evt-1", at),
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"googleEventId":"evt-1"`)
	assert.Contains(t, string(data), `"state":"synced"`)

	var decoded Task
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.CalendarSync.IsSynced())
	assert.True(t, decoded.Synced())

	local := LocalOnly("calendar not connected", at)
	assert.False(t, local.IsSynced())
	assert.Equal(t, "calendar not connected", local.Reason)

	var none *CalendarLink
	assert.False(t, none.IsSynced())
}

func TestTaskTimed(t *testing.T) {
	assert.True(t, Task{StartTime: "09:00"}.Timed())
	assert.False(t, Task{StartTime: "09:00", IsAllDay: true}.Timed())
	assert.False(t, Task{}.Timed())
}

func TestProfileFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", UserProfile{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", UserProfile{FirstName: "Ada"}.FullName())
	assert.Equal(t, "Lovelace", UserProfile{LastName: "Lovelace"}.FullName())
}

func TestIDGenerators(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())

	first := NewActivityID()
	time.Sleep(2 * time.Millisecond)
	second := NewActivityID()
	assert.Less(t, first, second)
}

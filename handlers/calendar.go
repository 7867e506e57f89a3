// ABOUTME: Calendar and integration MCP tool handlers
// ABOUTME: Implements sync_calendar, scan_mail and integration_status
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bizcrm/app"
)

type CalendarHandlers struct {
	svc *app.Service
}

func NewCalendarHandlers(svc *app.Service) *CalendarHandlers {
	return &CalendarHandlers{svc: svc}
}

type SyncCalendarInput struct{}

type SyncCalendarOutput struct {
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
	Fetched    int    `json:"fetched"`
	Imported   int    `json:"imported"`
	Updated    int    `json:"updated"`
	Ignored    int    `json:"ignored"`
	Policy     string `json:"policy"`
}

func (h *CalendarHandlers) SyncCalendar(ctx context.Context, _ *mcp.CallToolRequest, _ SyncCalendarInput) (*mcp.CallToolResult, SyncCalendarOutput, error) {
	res, err := h.svc.SyncCalendar(ctx)
	if err != nil {
		return nil, SyncCalendarOutput{}, fmt.Errorf("calendar sync failed: %w", err)
	}
	return nil, SyncCalendarOutput{
		Skipped:    res.Skipped,
		SkipReason: res.SkipReason,
		Fetched:    res.Fetched,
		Imported:   res.Imported,
		Updated:    res.Updated,
		Ignored:    res.Ignored,
		Policy:     string(h.svc.MergePolicy()),
	}, nil
}

type ScanMailInput struct{}

type ScanMailOutput struct {
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
	Scanned    int    `json:"scanned"`
	HighSignal int    `json:"high_signal"`
	Matched    int    `json:"matched"`
	Updated    int    `json:"updated"`
}

func (h *CalendarHandlers) ScanMail(ctx context.Context, _ *mcp.CallToolRequest, _ ScanMailInput) (*mcp.CallToolResult, ScanMailOutput, error) {
	res, err := h.svc.ScanMail(ctx)
	if err != nil {
		return nil, ScanMailOutput{}, fmt.Errorf("mail scan failed: %w", err)
	}
	return nil, ScanMailOutput{
		Skipped:    res.Skipped,
		SkipReason: res.SkipReason,
		Scanned:    res.Scanned,
		HighSignal: res.HighSignal,
		Matched:    res.Matched,
		Updated:    res.Updated,
	}, nil
}

type IntegrationStatusInput struct{}

type IntegrationStatusOutput struct {
	Calendar     bool   `json:"calendar"`
	Mail         bool   `json:"mail"`
	Email        string `json:"email,omitempty"`
	LastSync     string `json:"last_sync,omitempty"`
	SyncStatus   string `json:"sync_status"`
	SyncError    string `json:"sync_error,omitempty"`
	LastAuthFail string `json:"last_auth_error,omitempty"`
}

func (h *CalendarHandlers) IntegrationStatus(_ context.Context, _ *mcp.CallToolRequest, _ IntegrationStatusInput) (*mcp.CallToolResult, IntegrationStatusOutput, error) {
	st := h.svc.GetIntegrationStatus()
	sync := h.svc.Cache().SyncState()

	out := IntegrationStatusOutput{
		Calendar:   st.Calendar,
		Mail:       st.Mail,
		Email:      st.Email,
		SyncStatus: sync.Status,
		SyncError:  sync.ErrorMessage,
	}
	if sync.LastSyncTime != nil {
		out.LastSync = sync.LastSyncTime.Format("2006-01-02 15:04")
	}
	if err := h.svc.LastError(); err != nil {
		out.LastAuthFail = err.Error()
	}
	return nil, out, nil
}

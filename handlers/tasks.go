// ABOUTME: Task MCP tool handlers
// ABOUTME: Implements list_tasks, add_task, complete_task and delete_task with calendar mirroring
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

type TaskHandlers struct {
	svc *app.Service
	now func() time.Time
}

func NewTaskHandlers(svc *app.Service) *TaskHandlers {
	return &TaskHandlers{svc: svc, now: time.Now}
}

type TaskOutput struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	DueDate       string `json:"due_date,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	IsAllDay      bool   `json:"is_all_day,omitempty"`
	Priority      string `json:"priority"`
	IsCompleted   bool   `json:"is_completed"`
	ContactID     string `json:"contact_id,omitempty"`
	GoogleEventID string `json:"google_event_id,omitempty"`
	CalendarSync  string `json:"calendar_sync,omitempty"`
}

type ListTasksInput struct {
	IncludeCompleted bool   `json:"include_completed,omitempty" jsonschema:"Include completed tasks"`
	ContactID        string `json:"contact_id,omitempty" jsonschema:"Only tasks linked to this contact"`
}

type ListTasksOutput struct {
	Tasks []TaskOutput `json:"tasks"`
}

// ListTasks pulls the calendar first when it is connected.
func (h *TaskHandlers) ListTasks(ctx context.Context, _ *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	out := ListTasksOutput{Tasks: []TaskOutput{}}
	for _, t := range h.svc.GetTasks(ctx) {
		if t.IsCompleted && !input.IncludeCompleted {
			continue
		}
		if input.ContactID != "" && t.ContactID != input.ContactID {
			continue
		}
		out.Tasks = append(out.Tasks, taskToOutput(t))
	}
	return nil, out, nil
}

type AddTaskInput struct {
	Title     string `json:"title" jsonschema:"Task title (required)"`
	Type      string `json:"type,omitempty" jsonschema:"call, email, meeting or todo (default todo)"`
	Due       string `json:"due,omitempty" jsonschema:"Due date as YYYY-MM-DD or a phrase like 'tomorrow'"`
	StartTime string `json:"start_time,omitempty" jsonschema:"Start time HH:MM; omit for an all-day task"`
	EndTime   string `json:"end_time,omitempty" jsonschema:"End time HH:MM"`
	Priority  string `json:"priority,omitempty" jsonschema:"low, medium or high (default medium)"`
	ContactID string `json:"contact_id,omitempty" jsonschema:"Related contact ID"`
}

func (h *TaskHandlers) AddTask(ctx context.Context, _ *mcp.CallToolRequest, input AddTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, TaskOutput{}, fmt.Errorf("title is required")
	}
	due, err := app.ParseDue(input.Due, h.now())
	if err != nil {
		return nil, TaskOutput{}, err
	}

	t, err := h.svc.SaveTask(ctx, models.Task{
		Title:     input.Title,
		Type:      models.TaskType(input.Type),
		DueDate:   due,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		IsAllDay:  input.StartTime == "" && due != "",
		Priority:  models.Priority(input.Priority),
		ContactID: input.ContactID,
	})
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to create task: %w", err)
	}
	return nil, taskToOutput(t), nil
}

type CompleteTaskInput struct {
	ID   string `json:"id" jsonschema:"Task ID (required)"`
	Undo bool   `json:"undo,omitempty" jsonschema:"Mark the task as not completed instead"`
}

func (h *TaskHandlers) CompleteTask(ctx context.Context, _ *mcp.CallToolRequest, input CompleteTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.ID == "" {
		return nil, TaskOutput{}, fmt.Errorf("id is required")
	}
	t, found, err := h.svc.CompleteTask(ctx, input.ID, !input.Undo)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to update task: %w", err)
	}
	if !found {
		return nil, TaskOutput{}, fmt.Errorf("task not found: %s", input.ID)
	}
	return nil, taskToOutput(t), nil
}

type DeleteTaskInput struct {
	ID string `json:"id" jsonschema:"Task ID (required)"`
}

type DeleteTaskOutput struct {
	Deleted      bool   `json:"deleted"`
	CalendarSync string `json:"calendar_sync,omitempty"`
}

func (h *TaskHandlers) DeleteTask(ctx context.Context, _ *mcp.CallToolRequest, input DeleteTaskInput) (*mcp.CallToolResult, DeleteTaskOutput, error) {
	if input.ID == "" {
		return nil, DeleteTaskOutput{}, fmt.Errorf("id is required")
	}
	deleted, link, err := h.svc.DeleteTask(ctx, input.ID)
	if err != nil {
		return nil, DeleteTaskOutput{}, fmt.Errorf("failed to delete task: %w", err)
	}
	return nil, DeleteTaskOutput{Deleted: deleted, CalendarSync: describeLink(link)}, nil
}

func taskToOutput(t models.Task) TaskOutput {
	return TaskOutput{
		ID:            t.ID,
		Title:         t.Title,
		Type:          string(t.Type),
		DueDate:       t.DueDate,
		StartTime:     t.StartTime,
		EndTime:       t.EndTime,
		IsAllDay:      t.IsAllDay,
		Priority:      string(t.Priority),
		IsCompleted:   t.IsCompleted,
		ContactID:     t.ContactID,
		GoogleEventID: t.GoogleEventID,
		CalendarSync:  describeLink(t.CalendarSync),
	}
}

func describeLink(l *models.CalendarLink) string {
	switch {
	case l == nil:
		return ""
	case l.IsSynced():
		return "synced"
	default:
		return "local only: " + l.Reason
	}
}

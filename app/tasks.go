// ABOUTME: Task operations with best-effort calendar mirroring
// ABOUTME: Creates push before the local write; deletes push first and always delete locally
package app

import (
	"context"
	"fmt"

	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/sync"
)

// GetTasks pulls from the calendar when connected and returns the task list.
// A failed pull is logged and the cached list is returned.
func (s *Service) GetTasks(ctx context.Context) []models.Task {
	if _, err := s.calendar.Pull(ctx); err != nil {
		s.logger.Warn("calendar pull failed, showing cached tasks", "err", err)
	}
	return s.cache.Tasks.List()
}

// SaveTask creates a task. When the calendar is connected the event is created
// first; the outcome is attached to the task and never fails the save.
func (s *Service) SaveTask(ctx context.Context, t models.Task) (models.Task, error) {
	if t.ID == "" {
		t.ID = models.NewID()
	}
	if t.Type == "" {
		t.Type = models.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !t.Type.Valid() {
		return t, fmt.Errorf("unknown task type %q", t.Type)
	}
	if !t.Priority.Valid() {
		return t, fmt.Errorf("unknown priority %q", t.Priority)
	}
	t.UpdatedAt = s.now()

	return s.calendar.CreateTask(ctx, t)
}

// UpdateTask replaces a task locally, keeping its calendar link. Edits are
// not pushed to the calendar.
func (s *Service) UpdateTask(ctx context.Context, t models.Task) (bool, error) {
	t.UpdatedAt = s.now()
	return s.calendar.UpdateTask(ctx, t)
}

// CompleteTask toggles completion on the task with id.
func (s *Service) CompleteTask(ctx context.Context, id string, done bool) (models.Task, bool, error) {
	t, ok := s.cache.Tasks.Get(id)
	if !ok {
		return t, false, nil
	}
	t.IsCompleted = done
	found, err := s.UpdateTask(ctx, t)
	return t, found, err
}

// DeleteTask removes a task. A linked event is deleted first; if that fails
// the event may be orphaned, which the returned link reports.
func (s *Service) DeleteTask(ctx context.Context, id string) (bool, *models.CalendarLink, error) {
	return s.calendar.DeleteTask(ctx, id)
}

// SyncCalendar runs one pull and notifies the desktop when events arrived.
func (s *Service) SyncCalendar(ctx context.Context) (sync.PullResult, error) {
	res, err := s.calendar.Pull(ctx)
	if err != nil {
		return res, err
	}
	if res.Imported > 0 && s.bridge.IsDesktop() {
		if err := s.bridge.Notify("Calendar synced", fmt.Sprintf("%d new events imported", res.Imported)); err != nil {
			s.logger.Debug("notification failed", "err", err)
		}
	}
	return res, nil
}

// MergePolicy reports the active calendar merge policy.
func (s *Service) MergePolicy() sync.MergePolicy {
	return s.calendar.Policy()
}

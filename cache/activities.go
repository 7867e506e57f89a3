// ABOUTME: Activity feed operations
// ABOUTME: Records notifications and tracks read state
package cache

import (
	"context"

	"github.com/harperreed/bizcrm/models"
)

// RecordActivity prepends a new unread activity.
func (c *Cache) RecordActivity(ctx context.Context, typ, title, description string) (models.Activity, error) {
	return c.Activities.Create(ctx, models.Activity{
		ID:          models.NewActivityID(),
		Type:        typ,
		Title:       title,
		Description: description,
		Timestamp:   c.now().UTC(),
	})
}

// recordBestEffort records an activity and logs instead of failing the caller.
func (c *Cache) recordBestEffort(ctx context.Context, typ, title, description string) {
	if _, err := c.RecordActivity(ctx, typ, title, description); err != nil {
		c.logger.Warn("failed to record activity", "type", typ, "err", err)
	}
}

// MarkActivityRead flags one activity as read. Reports false if id is unknown.
func (c *Cache) MarkActivityRead(ctx context.Context, id string) (bool, error) {
	found := false
	err := c.Activities.Mutate(ctx, func(items []models.Activity) ([]models.Activity, bool) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			found = true
			if items[i].IsRead {
				return items, false
			}
			items[i].IsRead = true
			return items, true
		}
		return items, false
	})
	return found, err
}

// MarkAllActivitiesRead flags every activity as read and returns how many changed.
func (c *Cache) MarkAllActivitiesRead(ctx context.Context) (int, error) {
	changed := 0
	err := c.Activities.Mutate(ctx, func(items []models.Activity) ([]models.Activity, bool) {
		for i := range items {
			if !items[i].IsRead {
				items[i].IsRead = true
				changed++
			}
		}
		return items, changed > 0
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// UnreadCount returns the number of unread activities.
func (c *Cache) UnreadCount() int {
	n := 0
	for _, a := range c.Activities.List() {
		if !a.IsRead {
			n++
		}
	}
	return n
}

// ABOUTME: Merge policies for calendar events that differ from their local task
// ABOUTME: Provider-wins is the default; local-wins and last-write-wins are selectable
package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/bizcrm/models"
)

// MergePolicy decides whether a changed provider event overwrites its task.
type MergePolicy string

const (
	// ProviderWins overwrites local date, title and times on every pull.
	ProviderWins MergePolicy = "provider_wins"
	// LocalWins keeps local edits; only new events are imported.
	LocalWins MergePolicy = "local_wins"
	// LastWriteWins compares the event's update time with the task's.
	LastWriteWins MergePolicy = "last_write_wins"
)

// ParseMergePolicy accepts the policy names with dashes or underscores.
func ParseMergePolicy(s string) (MergePolicy, error) {
	p := MergePolicy(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch p {
	case "":
		return ProviderWins, nil
	case ProviderWins, LocalWins, LastWriteWins:
		return p, nil
	}
	return "", fmt.Errorf("unknown merge policy %q", s)
}

// TakeRemote reports whether the provider's version replaces local.
// remoteUpdated is zero when the provider did not report it.
func (p MergePolicy) TakeRemote(local models.Task, remoteUpdated time.Time) bool {
	switch p {
	case LocalWins:
		return false
	case LastWriteWins:
		if local.UpdatedAt.IsZero() || remoteUpdated.IsZero() {
			return true
		}
		return remoteUpdated.After(local.UpdatedAt)
	default:
		return true
	}
}

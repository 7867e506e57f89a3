// ABOUTME: Deal pipeline operations
// ABOUTME: Records an activity whenever a deal reaches the Won stage
package cache

import (
	"context"
	"fmt"

	"github.com/harperreed/bizcrm/models"
)

// UpdateDeal replaces a deal and records an activity when it moves to Won.
// A missing ID is a no-op and reports false.
func (c *Cache) UpdateDeal(ctx context.Context, d models.Deal) (bool, error) {
	prev, existed := c.Deals.Get(d.ID)

	found, err := c.Deals.Update(ctx, d)
	if err != nil || !found {
		return found, err
	}

	if existed && prev.Stage != models.StageWon && d.Stage == models.StageWon {
		c.recordBestEffort(ctx, models.ActivityDealWon,
			"Deal won: "+d.Title,
			fmt.Sprintf("%s closed", d.Value.StringFixed(2)))
	}
	return true, nil
}

// AdvanceDeal moves a deal one stage forward. Won deals stay Won.
func (c *Cache) AdvanceDeal(ctx context.Context, id string) (models.Deal, bool, error) {
	d, ok := c.Deals.Get(id)
	if !ok {
		return models.Deal{}, false, nil
	}
	d.Stage = d.Stage.Next()
	found, err := c.UpdateDeal(ctx, d)
	return d, found, err
}

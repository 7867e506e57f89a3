// ABOUTME: Tests for the entity cache and its store coherence
// ABOUTME: Covers ordering, no-op updates, seeding, rollback and corrupt-key fallback
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/store"
)

var testNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T) (*Cache, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	c := New(mem, WithClock(func() time.Time { return testNow }))
	require.NoError(t, c.Init(context.Background()))
	return c, mem
}

// assertCoherent checks that the stored JSON equals the cached list.
func assertCoherent[T Record](t *testing.T, b store.Backend, col *Collection[T]) {
	t.Helper()
	raw, err := b.Get(col.Key())
	require.NoError(t, err)
	want, err := json.Marshal(col.List())
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(raw))
}

func ids[T Record](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.GetID()
	}
	return out
}

func TestCoherenceAcrossMutations(t *testing.T) {
	c, mem := newTestCache(t)
	ctx := context.Background()

	_, err := c.Contacts.Create(ctx, models.Contact{ID: "a", Name: "Anna"})
	require.NoError(t, err)
	assertCoherent(t, mem, c.Contacts)

	_, err = c.Contacts.Create(ctx, models.Contact{ID: "b", Name: "Ben"})
	require.NoError(t, err)
	assertCoherent(t, mem, c.Contacts)

	found, err := c.Contacts.Update(ctx, models.Contact{ID: "a", Name: "Anna Schmidt"})
	require.NoError(t, err)
	assert.True(t, found)
	assertCoherent(t, mem, c.Contacts)

	found, err = c.Contacts.Delete(ctx, "b")
	require.NoError(t, err)
	assert.True(t, found)
	assertCoherent(t, mem, c.Contacts)

	got, ok := c.Contacts.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Anna Schmidt", got.Name)
}

func TestCreatePrependsNewestFirst(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		_, err := c.Tasks.Create(ctx, models.Task{ID: id, Title: id})
		require.NoError(t, err)
	}

	got := ids(c.Tasks.List())
	assert.Equal(t, []string{"C", "B", "A"}, got[:3])
}

func TestCreateReturnsRecordUnchanged(t *testing.T) {
	c, _ := newTestCache(t)

	in := models.Contact{ID: "x", Name: "Xavier", Email: "x@example.com"}
	out, err := c.Contacts.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUpdateMissingIDIsNoOp(t *testing.T) {
	c, mem := newTestCache(t)

	before := c.Deals.List()
	rawBefore, err := mem.Get(KeyDeals)
	require.NoError(t, err)

	found, err := c.Deals.Update(context.Background(), models.Deal{ID: "missing", Title: "Ghost"})
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, ids(before), ids(c.Deals.List()))
	rawAfter, err := mem.Get(KeyDeals)
	require.NoError(t, err)
	assert.Equal(t, rawBefore, rawAfter)
}

func TestDeleteMissingIDIsNoOp(t *testing.T) {
	c, mem := newTestCache(t)

	before := c.Tasks.List()
	rawBefore, err := mem.Get(KeyTasks)
	require.NoError(t, err)

	found, err := c.Tasks.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)

	assert.Len(t, c.Tasks.List(), len(before))
	rawAfter, err := mem.Get(KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, rawBefore, rawAfter)
}

func TestListReturnsCopy(t *testing.T) {
	c, _ := newTestCache(t)

	list := c.Contacts.List()
	require.NotEmpty(t, list)
	list[0].Name = "mutated"

	assert.NotEqual(t, "mutated", c.Contacts.List()[0].Name)
}

func TestInitIsIdempotent(t *testing.T) {
	c, mem := newTestCache(t)
	first := snapshot(t, c)

	require.NoError(t, c.Init(context.Background()))
	assert.Equal(t, first, snapshot(t, c))

	restarted := New(mem, WithClock(func() time.Time { return testNow.Add(48 * time.Hour) }))
	require.NoError(t, restarted.Init(context.Background()))
	assert.Equal(t, first, snapshot(t, restarted))
}

func snapshot(t *testing.T, c *Cache) map[string]string {
	t.Helper()
	values := map[string]any{
		KeyContacts:       c.Contacts.List(),
		KeyDeals:          c.Deals.List(),
		KeyTasks:          c.Tasks.List(),
		KeyInvoices:       c.Invoices.List(),
		KeyExpenses:       c.Expenses.List(),
		KeyActivities:     c.Activities.List(),
		KeyProductPresets: c.Presets.List(),
		KeyUserProfile:    c.Profile(),
		KeyInvoiceConfig:  c.InvoiceConfig(),
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = string(data)
	}
	return out
}

func TestInitSeedsEveryKey(t *testing.T) {
	_, mem := newTestCache(t)

	for _, key := range []string{
		KeyContacts, KeyDeals, KeyTasks, KeyInvoices, KeyExpenses,
		KeyActivities, KeyUserProfile, KeyProductPresets, KeyInvoiceConfig,
	} {
		ok, err := store.Exists(mem, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
}

func TestInitKeepsExistingData(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, store.Write(mem, KeyContacts, []models.Contact{{ID: "mine", Name: "Mine"}}))

	c := New(mem)
	require.NoError(t, c.Init(context.Background()))

	assert.Equal(t, []string{"mine"}, ids(c.Contacts.List()))
	assert.NotEmpty(t, c.Deals.List())
}

func TestInitCorruptKeyFallsBackToDefault(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Set(KeyContacts, []byte("{not json")))
	require.NoError(t, store.Write(mem, KeyDeals, []models.Deal{{ID: "d1", Title: "Kept", Stage: models.StageLead}}))

	c := New(mem, WithClock(func() time.Time { return testNow }))
	require.NoError(t, c.Init(context.Background()))

	assert.Equal(t, ids(DefaultDataset(testNow).Contacts), ids(c.Contacts.List()))
	assert.Equal(t, []string{"d1"}, ids(c.Deals.List()))

	raw, err := mem.Get(KeyContacts)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}

func TestInitBackendFailure(t *testing.T) {
	mem := store.NewMemory()
	mem.FailWrites = errors.New("read-only filesystem")

	err := New(mem).Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only filesystem")
}

func TestWriteFailureRollsBack(t *testing.T) {
	c, mem := newTestCache(t)
	ctx := context.Background()
	before := ids(c.Contacts.List())
	rawBefore, err := mem.Get(KeyContacts)
	require.NoError(t, err)

	mem.FailWrites = errors.New("disk full")

	_, err = c.Contacts.Create(ctx, models.Contact{ID: "new"})
	require.Error(t, err)
	assert.Equal(t, before, ids(c.Contacts.List()))

	first := c.Contacts.List()[0]
	first.Name = "Changed"
	_, err = c.Contacts.Update(ctx, first)
	require.Error(t, err)
	assert.NotEqual(t, "Changed", c.Contacts.List()[0].Name)

	_, err = c.Contacts.Delete(ctx, first.ID)
	require.Error(t, err)
	assert.Equal(t, before, ids(c.Contacts.List()))

	err = c.SaveProfile(ctx, models.UserProfile{FirstName: "Nope"})
	require.Error(t, err)
	assert.NotEqual(t, "Nope", c.Profile().FirstName)

	rawAfter, err := mem.Get(KeyContacts)
	require.NoError(t, err)
	assert.Equal(t, rawBefore, rawAfter)
}

func TestCancelledContext(t *testing.T) {
	c, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Contacts.Create(ctx, models.Contact{ID: "late"})
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := c.Contacts.Get("late")
	assert.False(t, ok)
}

func TestConcurrentCreatesLoseNothing(t *testing.T) {
	c, mem := newTestCache(t)
	ctx := context.Background()
	start := c.Tasks.Len()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Tasks.Create(ctx, models.Task{ID: fmt.Sprintf("t%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, start+50, c.Tasks.Len())
	assertCoherent(t, mem, c.Tasks)
}

func TestMutateWithoutChangeSkipsWrite(t *testing.T) {
	c, mem := newTestCache(t)
	mem.FailWrites = errors.New("should not be called")

	err := c.Tasks.Mutate(context.Background(), func(items []models.Task) ([]models.Task, bool) {
		return items, false
	})
	assert.NoError(t, err)
}

func TestSingletons(t *testing.T) {
	c, mem := newTestCache(t)
	ctx := context.Background()

	assert.Equal(t, "Alex", c.Profile().FirstName)
	assert.Equal(t, models.SyncStatusIdle, c.SyncState().Status)

	require.NoError(t, c.SaveProfile(ctx, models.UserProfile{FirstName: "Ada", LastName: "Lovelace"}))
	require.NoError(t, c.SaveInvoiceConfig(ctx, models.InvoiceConfig{CompanyName: "Analytical Engines"}))
	require.NoError(t, c.SaveSyncState(ctx, models.SyncState{Service: "calendar", Status: models.SyncStatusError, ErrorMessage: "boom"}))

	profile, err := store.Read(mem, KeyUserProfile, models.UserProfile{})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.FullName())

	reloaded := New(mem)
	require.NoError(t, reloaded.Init(ctx))
	assert.Equal(t, "Analytical Engines", reloaded.InvoiceConfig().CompanyName)
	assert.Equal(t, "boom", reloaded.SyncState().ErrorMessage)
}

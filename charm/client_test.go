// ABOUTME: Tests for the charm-backed store backend
// ABOUTME: Runs against a local BadgerDB so no charm server is required

package charm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bizcrm/store"
)

var _ store.Backend = (*Client)(nil)

func TestClientGetMissingKey(t *testing.T) {
	c := NewTestClient(t)

	_, err := c.Get("contacts")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClientSetGetDelete(t *testing.T) {
	c := NewTestClient(t)

	require.NoError(t, c.Set("contacts", []byte(`[{"id":"c1"}]`)))
	v, err := c.Get("contacts")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"c1"}]`, string(v))

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"contacts"}, keys)

	require.NoError(t, c.Delete("contacts"))
	_, err = c.Get("contacts")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClientSyncsAfterWrites(t *testing.T) {
	c := NewTestClient(t)
	tkv := c.kv.(*testKV)

	require.NoError(t, c.Set("deals", []byte(`[]`)))
	require.NoError(t, c.Delete("deals"))
	assert.Equal(t, 2, tkv.syncs)

	c.config.AutoSync = false
	require.NoError(t, c.Set("deals", []byte(`[]`)))
	assert.Equal(t, 2, tkv.syncs)
}

func TestClientWorksWithStoreHelpers(t *testing.T) {
	c := NewTestClient(t)

	require.NoError(t, store.Write(c, "tasks", []map[string]string{{"id": "t1"}}))
	got, err := store.Read(c, "tasks", []map[string]string(nil))
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"id": "t1"}}, got)
}

func TestClientReset(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, c.Set("a", []byte("1")))
	require.NoError(t, c.Reset())

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)

	var nilCfg *Config
	assert.Equal(t, DefaultCharmHost, nilCfg.withDefaults().Host)

	custom := (&Config{Host: "charm.example.com"}).withDefaults()
	assert.Equal(t, "charm.example.com", custom.Host)
	assert.NotZero(t, custom.StaleThreshold)
}

// ABOUTME: Connection status reporting for the Charm backend
// ABOUTME: Charm authenticates with SSH keys, so status is derived from the device ID

package charm

// Status summarizes the charm backend for display.
type Status struct {
	Host      string
	AutoSync  bool
	Connected bool
	ID        string
	Keys      int
}

// Status collects host, link state and key count. A missing ID is not an
// error: the device simply has not linked yet.
func (c *Client) Status() Status {
	cfg := c.Config()
	st := Status{Host: cfg.Host, AutoSync: cfg.AutoSync}

	if id, err := c.ID(); err == nil {
		st.Connected = true
		st.ID = id
	}

	if keys, err := c.Keys(); err == nil {
		st.Keys = len(keys)
	}
	return st
}

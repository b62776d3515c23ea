package redis

import (
	"context"

	"github.com/kbukum/srag/provider"
)

var _ provider.Provider = (*Client)(nil)

// Name returns the configured client name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// IsAvailable reports whether the client is open and the server answers.
func (c *Client) IsAvailable(ctx context.Context) bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}
	return c.rdb.Ping(ctx).Err() == nil
}

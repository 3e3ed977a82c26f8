package elasticsearch

import "time"

// SetClock replaces the clock that seeds document sequence numbers.
func (c *Client) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

package broadcast

import (
	"context"
	"sync"
)

// MemoryChannel is a process-local Channel. It retains the last value per key
// and replays those to new subscribers, so a listener attached after a
// publish still observes the current state.
type MemoryChannel struct {
	mu     sync.Mutex
	last   map[string]Message
	order  []string
	subs   map[int]chan Message
	nextID int
	closed bool
}

// NewMemoryChannel creates an in-process broadcast channel.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{
		last: make(map[string]Message),
		subs: make(map[int]chan Message),
	}
}

// Publish records the message as the key's current value and fans it out.
// Subscribers that are not draining lose older messages, never the latest.
func (c *MemoryChannel) Publish(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if _, ok := c.last[msg.Key]; !ok {
		c.order = append(c.order, msg.Key)
	}
	c.last[msg.Key] = msg
	for _, ch := range c.subs {
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
	return nil
}

// Subscribe attaches a listener. The current value of every published key is
// delivered first, in first-publish order.
func (c *MemoryChannel) Subscribe(ctx context.Context) (<-chan Message, func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	// The buffer must hold the full replay so no current value is lost
	// before the subscriber starts draining.
	buf := 16
	if n := len(c.order); n > buf {
		buf = n
	}
	ch := make(chan Message, buf)
	if !c.closed {
		c.subs[id] = ch
		for _, key := range c.order {
			select {
			case ch <- c.last[key]:
			default:
			}
		}
	} else {
		close(ch)
	}
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
			c.mu.Unlock()
		})
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return ch, cancel
}

// Close shuts the channel and closes all subscriber streams.
func (c *MemoryChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	return nil
}

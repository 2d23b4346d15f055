package core

import "sync"

// Client is a live connection as seen by the core layer. The transport feeds
// Commands and drains Events; the hub never closes Events, so a departed
// client simply stops being addressed.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 16),
		Events:   make(chan *Event, 32),
	}
}

// closeCommands shuts the command channel exactly once, so racing teardown
// paths cannot close a closed channel.
func (c *Client) closeCommands() {
	c.closeOnce.Do(func() { close(c.Commands) })
}

// deliver hands an event to the client without blocking. A full buffer means
// the recipient is too slow or half-closed; the event is dropped for that
// client only and the fan-out continues.
func (c *Client) deliver(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}

package transport

import "encoding/json"

// Transport is the pub/sub connection the chat core drives. Every call is
// fire-and-forget: the effect of a handshake, subscribe or publish lands later
// as an inbound Frame delivered to the registered Handler. Implementations
// must deliver frames one at a time from a single goroutine.
type Transport interface {
	// Handshake starts session establishment, carrying ext as an opaque
	// credential extension.
	Handshake(ext any)
	// Disconnect tears the session down. Safe to call when not connected.
	Disconnect()
	// Subscribe registers interest in a channel and returns the handle for it.
	Subscribe(channel string) *Subscription
	// Unsubscribe cancels a subscription. The handle is dead afterwards.
	Unsubscribe(sub *Subscription)
	// Resubscribe re-establishes a previously held subscription after a
	// reconnect. The returned handle keeps the channel but carries a new ID,
	// so the server can tell a replay from a first subscribe.
	Resubscribe(sub *Subscription) *Subscription
	// Publish sends data on a channel.
	Publish(channel string, data any)
	// Batch runs fn and sends every operation it issues as one network unit.
	// No inbound atomicity is implied.
	Batch(fn func())
}

// Subscription is the opaque handle returned by Subscribe. The ID changes on
// resubscribe; the channel is the subscription's logical identity.
type Subscription struct {
	ID      string
	Channel string
}

// Frame is one inbound delivery on a named channel.
type Frame struct {
	Channel string
	Data    json.RawMessage
}

// Handler consumes inbound frames. The core installs its dispatch entry point
// here.
type Handler func(Frame)

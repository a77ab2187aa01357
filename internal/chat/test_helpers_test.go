package chat

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sbordet/oort-chat-demo/internal/transport"
)

// fakeTransport records every transport call in order.
type fakeTransport struct {
	ops     []fakeOp
	batches int
}

type fakeOp struct {
	op      string
	channel string
	data    any
}

func (f *fakeTransport) Handshake(ext any) {
	f.ops = append(f.ops, fakeOp{op: "handshake", data: ext})
}

func (f *fakeTransport) Disconnect() {
	f.ops = append(f.ops, fakeOp{op: "disconnect"})
}

func (f *fakeTransport) Subscribe(channel string) *transport.Subscription {
	f.ops = append(f.ops, fakeOp{op: "subscribe", channel: channel})
	return &transport.Subscription{ID: uuid.NewString(), Channel: channel}
}

func (f *fakeTransport) Unsubscribe(sub *transport.Subscription) {
	f.ops = append(f.ops, fakeOp{op: "unsubscribe", channel: sub.Channel})
}

func (f *fakeTransport) Resubscribe(sub *transport.Subscription) *transport.Subscription {
	f.ops = append(f.ops, fakeOp{op: "resubscribe", channel: sub.Channel})
	return &transport.Subscription{ID: uuid.NewString(), Channel: sub.Channel}
}

func (f *fakeTransport) Publish(channel string, data any) {
	f.ops = append(f.ops, fakeOp{op: "publish", channel: channel, data: data})
}

func (f *fakeTransport) Batch(fn func()) {
	f.batches++
	fn()
}

func (f *fakeTransport) reset() {
	f.ops = nil
	f.batches = 0
}

func (f *fakeTransport) opsOf(op string) []fakeOp {
	var out []fakeOp
	for _, o := range f.ops {
		if o.op == op {
			out = append(out, o)
		}
	}
	return out
}

func newTestSession(t *testing.T) (*Session, *fakeTransport) {
	t.Helper()

	tr := &fakeTransport{}
	logger := zerolog.Nop()
	return NewSession(tr, nil, &logger), tr
}

// deliver feeds one inbound frame into the session's dispatch table.
func deliver(t *testing.T, s *Session, channel string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal frame payload: %v", err)
	}
	s.HandleFrame(transport.Frame{Channel: channel, Data: data})
}

// loginAs drives the session to authenticated as the given user.
func loginAs(t *testing.T, s *Session, user string) {
	t.Helper()

	if err := s.Login(user); err != nil {
		t.Fatalf("login: %v", err)
	}
	deliver(t, s, ChannelHandshake, map[string]bool{"successful": true})
	if s.State() != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %v", s.State())
	}
}

// mustEvent finds the next already-emitted event of the given kind.
func mustEvent(t *testing.T, s *Session, kind EventKind) *Event {
	t.Helper()

	for {
		select {
		case ev := <-s.Events():
			if ev.Kind == kind {
				return ev
			}
		default:
			t.Fatalf("expected event kind %v not emitted", kind)
			return nil
		}
	}
}

func drainEvents(s *Session) {
	for {
		select {
		case <-s.Events():
		default:
			return
		}
	}
}

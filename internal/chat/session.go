package chat

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sbordet/oort-chat-demo/internal/proto"
	"github.com/sbordet/oort-chat-demo/internal/transport"
)

// CredentialFunc turns the user handle into the opaque credential carried by
// the handshake. A nil func sends the bare handle.
type CredentialFunc func(user string) (string, error)

// Session is the top-level state machine over anonymous, authenticating and
// authenticated. It owns the identity, the dispatch table for inbound frames
// and the room, roster and chat-log components, and it is the only component
// issuing handshake and disconnect calls.
//
// All state is guarded by one mutex: user-facing operations and the
// transport's delivery loop both serialize through it. Transport calls are
// fire-and-forget; their effects come back later through HandleFrame.
type Session struct {
	mu sync.Mutex

	tr    transport.Transport
	creds CredentialFunc
	log   *zerolog.Logger

	state State
	user  string

	rooms   *RoomDirectory
	roster  *RosterTracker
	history *ChatHistoryApplier
	subs    *SubscriptionManager

	globals  []*transport.Subscription
	handlers map[string]func(json.RawMessage)

	events chan *Event
}

// NewSession builds a session over the given transport. creds may be nil.
func NewSession(tr transport.Transport, creds CredentialFunc, logger *zerolog.Logger) *Session {
	s := &Session{
		tr:      tr,
		creds:   creds,
		log:     logger,
		state:   StateAnonymous,
		rooms:   NewRoomDirectory(),
		roster:  NewRosterTracker(),
		history: NewChatHistoryApplier(),
		subs:    NewSubscriptionManager(tr, logger),
		events:  make(chan *Event, 64),
	}
	s.handlers = map[string]func(json.RawMessage){
		ChannelHandshake:  s.onHandshake,
		ChannelUsers:      s.onUsers,
		ChannelRooms:      s.onRooms,
		ChannelRoomJoin:   s.onRoomJoined,
		ChannelRoomLeave:  s.onRoomLeft,
		ChannelRoomEdit:   s.onRoomEdited,
		ChannelRoomCreate: s.onRoomCreated,
		ChannelChat:       s.onChatHistory,
		ChannelStatus:     s.onStatus,
	}
	return s
}

// Events is the change-notification stream for the view layer. Slow consumers
// lose events rather than block the session.
func (s *Session) Events() <-chan *Event {
	return s.events
}

// HandleFrame is the dispatch entry point for inbound transport frames.
// Install it as the transport's handler.
func (s *Session) HandleFrame(f transport.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.handlers[f.Channel]; ok {
		h(f.Data)
		return
	}

	roomID, joined := s.subs.Joined()
	switch {
	case strings.HasPrefix(f.Channel, membersPrefix):
		if joined && f.Channel == MembersChannel(roomID) {
			s.onMembers(f.Data)
			return
		}
	case strings.HasPrefix(f.Channel, chatPrefix):
		if joined && f.Channel == ChatChannel(roomID) {
			s.onChat(f.Data)
			return
		}
	}
	s.log.Debug().Str("channel", f.Channel).Msg("dropping frame for unknown channel")
}

// Login stores the identity and starts the handshake, carrying the credential
// as an opaque extension. Rejects blank users before any state change or
// transport call. The transition to authenticated happens asynchronously when
// the handshake reply arrives.
func (s *Session) Login(user string) error {
	if strings.TrimSpace(user) == "" {
		return validationError(ErrCodeEmptyUser, "user name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAnonymous {
		return ErrAlreadyLoggedIn
	}

	token := ""
	if s.creds != nil {
		t, err := s.creds(user)
		if err != nil {
			return err
		}
		token = t
	}

	s.user = user
	s.state = StateAuthenticating
	s.log.Info().Str("user", user).Msg("logging in")
	s.tr.Handshake(proto.HandshakeExt{Auth: proto.AuthData{User: user, Token: token}})
	s.emit(&Event{Kind: EventSessionState, State: s.state, User: s.user})
	return nil
}

// Logout disconnects and clears all session state. Idempotent and safe to
// call from any state, including on process teardown.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tr.Disconnect()
	if s.user != "" {
		s.log.Info().Str("user", s.user).Msg("logged out")
	}

	changed := s.state != StateAnonymous
	s.user = ""
	s.state = StateAnonymous
	s.subs.Reset()
	s.rooms.Clear()
	s.roster.Clear()
	s.history.Clear()
	s.globals = nil

	if changed {
		s.emit(&Event{Kind: EventSessionState, State: s.state})
	}
}

// Resubscribe re-establishes exactly the subscriptions that were logically
// active before a transport-level reconnect, using the resubscribe primitive
// so the server does not treat the replay as a fresh join. With nothing
// previously subscribed it does nothing. Install it as the transport's
// reconnect callback.
func (s *Session) Resubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.globals) == 0 {
		if _, joined := s.subs.Joined(); !joined {
			return
		}
	}
	s.tr.Batch(func() {
		for i, sub := range s.globals {
			s.globals[i] = s.tr.Resubscribe(sub)
		}
		s.subs.Resubscribe()
	})
}

// JoinRoom joins a room, first fully leaving any currently joined one. The
// roster and chat log restart empty; the server seeds them with the roster
// deltas and history snapshot that follow the join.
func (s *Session) JoinRoom(room Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return ErrNotAuthenticated
	}
	s.roster.Clear()
	s.history.Clear()
	s.subs.EnterRoom(room)
	return nil
}

// LeaveRoom leaves the joined room. A no-op without one.
func (s *Session) LeaveRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs.ExitRoom()
	s.roster.Clear()
	s.history.Clear()
}

// CreateRoom asks the server to create a room. The room only becomes visible
// through the next room-list broadcast.
func (s *Session) CreateRoom(name string) error {
	if strings.TrimSpace(name) == "" {
		return validationError(ErrCodeEmptyRoomName, "room name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return ErrNotAuthenticated
	}
	s.log.Info().Str("room", name).Msg("creating room")
	s.rooms.MarkCreating()
	s.tr.Publish(ChannelRoomCreate, proto.RoomCreateRequest{RoomName: name})
	return nil
}

// EditRoom asks the server to rename a room.
func (s *Session) EditRoom(roomID, name string) error {
	if strings.TrimSpace(name) == "" {
		return validationError(ErrCodeEmptyRoomName, "room name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return ErrNotAuthenticated
	}
	s.log.Info().Str("roomId", roomID).Str("room", name).Msg("renaming room")
	s.tr.Publish(ChannelRoomEdit, proto.RoomEditRequest{RoomID: roomID, RoomName: name})
	return nil
}

// SendText publishes a chat line to the joined room. Empty text or no joined
// room is a silent no-op. The line is not appended locally: the server's echo
// on the chat channel is the single authoritative order for everyone,
// including the sender.
func (s *Session) SendText(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, joined := s.subs.Joined()
	if s.state != StateAuthenticated || !joined {
		return
	}
	s.tr.Publish(ChannelChat, proto.ChatSendRequest{UserID: s.user, RoomID: roomID, Text: text})
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the identity, empty unless logged in.
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Rooms returns the known room set.
func (s *Session) Rooms() []Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.Rooms()
}

// CurrentRoom returns the joined room, if any.
func (s *Session) CurrentRoom() (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.Current()
}

// Roster returns the joined room's member ids in ascending lexical order.
func (s *Session) Roster() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Snapshot()
}

// Messages returns the chat log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Messages()
}

// --- inbound handlers, called with the lock held ---

func (s *Session) onHandshake(data json.RawMessage) {
	var reply proto.HandshakeReply
	if err := json.Unmarshal(data, &reply); err != nil {
		s.log.Warn().Err(err).Msg("bad handshake reply")
		return
	}

	if !reply.Successful {
		if s.state == StateAuthenticating {
			s.log.Warn().Str("user", s.user).Msg("handshake rejected")
			s.user = ""
			s.state = StateAnonymous
			s.emit(&Event{Kind: EventLoginFailed})
			s.emit(&Event{Kind: EventSessionState, State: s.state})
		}
		return
	}

	switch s.state {
	case StateAuthenticating:
		s.state = StateAuthenticated
		s.log.Info().Str("user", s.user).Msg("logged in")
		s.establishSubscriptions()
		s.emit(&Event{Kind: EventSessionState, State: s.state, User: s.user})
	case StateAuthenticated:
		// Re-handshake after a transport recovery.
		s.establishSubscriptions()
	default:
		s.log.Debug().Msg("dropping handshake reply with no login in flight")
	}
}

// establishSubscriptions subscribes the global channels, replays any
// previously held subscriptions and publishes the init request, as one batch.
func (s *Session) establishSubscriptions() {
	s.tr.Batch(func() {
		if len(s.globals) == 0 {
			for _, ch := range []string{
				ChannelUsers,
				ChannelRooms,
				ChannelRoomJoin,
				ChannelRoomLeave,
				ChannelRoomEdit,
				ChannelRoomCreate,
				ChannelChat,
				ChannelStatus,
			} {
				s.globals = append(s.globals, s.tr.Subscribe(ch))
			}
		} else {
			for i, sub := range s.globals {
				s.globals[i] = s.tr.Resubscribe(sub)
			}
		}
		s.subs.Resubscribe()
		s.tr.Publish(ChannelInit, proto.InitRequest{})
	})
}

func (s *Session) onUsers(data json.RawMessage) {
	var count int
	if err := json.Unmarshal(data, &count); err != nil {
		s.log.Warn().Err(err).Msg("bad user count")
		return
	}
	s.emit(&Event{Kind: EventUserCount, Count: count})
}

func (s *Session) onRooms(data json.RawMessage) {
	var infos []proto.RoomInfo
	if err := json.Unmarshal(data, &infos); err != nil {
		s.log.Warn().Err(err).Msg("bad room list")
		return
	}
	rooms := make([]Room, len(infos))
	for i, info := range infos {
		rooms[i] = Room{ID: info.ID, Name: info.Name}
	}
	s.rooms.ReplaceAll(rooms)
	s.emit(&Event{Kind: EventRooms, Rooms: rooms})
}

func (s *Session) onRoomJoined(data json.RawMessage) {
	var info proto.RoomInfo
	if err := json.Unmarshal(data, &info); err != nil {
		s.log.Warn().Err(err).Msg("bad room-joined notification")
		return
	}
	room := Room{ID: info.ID, Name: info.Name}
	s.rooms.ApplyJoined(room)
	s.log.Info().Str("room", room.Name).Msg("room joined")
	s.emit(&Event{Kind: EventRoomJoined, Room: &room})
}

func (s *Session) onRoomLeft(data json.RawMessage) {
	var info proto.RoomInfo
	if err := json.Unmarshal(data, &info); err != nil {
		s.log.Warn().Err(err).Msg("bad room-left notification")
		return
	}
	room := Room{ID: info.ID, Name: info.Name}
	if s.rooms.ApplyLeft(room) {
		s.roster.Clear()
		s.history.Clear()
		s.log.Info().Str("room", room.Name).Msg("room left")
	}
	s.emit(&Event{Kind: EventRoomLeft, Room: &room})
}

func (s *Session) onRoomEdited(data json.RawMessage) {
	var info proto.RoomInfo
	if err := json.Unmarshal(data, &info); err != nil {
		s.log.Warn().Err(err).Msg("bad room-edited notification")
		return
	}
	room := Room{ID: info.ID, Name: info.Name}
	s.rooms.ApplyEdited(room)
	s.emit(&Event{Kind: EventRoomEdited, Room: &room})
}

func (s *Session) onRoomCreated(data json.RawMessage) {
	var info proto.RoomInfo
	if err := json.Unmarshal(data, &info); err != nil {
		s.log.Warn().Err(err).Msg("bad room-created notification")
		return
	}
	room := Room{ID: info.ID, Name: info.Name}
	s.rooms.ApplyCreated()
	s.emit(&Event{Kind: EventRoomCreated, Room: &room})
}

func (s *Session) onChatHistory(data json.RawMessage) {
	var info proto.ChatHistoryInfo
	if err := json.Unmarshal(data, &info); err != nil {
		s.log.Warn().Err(err).Msg("bad chat history")
		return
	}
	history := make([]Message, len(info.Chats))
	for i, c := range info.Chats {
		history[i] = Message{Author: c.User.ID, Text: c.Text}
	}
	s.history.ApplySnapshot(history)
	s.emit(&Event{Kind: EventChatHistory, History: s.history.Messages()})
}

func (s *Session) onChat(data json.RawMessage) {
	var info proto.ChatInfo
	if err := json.Unmarshal(data, &info); err != nil {
		s.log.Warn().Err(err).Msg("bad chat message")
		return
	}
	msg := Message{Author: info.User.ID, Text: info.Text}
	s.history.AppendLive(msg)
	s.emit(&Event{Kind: EventChatMessage, Message: &msg})
}

func (s *Session) onMembers(data json.RawMessage) {
	var delta proto.MembersData
	if err := json.Unmarshal(data, &delta); err != nil {
		s.log.Warn().Err(err).Msg("bad roster delta")
		return
	}
	s.roster.ApplyDelta(delta.Action, delta.Members)
	s.emit(&Event{Kind: EventRoster, Members: s.roster.Snapshot()})
}

func (s *Session) onStatus(data json.RawMessage) {
	var status string
	if err := json.Unmarshal(data, &status); err != nil {
		s.log.Warn().Err(err).Msg("bad status")
		return
	}
	s.emit(&Event{Kind: EventStatus, Status: status})
}

func (s *Session) emit(ev *Event) {
	select {
	case s.events <- ev:
	default:
		// Drop if the view is a slow consumer.
		s.log.Debug().Int("kind", int(ev.Kind)).Msg("dropping event")
	}
}

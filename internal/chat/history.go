package chat

// ChatHistoryApplier maintains the ordered, append-only chat log of the
// joined room: one history snapshot seeds it right after a join, live
// deliveries append to it. It never reorders and never deduplicates;
// ordering is the chat channel's delivery order.
type ChatHistoryApplier struct {
	messages []Message
}

// NewChatHistoryApplier returns an empty log.
func NewChatHistoryApplier() *ChatHistoryApplier {
	return &ChatHistoryApplier{}
}

// ApplySnapshot discards the log and replaces it with the delivered history.
func (h *ChatHistoryApplier) ApplySnapshot(history []Message) {
	h.messages = make([]Message, len(history))
	copy(h.messages, history)
}

// AppendLive appends one message to the tail.
func (h *ChatHistoryApplier) AppendLive(msg Message) {
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of the log.
func (h *ChatHistoryApplier) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the log length.
func (h *ChatHistoryApplier) Len() int {
	return len(h.messages)
}

// Clear empties the log.
func (h *ChatHistoryApplier) Clear() {
	h.messages = nil
}

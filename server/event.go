package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeWelcome     EventType = "welcome"
	EventTypeRoomJoined  EventType = "room.joined"
	EventTypeRoomCount   EventType = "room.count"
	EventTypeChatMessage EventType = "chat.message"
	EventTypeError       EventType = "error"
	EventTypeTipCreated  EventType = "tip.created"
	EventTypeTipUpdated  EventType = "tip.updated"
	EventTypeTipDeleted  EventType = "tip.deleted"
)

// SenderPeer is the fixed classification stamped on relayed chat
// messages so receiving clients render them as coming from another
// participant.
const SenderPeer = "peer"

// Event is the outbound envelope; Payload shape depends on Type.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (e Event) toBytes() []byte {
	b, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return b
}

func newEvent(t EventType, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{Type: t}
	}
	return Event{Type: t, Payload: raw}
}

type EventWelcome struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

func newEventWelcome(defaultRoom string) Event {
	return newEvent(EventTypeWelcome, EventWelcome{
		Room:    defaultRoom,
		Message: "connected to the wellness chat",
	})
}

type EventRoomJoined struct {
	RoomID string `json:"roomId"`
}

func newEventRoomJoined(roomID string) Event {
	return newEvent(EventTypeRoomJoined, EventRoomJoined{RoomID: roomID})
}

type EventRoomCount struct {
	RoomID string `json:"roomId"`
	Count  int    `json:"count"`
}

func newEventRoomCount(roomID string, count int) Event {
	return newEvent(EventTypeRoomCount, EventRoomCount{RoomID: roomID, Count: count})
}

type EventChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	From      string    `json:"from"`
	Timestamp time.Time `json:"timestamp"`
}

func newEventChatMessage(roomID, content, from string) Event {
	return newEvent(EventTypeChatMessage, EventChatMessage{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Content:   content,
		Sender:    SenderPeer,
		From:      from,
		Timestamp: time.Now().UTC(),
	})
}

type EventError struct {
	Error string `json:"error"`
}

func newEventError(reason string) Event {
	return newEvent(EventTypeError, EventError{Error: reason})
}

// TipRef identifies a deleted tip in a tip.deleted broadcast.
type TipRef struct {
	ID string `json:"id"`
}

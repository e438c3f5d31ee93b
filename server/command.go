package server

import (
	"encoding/json"
	"errors"
)

type CommandType string

const (
	CommandTypeJoin  CommandType = "room.join"
	CommandTypeChat  CommandType = "chat.message"
	CommandTypeLeave CommandType = "room.leave"
)

var errMissingType = errors.New("missing command type")

// ClientCommand is the inbound envelope. RoomID is only meaningful
// for room.join and defaults to the hub's default room when empty;
// Content is required for chat.message.
type ClientCommand struct {
	Type    CommandType `json:"type"`
	RoomID  string      `json:"roomId,omitempty"`
	Content string      `json:"content,omitempty"`
}

// parseCommand distinguishes malformed frames (error) from unknown
// command types (returned as-is, dispatched to the ignore branch).
func parseCommand(data []byte) (ClientCommand, error) {
	var cmd ClientCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, err
	}
	if cmd.Type == "" {
		return cmd, errMissingType
	}
	return cmd, nil
}

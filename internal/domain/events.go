package domain

// Wire event types, discriminated by the "type" field of every message.
const (
	EventJoinRoom      = "join_room"
	EventLeaveRoom     = "leave_room"
	EventChat          = "chat"
	EventDrawingCreate = "drawing_create"
	EventDrawingUpdate = "drawing_update"
	EventDrawingDelete = "drawing_delete"
)

// Envelope is the inbound client message shape. All event types share one
// envelope; which fields are meaningful depends on Type.
type Envelope struct {
	Type   string `json:"type"`
	RoomID RoomID `json:"roomId,omitempty"`
	// Room is the payload key older clients used for leave_room.
	Room      RoomID          `json:"room,omitempty"`
	Message   string          `json:"message,omitempty"`
	Drawing   *DrawingElement `json:"drawing,omitempty"`
	DrawingID string          `json:"drawingId,omitempty"`
}

// TargetRoom resolves the room an envelope addresses, tolerating the
// legacy leave_room key.
func (e Envelope) TargetRoom() RoomID {
	if e.RoomID != "" {
		return e.RoomID
	}
	return e.Room
}

// ServerEvent is the outbound message shape fanned out to room members.
type ServerEvent struct {
	Type              string          `json:"type"`
	RoomID            RoomID          `json:"roomId"`
	Message           string          `json:"message,omitempty"`
	SenderDisplayName string          `json:"senderDisplayName,omitempty"`
	Drawing           *DrawingElement `json:"drawing,omitempty"`
	DrawingID         string          `json:"drawingId,omitempty"`
}

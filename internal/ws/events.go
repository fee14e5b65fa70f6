package ws

import "encoding/json"

// Event type discriminators exchanged over the connection
const (
	// client -> server
	EventAuthRequest    = "authRequest"
	EventChangeName     = "changeName"
	EventRemovalRequest = "removalRequest"

	// server -> client
	EventError         = "myError"
	EventGameStatus    = "gameStatus"
	EventNameChanged   = "nameChanged"
	EventRemovedPlayer = "removedPlayer"
	EventKicked        = "kicked"
)

// TypeAuthError tags authentication failures so the client discards its
// stored credentials and returns to the entry screen.
const TypeAuthError = "authError"

// Envelope frames every message in both directions
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// AuthRequest carries a client's claimed identity
type AuthRequest struct {
	GameCode int    `json:"gameCode"`
	Name     string `json:"name"`
	Key      string `json:"key"`
}

// ChangeName asks to rename the authenticated player
type ChangeName struct {
	NewName string `json:"newName"`
}

// RemovalRequest asks to remove a player from the session
type RemovalRequest struct {
	Name string `json:"name"`
}

// ErrorPayload is the myError event body
type ErrorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// RosterEntry is one player in a status snapshot
type RosterEntry struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// StatusPayload is the pre-game status snapshot pushed to a session's room
type StatusPayload struct {
	Playing bool          `json:"playing"`
	Players []RosterEntry `json:"players"`
}

// NameChanged confirms a rename to the requester
type NameChanged struct {
	NewName string `json:"newName"`
}

// RemovedPlayer announces a removal to the room
type RemovedPlayer struct {
	Name string `json:"name"`
}

// marshalEvent frames a payload in an Envelope ready to write
func marshalEvent(eventType string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

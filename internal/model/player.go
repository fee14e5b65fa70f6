package model

// Player is a joined participant in a session. Order is assigned at join time
// and never reassigned. HashedKey is the digest of the player's secret; the
// secret itself is never persisted. ConnectionID identifies the live
// connection bound to this player, empty until a successful authentication.
type Player struct {
	Name         string `json:"name"`
	Order        int    `json:"order"`
	HashedKey    string `json:"hashed_key"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// Credential is a player's proof of a prior join. It exists only in transit;
// the key is compared against the stored digest and then discarded.
type Credential struct {
	Code SessionCode
	Name string
	Key  string
}

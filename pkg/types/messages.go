package types

import "encoding/json"

// Client -> Server events. Every payload carries at least code and identity.
//
// joinLobby:   { code, identity }
// leaveLobby:  { code, identity }
// startGame:   { code, identity }
// castVote:    { code, identity, vote: "agree" | "disagree" | "abstain" }
// castRevote:  { code, identity, vote: "agree" | "disagree" | "abstain" }
// requestSync: { code, identity }
// restartGame: { code, identity }
const (
	EvtJoinLobby   = "joinLobby"
	EvtLeaveLobby  = "leaveLobby"
	EvtStartGame   = "startGame"
	EvtCastVote    = "castVote"
	EvtCastRevote  = "castRevote"
	EvtRequestSync = "requestSync"
	EvtRestartGame = "restartGame"
)

// EvtError is sent only to the member whose request was rejected.
const EvtError = "error"

type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ClientPayload struct {
	Code     string `json:"code"`
	Identity string `json:"identity"`
	Vote     string `json:"vote,omitempty"`
}

type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

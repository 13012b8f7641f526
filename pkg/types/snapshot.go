package types

// Admission API bodies.
//
// POST /lobbies            { identity }         -> 201 { code, lobby }
// POST /lobbies/{code}/join { identity }        -> 200 { lobby, reconnected }
// GET  /lobbies/{code}                          -> 200 { lobby }
//
// lobby:
//   code: string
//   participants: { identity, isHost, connected }[]
//   createdAt: RFC 3339 timestamp
//   gameStarted: boolean

// IdentityRequest is the body of both create and join.
type IdentityRequest struct {
	Identity string `json:"identity" validate:"required,min=2,max=32"`
}

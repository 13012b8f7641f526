// Package gateway fans lobby events out to the sockets bound to each lobby member.
package gateway

import (
	"sync"

	"github.com/DoyleJ11/debate-lobby-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultBuffer = 64

// Client is one socket bound to a lobby member. Its outbox is closed when the client is
// dropped for falling behind or replaced by a newer socket for the same identity.
type Client struct {
	ID       string
	Code     string
	Identity string

	out    chan types.ServerMessage
	closed bool
}

func (c *Client) Outbox() <-chan types.ServerMessage { return c.out }

type Gateway struct {
	mu     sync.Mutex
	groups map[string]map[string]*Client
	buffer int
	log    *zap.Logger
}

func New(log *zap.Logger, buffer int) *Gateway {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Gateway{
		groups: make(map[string]map[string]*Client),
		buffer: buffer,
		log:    log,
	}
}

// Attach binds a new socket to identity in code, replacing any older one.
func (g *Gateway) Attach(code, identity string) *Client {
	c := &Client{
		ID:       uuid.NewString(),
		Code:     code,
		Identity: identity,
		out:      make(chan types.ServerMessage, g.buffer),
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	members := g.groups[code]
	if members == nil {
		members = make(map[string]*Client)
		g.groups[code] = members
	}
	if old := members[identity]; old != nil {
		g.log.Debug("socket replaced", zap.String("code", code), zap.String("identity", identity))
		old.close()
	}
	members[identity] = c
	return c
}

// Detach unbinds c. It reports true only when c was still the member's current socket, so a
// replaced socket closing late does not count as the member disconnecting.
func (g *Gateway) Detach(c *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	members := g.groups[c.Code]
	if members == nil || members[c.Identity] != c {
		return false
	}
	c.close()
	delete(members, c.Identity)
	if len(members) == 0 {
		delete(g.groups, c.Code)
	}
	return true
}

func (g *Gateway) SendToGroup(code, event string, payload any) {
	msg := types.ServerMessage{Event: event, Data: payload}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.groups[code] {
		g.push(c, msg)
	}
}

func (g *Gateway) SendToMember(code, identity, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c := g.groups[code][identity]; c != nil {
		g.push(c, types.ServerMessage{Event: event, Data: payload})
	}
}

// Members returns how many live sockets are bound in code.
func (g *Gateway) Members(code string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.groups[code] {
		if !c.closed {
			n++
		}
	}
	return n
}

// push never blocks: a client whose outbox is full is dropped and its socket torn down by
// the writer. The entry stays so its reader can still Detach and report the disconnect.
func (g *Gateway) push(c *Client, msg types.ServerMessage) {
	if c.closed {
		return
	}
	select {
	case c.out <- msg:
	default:
		g.log.Warn("dropping slow client",
			zap.String("code", c.Code),
			zap.String("identity", c.Identity),
			zap.String("client", c.ID),
		)
		c.close()
	}
}

func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}

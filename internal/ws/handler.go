package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/DoyleJ11/debate-lobby-backend/internal/engine"
	"github.com/DoyleJ11/debate-lobby-backend/internal/gateway"
	"github.com/DoyleJ11/debate-lobby-backend/internal/hub"
	"github.com/DoyleJ11/debate-lobby-backend/internal/lobby"
	"github.com/DoyleJ11/debate-lobby-backend/pkg/types"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

var errNotJoined = errors.New("join a lobby first")

type Options struct {
	OriginPatterns []string
}

func Handler(h *hub.Hub, gw *gateway.Gateway, log *zap.Logger, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		s := &session{conn: conn, hub: h, gw: gw, log: log}
		s.serve(r.Context())
	}
}

// session is one socket. It binds to at most one lobby member at a time.
type session struct {
	conn *websocket.Conn
	hub  *hub.Hub
	gw   *gateway.Gateway
	log  *zap.Logger

	lobby  *lobby.Lobby
	client *gateway.Client
	// bound mirrors client for the writer goroutine.
	bound atomic.Pointer[gateway.Client]
}

func (s *session) serve(ctx context.Context) {
	defer s.unbind(true)

	for {
		var msg types.ClientMessage
		if err := wsjson.Read(ctx, s.conn, &msg); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					s.log.Debug("socket read ended", zap.Error(err))
				}
			}
			return
		}

		var p types.ClientPayload
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &p); err != nil {
				s.fail(ctx, msg.Event, errors.New("bad payload"))
				continue
			}
		}

		if err := s.dispatch(ctx, msg.Event, p); err != nil {
			s.fail(ctx, msg.Event, err)
		}
	}
}

func (s *session) dispatch(ctx context.Context, event string, p types.ClientPayload) error {
	if event == types.EvtJoinLobby {
		return s.join(ctx, p)
	}
	if s.client == nil {
		return errNotJoined
	}
	identity := s.client.Identity

	switch event {
	case types.EvtLeaveLobby:
		s.lobby.Send(lobby.Leave{Identity: identity})
		s.unbind(false)
		return nil

	case types.EvtStartGame:
		return s.lobby.StartGame(ctx, identity)

	case types.EvtRestartGame:
		return s.lobby.RestartGame(ctx, identity)

	case types.EvtCastVote, types.EvtCastRevote:
		choice, err := engine.ParseChoice(p.Vote)
		if err != nil {
			return err
		}
		if event == types.EvtCastVote {
			return s.lobby.CastVote(ctx, identity, choice)
		}
		return s.lobby.CastRevote(ctx, identity, choice)

	case types.EvtRequestSync:
		return s.lobby.RequestSync(ctx, identity)

	default:
		return errors.New("unknown event")
	}
}

// join binds the socket to a lobby member. The gateway is attached before the lobby is told,
// so the state the lobby sends back on connect reaches this socket.
func (s *session) join(ctx context.Context, p types.ClientPayload) error {
	identity := strings.TrimSpace(p.Identity)
	lb, err := s.hub.Get(ctx, p.Code)
	if err != nil {
		return err
	}

	if s.client != nil {
		if s.client.Code == lb.Code() && s.client.Identity == identity {
			return lb.RequestSync(ctx, identity)
		}
		s.unbind(true)
	}

	client := s.gw.Attach(lb.Code(), identity)
	if err := lb.Connect(ctx, identity); err != nil {
		s.gw.Detach(client)
		return err
	}
	s.lobby, s.client = lb, client
	s.bound.Store(client)
	go s.write(ctx, client)
	return nil
}

// unbind detaches the current client. When disconnect is set and this socket was still the
// member's current one, the lobby is told the member dropped.
func (s *session) unbind(disconnect bool) {
	if s.client == nil {
		return
	}
	s.bound.Store(nil)
	current := s.gw.Detach(s.client)
	if disconnect && current {
		s.lobby.Send(lobby.Disconnect{Identity: s.client.Identity})
	}
	s.lobby, s.client = nil, nil
}

// write drains one client's outbox. When the gateway closes the outbox for a client that is
// still bound (dropped as slow or replaced by another socket) the connection is closed.
func (s *session) write(ctx context.Context, c *gateway.Client) {
	for msg := range c.Outbox() {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(wctx, s.conn, msg)
		cancel()
		if err != nil {
			return
		}
		if msg.Event == lobby.EvtLobbyClosed {
			s.conn.Close(websocket.StatusNormalClosure, "lobby closed")
			return
		}
	}
	if ctx.Err() == nil && s.bound.Load() == c {
		s.conn.Close(websocket.StatusPolicyViolation, "connection superseded")
	}
}

func (s *session) fail(ctx context.Context, event string, err error) {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = wsjson.Write(wctx, s.conn, types.ServerMessage{
		Event: types.EvtError,
		Data:  types.ErrorPayload{Event: event, Message: err.Error()},
	})
}

package hub

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DoyleJ11/debate-lobby-backend/internal/lobby"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("lobby not found")
var ErrCodeSpaceExhausted = errors.New("could not find a free lobby code")
var ErrClosed = errors.New("hub closed")

// maxCodeAttempts bounds the collision loop; with 36^6 codes it is never reached in practice.
const maxCodeAttempts = 32

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Host  string
	Reply chan CreateResult
}

type CreateResult struct {
	Lobby *lobby.Lobby
	Err   error
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// RemoveLobby forgets code only while it still maps to Lobby, so a late removal from a
// closed lobby never drops a newer lobby that reused the code.
type RemoveLobby struct {
	Code  string
	Lobby *lobby.Lobby
}

type CountLobbies struct {
	Reply chan int
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg()  {}
func (GetLobby) isHubMsg()     {}
func (RemoveLobby) isHubMsg()  {}
func (CountLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}

// Deps is what every lobby the hub creates is built with. Generate defaults to GenerateCode.
type Deps struct {
	Lobby    lobby.Deps
	Generate func() (string, error)
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	deps    Deps
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewHub(parent context.Context, deps Deps) *Hub {
	if deps.Generate == nil {
		deps.Generate = GenerateCode
	}
	if deps.Lobby.Log == nil {
		deps.Lobby.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		deps:    deps,
		log:     deps.Lobby.Log.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	h.deps.Lobby.OnClose = h.onLobbyClosed
	go h.loop()
	return h
}

func (h *Hub) loop() {
	defer close(h.stopped)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				lb, err := h.create(msg.Host)
				msg.Reply <- CreateResult{Lobby: lb, Err: err}

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case RemoveLobby:
				if h.lobbies[msg.Code] == msg.Lobby {
					delete(h.lobbies, msg.Code)
					h.log.Debug("lobby removed", zap.String("code", msg.Code))
				}

			case CountLobbies:
				msg.Reply <- len(h.lobbies)

			case ShutdownHub:
				h.cancel()
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(host string) (*lobby.Lobby, error) {
	for range maxCodeAttempts {
		code, err := h.deps.Generate()
		if err != nil {
			return nil, err
		}
		if h.lobbies[code] != nil {
			h.log.Warn("collision on code, regenerating", zap.String("code", code))
			continue
		}
		lb := lobby.New(h.ctx, code, host, h.deps.Lobby)
		h.lobbies[code] = lb
		h.log.Info("lobby created", zap.String("code", code), zap.String("host", host))
		return lb, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// shutdown closes every lobby and waits for their loops; lobbies never block on the hub
// once its context is done.
func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Close()
	}
	for _, lb := range h.lobbies {
		<-lb.Stopped()
	}
	clear(h.lobbies)
}

// onLobbyClosed runs on the closing lobby's goroutine.
func (h *Hub) onLobbyClosed(code string, lb *lobby.Lobby) {
	select {
	case h.inbox <- RemoveLobby{Code: code, Lobby: lb}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) send(ctx context.Context, msg HubMsg) error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case h.inbox <- msg:
		return nil
	case <-h.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ask sends msg and waits for its reply.
func ask[T any](ctx context.Context, h *Hub, build func(reply chan T) HubMsg) (T, error) {
	var zero T
	reply := make(chan T, 1)
	if err := h.send(ctx, build(reply)); err != nil {
		return zero, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-h.stopped:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Create validates the host identity and opens a new lobby.
func (h *Hub) Create(ctx context.Context, host string) (*lobby.Lobby, error) {
	host, err := lobby.ValidateIdentity(host)
	if err != nil {
		return nil, err
	}
	res, err := ask(ctx, h, func(r chan CreateResult) HubMsg { return CreateLobby{Host: host, Reply: r} })
	if err != nil {
		return nil, err
	}
	return res.Lobby, res.Err
}

// Get looks up a lobby; codes are matched case-insensitively.
func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	lb, err := ask(ctx, h, func(r chan *lobby.Lobby) HubMsg { return GetLobby{Code: code, Reply: r} })
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, ErrNotFound
	}
	return lb, nil
}

// Join admits identity into code. During a running game a known identity reconnects.
func (h *Hub) Join(ctx context.Context, code, identity string) (lobby.AdmitResult, error) {
	lb, err := h.Get(ctx, code)
	if err != nil {
		return lobby.AdmitResult{}, err
	}
	return lb.Admit(ctx, identity)
}

func (h *Hub) Count(ctx context.Context) (int, error) {
	return ask(ctx, h, func(r chan int) HubMsg { return CountLobbies{Reply: r} })
}

// Evict forwards a reaper eviction to the owning lobby; a lobby that is already gone is
// ignored.
func (h *Hub) Evict(code, identity string, since time.Time) {
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()
	lb, err := h.Get(ctx, code)
	if err != nil {
		return
	}
	lb.Send(lobby.Evict{Identity: identity, Since: since})
}

// Shutdown closes every lobby and stops the hub, returning once all lobby loops exited.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
	<-h.stopped
}

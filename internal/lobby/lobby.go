package lobby

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/DoyleJ11/debate-lobby-backend/internal/engine"
	"github.com/DoyleJ11/debate-lobby-backend/internal/timer"
	"github.com/DoyleJ11/debate-lobby-backend/internal/topics"
	"go.uber.org/zap"
)

var ErrInvalidIdentity = errors.New("identity must be at least 2 characters")
var ErrIdentityTaken = errors.New("identity already taken in this lobby")
var ErrNotHost = errors.New("only the host can do that")
var ErrGameInProgress = errors.New("game already in progress")
var ErrNotEnoughPlayers = errors.New("not enough connected players")
var ErrLobbyClosed = errors.New("lobby closed")

// Broadcaster delivers events to the members of a lobby. Calls are made from the lobby's
// goroutine, so a lobby's events reach each member in the order they were produced.
type Broadcaster interface {
	SendToGroup(code, event string, payload any)
	SendToMember(code, identity, event string, payload any)
}

// Tracker records mid-game disconnects so they can be evicted after a grace window.
type Tracker interface {
	Track(code, identity string, at time.Time)
	Forget(code, identity string)
	ForgetLobby(code string)
}

type Deps struct {
	Rules     engine.Rules
	Topics    *topics.Pool
	Broadcast Broadcaster
	Tracker   Tracker
	Log       *zap.Logger
	// Tick is the length of one timer tick; one second in production.
	Tick time.Duration
	Now  func() time.Time
	Intn func(n int) int
	// OnClose runs on the lobby goroutine once the lobby is torn down.
	OnClose func(code string, l *Lobby)
}

type Msg interface{ isLobbyMsg() }

// Admit is the admission-API join: a new identity is added, a known identity during a
// running game is a reconnection.
type Admit struct {
	Identity string
	Reply    chan AdmitResult
}

type AdmitResult struct {
	Lobby       Snapshot
	Reconnected bool
	Err         error
}

// Connect binds a member's socket: marks them connected and sends them the current state.
type Connect struct {
	Identity string
	Reply    chan error
}

type Leave struct{ Identity string }

type Disconnect struct{ Identity string }

// Evict removes a member whose disconnect at Since outlived the grace window.
type Evict struct {
	Identity string
	Since    time.Time
}

type StartGame struct {
	Identity string
	Reply    chan error
}

type RestartGame struct {
	Identity string
	Reply    chan error
}

type CastVote struct {
	Identity string
	Choice   engine.Choice
	Reply    chan error
}

type CastRevote struct {
	Identity string
	Choice   engine.Choice
	Reply    chan error
}

type RequestSync struct {
	Identity string
	Reply    chan error
}

type Shutdown struct{}

type GetState struct {
	Reply chan View
}

type timerFired struct{ fn func() }

func (Admit) isLobbyMsg()       {}
func (Connect) isLobbyMsg()     {}
func (Leave) isLobbyMsg()       {}
func (Disconnect) isLobbyMsg()  {}
func (Evict) isLobbyMsg()       {}
func (StartGame) isLobbyMsg()   {}
func (RestartGame) isLobbyMsg() {}
func (CastVote) isLobbyMsg()    {}
func (CastRevote) isLobbyMsg()  {}
func (RequestSync) isLobbyMsg() {}
func (Shutdown) isLobbyMsg()    {}
func (GetState) isLobbyMsg()    {}
func (timerFired) isLobbyMsg()  {}

// Lobby owns one lobby's roster and round state. All mutation happens on its loop
// goroutine; other goroutines talk to it through the inbox.
type Lobby struct {
	code         string
	createdAt    time.Time
	participants []*Participant
	round        *engine.RoundState
	timer        *timer.Timer
	settling     bool
	closed       bool

	deps    Deps
	rules   engine.Rules
	log     *zap.Logger
	inbox   chan Msg
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New starts a lobby whose first participant is the host.
func New(parent context.Context, code, host string, deps Deps) *Lobby {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Intn == nil {
		deps.Intn = rand.IntN
	}
	if deps.Topics == nil {
		deps.Topics = topics.NewPool(topics.Builtin)
	}
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		code:         code,
		createdAt:    deps.Now(),
		participants: []*Participant{{Identity: host, IsHost: true, Connected: true}},
		deps:         deps,
		rules:        deps.Rules,
		log:          deps.Log.With(zap.String("code", code)),
		inbox:        make(chan Msg, 64),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
	}
	l.timer = timer.New(l.dispatch, deps.Tick)

	go l.loop()
	return l
}

func (l *Lobby) Code() string { return l.code }

// Done is closed once the lobby has been torn down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Send delivers msg unless the lobby is already closed.
func (l *Lobby) Send(msg Msg) bool {
	select {
	case l.inbox <- msg:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// Close tears the lobby down from outside its goroutine.
func (l *Lobby) Close() { l.cancel() }

// Stopped is closed after the loop has finished its teardown.
func (l *Lobby) Stopped() <-chan struct{} { return l.stopped }

func (l *Lobby) dispatch(fn func()) bool {
	return l.Send(timerFired{fn: fn})
}

func (l *Lobby) loop() {
	defer close(l.stopped)
	for {
		select {
		case <-l.ctx.Done():
			l.teardown("shutdown")
			return

		case m := <-l.inbox:
			l.handle(m)
			if l.closed {
				return
			}
		}
	}
}

func (l *Lobby) handle(m Msg) {
	switch msg := m.(type) {
	case Admit:
		snap, reconnected, err := l.admit(msg.Identity)
		if msg.Reply != nil {
			msg.Reply <- AdmitResult{Lobby: snap, Reconnected: reconnected, Err: err}
		}

	case Connect:
		reply(msg.Reply, l.connect(msg.Identity))

	case Leave:
		l.leave(msg.Identity)

	case Disconnect:
		l.disconnect(msg.Identity)

	case Evict:
		l.evict(msg.Identity, msg.Since)

	case StartGame:
		reply(msg.Reply, l.startGame(msg.Identity))

	case RestartGame:
		reply(msg.Reply, l.restartGame(msg.Identity))

	case CastVote:
		reply(msg.Reply, l.castVote(msg.Identity, msg.Choice, false))

	case CastRevote:
		reply(msg.Reply, l.castVote(msg.Identity, msg.Choice, true))

	case RequestSync:
		reply(msg.Reply, l.requestSync(msg.Identity))

	case GetState:
		msg.Reply <- View{
			Lobby:      l.snapshot(),
			Round:      l.round.Clone(),
			TimerArmed: l.timer.Armed(),
		}

	case Shutdown:
		l.teardown("shutdown")

	case timerFired:
		msg.fn()
	}
}

func reply(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

// teardown is idempotent; after it the loop exits and queued messages are dropped.
func (l *Lobby) teardown(reason string) {
	if l.closed {
		return
	}
	l.closed = true
	l.timer.Cancel()
	l.round = nil
	l.group(EvtLobbyClosed, struct{}{})
	if l.deps.Tracker != nil {
		l.deps.Tracker.ForgetLobby(l.code)
	}
	l.log.Info("lobby closed", zap.String("reason", reason))
	if l.deps.OnClose != nil {
		l.deps.OnClose(l.code, l)
	}
	l.cancel()
}

func (l *Lobby) group(event string, payload any) {
	if l.deps.Broadcast != nil {
		l.deps.Broadcast.SendToGroup(l.code, event, payload)
	}
}

func (l *Lobby) member(identity, event string, payload any) {
	if l.deps.Broadcast != nil {
		l.deps.Broadcast.SendToMember(l.code, identity, event, payload)
	}
}

// ask sends the message built around a fresh reply channel and waits for the answer.
func ask[T any](ctx context.Context, l *Lobby, build func(reply chan T) Msg) (T, error) {
	var zero T
	ch := make(chan T, 1)
	if !l.Send(build(ch)) {
		return zero, ErrLobbyClosed
	}
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-l.ctx.Done():
		// the reply may have been written just before teardown
		select {
		case v := <-ch:
			return v, nil
		default:
			return zero, ErrLobbyClosed
		}
	}
}

func askErr(ctx context.Context, l *Lobby, build func(reply chan error) Msg) error {
	err, sendErr := ask(ctx, l, build)
	if sendErr != nil {
		return sendErr
	}
	return err
}

func (l *Lobby) Admit(ctx context.Context, identity string) (AdmitResult, error) {
	res, err := ask(ctx, l, func(r chan AdmitResult) Msg { return Admit{Identity: identity, Reply: r} })
	if err != nil {
		return res, err
	}
	return res, res.Err
}

func (l *Lobby) Connect(ctx context.Context, identity string) error {
	return askErr(ctx, l, func(r chan error) Msg { return Connect{Identity: identity, Reply: r} })
}

func (l *Lobby) StartGame(ctx context.Context, identity string) error {
	return askErr(ctx, l, func(r chan error) Msg { return StartGame{Identity: identity, Reply: r} })
}

func (l *Lobby) RestartGame(ctx context.Context, identity string) error {
	return askErr(ctx, l, func(r chan error) Msg { return RestartGame{Identity: identity, Reply: r} })
}

func (l *Lobby) CastVote(ctx context.Context, identity string, choice engine.Choice) error {
	return askErr(ctx, l, func(r chan error) Msg { return CastVote{Identity: identity, Choice: choice, Reply: r} })
}

func (l *Lobby) CastRevote(ctx context.Context, identity string, choice engine.Choice) error {
	return askErr(ctx, l, func(r chan error) Msg { return CastRevote{Identity: identity, Choice: choice, Reply: r} })
}

func (l *Lobby) RequestSync(ctx context.Context, identity string) error {
	return askErr(ctx, l, func(r chan error) Msg { return RequestSync{Identity: identity, Reply: r} })
}

func (l *Lobby) State(ctx context.Context) (View, error) {
	return ask(ctx, l, func(r chan View) Msg { return GetState{Reply: r} })
}

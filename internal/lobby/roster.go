package lobby

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DoyleJ11/debate-lobby-backend/internal/engine"
	"go.uber.org/zap"
)

type Participant struct {
	Identity  string `json:"identity"`
	IsHost    bool   `json:"isHost"`
	Connected bool   `json:"connected"`

	disconnectedAt time.Time
}

// ValidateIdentity trims raw and rejects names shorter than two characters.
func ValidateIdentity(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if utf8.RuneCountInString(id) < 2 {
		return "", ErrInvalidIdentity
	}
	return id, nil
}

func (l *Lobby) find(identity string) *Participant {
	for _, p := range l.participants {
		if p.Identity == identity {
			return p
		}
	}
	return nil
}

// identities lists the roster in join order.
func (l *Lobby) identities() []string {
	out := make([]string, 0, len(l.participants))
	for _, p := range l.participants {
		out = append(out, p.Identity)
	}
	return out
}

func (l *Lobby) connected() []string {
	out := make([]string, 0, len(l.participants))
	for _, p := range l.participants {
		if p.Connected {
			out = append(out, p.Identity)
		}
	}
	return out
}

func (l *Lobby) admit(raw string) (Snapshot, bool, error) {
	identity, err := ValidateIdentity(raw)
	if err != nil {
		return Snapshot{}, false, err
	}

	if p := l.find(identity); p != nil {
		if l.round == nil {
			return Snapshot{}, false, ErrIdentityTaken
		}
		l.reconnect(p)
		return l.snapshot(), true, nil
	}

	l.participants = append(l.participants, &Participant{Identity: identity, Connected: true})
	if l.round != nil {
		l.round.Scores[identity] = 0
		l.log.Info("late join", zap.String("identity", identity), zap.Int("round", l.round.RoundNumber))
	} else {
		l.log.Info("participant joined", zap.String("identity", identity))
	}
	l.group(EvtLobbyUpdated, l.snapshot())
	return l.snapshot(), false, nil
}

// reconnect restores a participant's presence. Votes and score are left untouched.
func (l *Lobby) reconnect(p *Participant) {
	if l.deps.Tracker != nil {
		l.deps.Tracker.Forget(l.code, p.Identity)
	}
	if p.Connected {
		return
	}
	p.Connected = true
	p.disconnectedAt = time.Time{}
	if l.round != nil {
		if _, ok := l.round.Scores[p.Identity]; !ok {
			l.round.Scores[p.Identity] = 0
		}
	}
	l.log.Info("participant reconnected", zap.String("identity", p.Identity))
	l.group(EvtLobbyUpdated, l.snapshot())
}

func (l *Lobby) connect(raw string) error {
	identity := strings.TrimSpace(raw)
	p := l.find(identity)
	if p == nil {
		return engine.ErrUnknownParticipant
	}

	if p.Connected {
		l.member(identity, EvtLobbyUpdated, l.snapshot())
	} else {
		l.reconnect(p)
	}

	if l.round == nil {
		return nil
	}
	l.sendSync(identity)
	if !l.round.StartRoster[identity] {
		l.member(identity, EvtLateJoinWelcome, LateJoinPayload{
			RoundNumber:  l.round.RoundNumber,
			CurrentPhase: l.round.Phase,
			CurrentTopic: l.round.CurrentTopic,
		})
	}
	return nil
}

func (l *Lobby) leave(identity string) {
	p := l.find(identity)
	if p == nil {
		return
	}
	if p.IsHost {
		l.teardown("host left")
		return
	}
	l.remove(identity)
	l.log.Info("participant left", zap.String("identity", identity))
	l.afterRemoval()
}

// disconnect handles a dropped socket. Before the game a drop is a departure; during the game
// the participant is kept, marked disconnected and handed to the tracker.
func (l *Lobby) disconnect(identity string) {
	p := l.find(identity)
	if p == nil {
		return
	}
	if p.IsHost {
		l.teardown("host disconnected")
		return
	}
	if l.round == nil {
		l.remove(identity)
		l.log.Info("participant dropped before game", zap.String("identity", identity))
		l.afterRemoval()
		return
	}
	if !p.Connected {
		return
	}

	p.Connected = false
	p.disconnectedAt = l.deps.Now()
	if l.deps.Tracker != nil {
		l.deps.Tracker.Track(l.code, identity, p.disconnectedAt)
	}
	l.log.Info("participant disconnected", zap.String("identity", identity))
	l.group(EvtLobbyUpdated, l.snapshot())
	l.checkAllVoted()
}

// evict drops a participant still disconnected since the recorded moment. A participant who
// reconnected, or disconnected again later, is left alone.
func (l *Lobby) evict(identity string, since time.Time) {
	p := l.find(identity)
	if p == nil || p.Connected || !p.disconnectedAt.Equal(since) {
		return
	}
	l.remove(identity)
	l.log.Info("participant evicted", zap.String("identity", identity))
	l.afterRemoval()
}

func (l *Lobby) remove(identity string) {
	for i, p := range l.participants {
		if p.Identity == identity {
			l.participants = append(l.participants[:i], l.participants[i+1:]...)
			break
		}
	}
	if l.deps.Tracker != nil {
		l.deps.Tracker.Forget(l.code, identity)
	}
	// A removed identity that comes back is a new late joiner.
	if r := l.round; r != nil {
		delete(r.Scores, identity)
		delete(r.Votes, identity)
		delete(r.Revotes, identity)
		delete(r.StartRoster, identity)
		delete(r.UsedSpeakers, identity)
	}
}

func (l *Lobby) afterRemoval() {
	if len(l.participants) == 0 {
		l.teardown("empty")
		return
	}
	l.group(EvtLobbyUpdated, l.snapshot())
	l.checkAllVoted()
}

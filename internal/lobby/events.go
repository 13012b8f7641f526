package lobby

import (
	"time"

	"github.com/DoyleJ11/debate-lobby-backend/internal/engine"
)

// Server -> client events.
const (
	EvtLobbyUpdated    = "lobby-updated"
	EvtLobbyClosed     = "lobby-closed"
	EvtGameStarted     = "game-started"
	EvtTopicSelected   = "topic-selected"
	EvtPhaseUpdate     = "game-phase-update"
	EvtGameTimer       = "game-timer"
	EvtVoteResults     = "vote-results"
	EvtVoteProgress    = "vote-progress"
	EvtRoundSkipped    = "round-skipped"
	EvtRoundResults    = "round-results"
	EvtScoreboard      = "scoreboard-update"
	EvtGameEnded       = "game-ended"
	EvtSyncGameState   = "sync-game-state"
	EvtLateJoinWelcome = "late-join-welcome"
)

const skippedMessage = "Round skipped: everyone landed on the same side."

// Snapshot is the roster view sent in lobby-updated and returned by the admission API.
type Snapshot struct {
	Code         string        `json:"code"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
	GameStarted  bool          `json:"gameStarted"`
}

// GameState is the full round snapshot used by game-started and sync-game-state.
type GameState struct {
	Phase              engine.Phase   `json:"phase"`
	RoundNumber        int            `json:"roundNumber"`
	MaxRounds          int            `json:"maxRounds"`
	CurrentTopic       string         `json:"currentTopic"`
	Scores             map[string]int `json:"scores"`
	TimeRemaining      int            `json:"timeRemaining"`
	InitialVoteResults *engine.Tally  `json:"initialVoteResults"`
	FinalVoteResults   *engine.Tally  `json:"finalVoteResults"`
	CurrentSpeaker     string         `json:"currentSpeaker,omitempty"`
	SpeakerPosition    engine.Choice  `json:"speakerPosition,omitempty"`
	VotesCast          int            `json:"votesCast"`
	RevotesCast        int            `json:"revotesCast"`
	TopicsUsed         int            `json:"topicsUsed"`
}

// View is what GetState returns; Round is a deep copy or nil before the game.
type View struct {
	Lobby      Snapshot
	Round      *engine.RoundState
	TimerArmed bool
}

type GameStartedPayload struct {
	Lobby     Snapshot  `json:"lobby"`
	GameState GameState `json:"gameState"`
}

type TopicPayload struct {
	Topic string `json:"topic"`
}

type PhasePayload struct {
	Phase       engine.Phase  `json:"phase"`
	RoundNumber int           `json:"roundNumber"`
	Duration    int           `json:"duration"`
	Topic       string        `json:"topic,omitempty"`
	Speaker     string        `json:"speaker,omitempty"`
	Position    engine.Choice `json:"position,omitempty"`
	Skipped     bool          `json:"skipped,omitempty"`
	Restart     bool          `json:"restart,omitempty"`
}

type TimerPayload struct {
	TimeRemaining int `json:"timeRemaining"`
}

type VoteProgressPayload struct {
	Phase     engine.Phase `json:"phase"`
	Voted     int          `json:"voted"`
	Connected int          `json:"connected"`
}

type RoundSkippedPayload struct {
	Message      string        `json:"message"`
	InitialVotes engine.Tally  `json:"initialVotes"`
	FinalVotes   *engine.Tally `json:"finalVotes"`
}

type RoundResultsPayload struct {
	InitialVotes    engine.Tally   `json:"initialVotes"`
	FinalVotes      engine.Tally   `json:"finalVotes"`
	WinningTeam     engine.Choice  `json:"winningTeam"`
	PointsPerWinner int            `json:"pointsPerWinner"`
	AgreeChange     int            `json:"agreeChange"`
	DisagreeChange  int            `json:"disagreeChange"`
	Deltas          map[string]int `json:"deltas"`
}

type ScoresPayload struct {
	Scores map[string]int `json:"scores"`
}

type GameEndedPayload struct {
	FinalScores map[string]int `json:"finalScores"`
}

type SyncPayload struct {
	GameState  GameState     `json:"gameState"`
	Lobby      Snapshot      `json:"lobby"`
	UserVote   engine.Choice `json:"userVote,omitempty"`
	UserRevote engine.Choice `json:"userRevote,omitempty"`
}

type LateJoinPayload struct {
	RoundNumber  int          `json:"roundNumber"`
	CurrentPhase engine.Phase `json:"currentPhase"`
	CurrentTopic string       `json:"currentTopic"`
}

func (l *Lobby) snapshot() Snapshot {
	ps := make([]Participant, 0, len(l.participants))
	for _, p := range l.participants {
		ps = append(ps, *p)
	}
	return Snapshot{
		Code:         l.code,
		Participants: ps,
		CreatedAt:    l.createdAt,
		GameStarted:  l.round != nil,
	}
}

func (l *Lobby) gameState() GameState {
	r := l.round
	gs := GameState{
		Phase:           r.Phase,
		RoundNumber:     r.RoundNumber,
		MaxRounds:       l.rules.MaxRounds,
		CurrentTopic:    r.CurrentTopic,
		Scores:          copyScores(r.Scores),
		TimeRemaining:   r.TimerRemaining,
		CurrentSpeaker:  r.CurrentSpeaker,
		SpeakerPosition: r.SpeakerPosition,
		VotesCast:       len(r.Votes),
		RevotesCast:     len(r.Revotes),
		TopicsUsed:      len(r.UsedTopics),
	}
	if r.InitialVoteResults != nil {
		t := *r.InitialVoteResults
		gs.InitialVoteResults = &t
	}
	if r.FinalVoteResults != nil {
		t := *r.FinalVoteResults
		gs.FinalVoteResults = &t
	}
	return gs
}

func copyScores(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package engine

import (
	"errors"
	"strings"
)

var ErrWrongPhase = errors.New("action not allowed in current phase")
var ErrInvalidChoice = errors.New("invalid vote choice")
var ErrUnknownParticipant = errors.New("unknown participant")

type Phase string

const (
	PhaseVoting       Phase = "voting"
	PhaseVoteResults  Phase = "vote-results"
	PhaseSolo         Phase = "solo"
	PhaseDiscussion   Phase = "discussion"
	PhaseRevoting     Phase = "revoting"
	PhaseRoundResults Phase = "round-results"
	PhaseScoreboard   Phase = "scoreboard"
	PhaseWaiting      Phase = "waiting"
	PhaseEnded        Phase = "ended"
)

type Choice string

const (
	ChoiceAgree    Choice = "agree"
	ChoiceDisagree Choice = "disagree"
	ChoiceAbstain  Choice = "abstain"

	// NoWinner is reported as the winning team when both sides moved equally.
	NoWinner Choice = "none"
)

func ParseChoice(raw string) (Choice, error) {
	switch Choice(strings.ToLower(strings.TrimSpace(raw))) {
	case ChoiceAgree:
		return ChoiceAgree, nil
	case ChoiceDisagree:
		return ChoiceDisagree, nil
	case ChoiceAbstain:
		return ChoiceAbstain, nil
	default:
		return "", ErrInvalidChoice
	}
}

// Rules holds phase durations in timer ticks (one tick is one second in production).
type Rules struct {
	VotingSec       int
	VoteResultsSec  int
	SoloSec         int
	DiscussionSec   int
	RevotingSec     int
	RoundResultsSec int
	ScoreboardSec   int
	WaitingSec      int
	SettleSec       int
	RestartSec      int
	MaxRounds       int
	MinPlayers      int
}

type Tally struct {
	Agree    int `json:"agree"`
	Disagree int `json:"disagree"`
	Abstain  int `json:"abstain"`
}

func (t Tally) Total() int { return t.Agree + t.Disagree + t.Abstain }

// Skipped reports whether the round has no opposing side to debate.
func (t Tally) Skipped() bool { return t.Agree == 0 || t.Disagree == 0 }

type RoundState struct {
	Phase              Phase
	RoundNumber        int
	CurrentTopic       string
	Votes              map[string]Choice
	Revotes            map[string]Choice
	Scores             map[string]int
	UsedTopics         map[string]bool
	UsedSpeakers       map[string]bool
	StartRoster        map[string]bool
	TimerRemaining     int
	InitialVoteResults *Tally
	FinalVoteResults   *Tally
	CurrentSpeaker     string
	SpeakerPosition    Choice
}

type Results struct {
	WinningTeam     Choice
	PointsPerWinner int
	AgreeChange     int
	DisagreeChange  int
	// Deltas is the score change per identity, award and penalty combined.
	Deltas map[string]int
}

func (s *RoundState) RecordVote(identity string, choice Choice) error {
	if s.Phase != PhaseVoting {
		return ErrWrongPhase
	}
	if _, ok := s.Scores[identity]; !ok {
		return ErrUnknownParticipant
	}
	s.Votes[identity] = choice
	return nil
}

func (s *RoundState) RecordRevote(identity string, choice Choice) error {
	if s.Phase != PhaseRevoting {
		return ErrWrongPhase
	}
	if _, ok := s.Scores[identity]; !ok {
		return ErrUnknownParticipant
	}
	s.Revotes[identity] = choice
	return nil
}

// ApplyResults adds the result deltas to the scoreboard. Identities that left the
// roster since the revote are ignored.
func (s *RoundState) ApplyResults(r Results) {
	for id, delta := range r.Deltas {
		if _, ok := s.Scores[id]; ok {
			s.Scores[id] += delta
		}
	}
}

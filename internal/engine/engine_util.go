package engine

import "maps"

func DefaultRules() Rules {
	return Rules{
		VotingSec:       20,
		VoteResultsSec:  5,
		SoloSec:         60,
		DiscussionSec:   180,
		RevotingSec:     20,
		RoundResultsSec: 8,
		ScoreboardSec:   5,
		WaitingSec:      3,
		SettleSec:       1,
		RestartSec:      3,
		MaxRounds:       5,
		MinPlayers:      2,
	}
}

// NewRoundState returns the state a game starts in: round 1, voting, scores zeroed
// for every identity in roster.
func NewRoundState(roster []string) *RoundState {
	s := &RoundState{}
	s.Reset(roster)
	return s
}

// Reset clears every round-scoped field and zeroes scores for roster.
func (s *RoundState) Reset(roster []string) {
	s.Phase = PhaseVoting
	s.RoundNumber = 1
	s.CurrentTopic = ""
	s.Votes = map[string]Choice{}
	s.Revotes = map[string]Choice{}
	s.Scores = make(map[string]int, len(roster))
	s.UsedTopics = map[string]bool{}
	s.UsedSpeakers = map[string]bool{}
	s.StartRoster = make(map[string]bool, len(roster))
	for _, id := range roster {
		s.Scores[id] = 0
		s.StartRoster[id] = true
	}
	s.TimerRemaining = 0
	s.InitialVoteResults = nil
	s.FinalVoteResults = nil
	s.CurrentSpeaker = ""
	s.SpeakerPosition = ""
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *RoundState) Clone() *RoundState {
	if s == nil {
		return nil
	}
	c := *s
	c.Votes = maps.Clone(s.Votes)
	c.Revotes = maps.Clone(s.Revotes)
	c.Scores = maps.Clone(s.Scores)
	c.UsedTopics = maps.Clone(s.UsedTopics)
	c.UsedSpeakers = maps.Clone(s.UsedSpeakers)
	c.StartRoster = maps.Clone(s.StartRoster)
	if s.InitialVoteResults != nil {
		t := *s.InitialVoteResults
		c.InitialVoteResults = &t
	}
	if s.FinalVoteResults != nil {
		t := *s.FinalVoteResults
		c.FinalVoteResults = &t
	}
	return &c
}

// AllVoted reports whether every connected identity has an entry in votes.
// An empty connected set never counts as complete.
func AllVoted(votes map[string]Choice, connected []string) bool {
	if len(connected) == 0 {
		return false
	}
	for _, id := range connected {
		if _, ok := votes[id]; !ok {
			return false
		}
	}
	return true
}

func CountVoted(votes map[string]Choice, connected []string) int {
	n := 0
	for _, id := range connected {
		if _, ok := votes[id]; ok {
			n++
		}
	}
	return n
}

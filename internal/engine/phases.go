package engine

// Duration returns how many ticks the phase is held for. Ended has no duration.
func (r Rules) Duration(p Phase) int {
	switch p {
	case PhaseVoting:
		return r.VotingSec
	case PhaseVoteResults:
		return r.VoteResultsSec
	case PhaseSolo:
		return r.SoloSec
	case PhaseDiscussion:
		return r.DiscussionSec
	case PhaseRevoting:
		return r.RevotingSec
	case PhaseRoundResults:
		return r.RoundResultsSec
	case PhaseScoreboard:
		return r.ScoreboardSec
	case PhaseWaiting:
		return r.WaitingSec
	default:
		return 0
	}
}

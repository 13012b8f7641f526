package engine

// TallyVotes counts one entry per connected identity; a missing vote counts as abstain.
// Disconnected identities are left out of both the tally and its total.
func TallyVotes(votes map[string]Choice, connected []string) Tally {
	var t Tally
	for _, id := range connected {
		switch votes[id] {
		case ChoiceAgree:
			t.Agree++
		case ChoiceDisagree:
			t.Disagree++
		default:
			t.Abstain++
		}
	}
	return t
}

// CalculateResults scores a round from the initial and final tallies. The side with the
// larger net gain wins and every revote on that side earns the full gain, including revotes
// from identities that have since disconnected; afterwards every
// connected identity without a revote loses one point. The function is pure, so the same
// inputs always produce the same deltas.
func CalculateResults(initial, final Tally, revotes map[string]Choice, connected []string) Results {
	r := Results{
		WinningTeam:    NoWinner,
		AgreeChange:    final.Agree - initial.Agree,
		DisagreeChange: final.Disagree - initial.Disagree,
		Deltas:         map[string]int{},
	}

	switch {
	case r.AgreeChange > r.DisagreeChange:
		r.WinningTeam = ChoiceAgree
	case r.DisagreeChange > r.AgreeChange:
		r.WinningTeam = ChoiceDisagree
	}

	if r.WinningTeam != NoWinner {
		r.PointsPerWinner = max(r.AgreeChange, r.DisagreeChange)
		for id, choice := range revotes {
			if choice == r.WinningTeam {
				r.Deltas[id] += r.PointsPerWinner
			}
		}
	}

	for _, id := range connected {
		if _, ok := revotes[id]; !ok {
			r.Deltas[id]--
		}
	}

	for id, d := range r.Deltas {
		if d == 0 {
			delete(r.Deltas, id)
		}
	}
	return r
}

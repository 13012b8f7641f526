package engine

// eligibleSpeakers keeps the connected identities that were present at game start,
// optionally excluding those who already spoke this cycle. Order follows connected.
func eligibleSpeakers(s *RoundState, connected []string, skipUsed bool) []string {
	out := make([]string, 0, len(connected))
	for _, id := range connected {
		if !s.StartRoster[id] {
			continue
		}
		if skipUsed && s.UsedSpeakers[id] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// PickSpeaker selects the solo speaker uniformly at random and records their original vote
// as the displayed position. When everyone eligible has spoken the cycle restarts. It returns
// false when no connected start-roster participant exists.
func (s *RoundState) PickSpeaker(connected []string, intn func(n int) int) (string, bool) {
	pool := eligibleSpeakers(s, connected, true)
	if len(pool) == 0 {
		clear(s.UsedSpeakers)
		pool = eligibleSpeakers(s, connected, false)
	}
	if len(pool) == 0 {
		s.CurrentSpeaker = ""
		s.SpeakerPosition = ""
		return "", false
	}

	speaker := pool[intn(len(pool))]
	s.UsedSpeakers[speaker] = true
	s.CurrentSpeaker = speaker
	if choice, ok := s.Votes[speaker]; ok {
		s.SpeakerPosition = choice
	} else {
		s.SpeakerPosition = ChoiceAbstain
	}
	return speaker, true
}

package lobby

import (
	"strings"

	"github.com/DoyleJ11/debate-lobby-backend/internal/engine"
	"go.uber.org/zap"
)

func (l *Lobby) startGame(identity string) error {
	p := l.find(strings.TrimSpace(identity))
	switch {
	case p == nil:
		return engine.ErrUnknownParticipant
	case !p.IsHost:
		return ErrNotHost
	case l.round != nil:
		return ErrGameInProgress
	case len(l.connected()) < l.rules.MinPlayers:
		return ErrNotEnoughPlayers
	}

	l.round = engine.NewRoundState(l.identities())
	l.log.Info("game started", zap.Int("players", len(l.participants)))
	l.group(EvtGameStarted, GameStartedPayload{Lobby: l.snapshot(), GameState: l.gameState()})
	l.beginVoting()
	return nil
}

// restartGame zeroes the scoreboard for the current roster and re-enters voting after a
// short delay. It is valid from any phase once a game exists.
func (l *Lobby) restartGame(identity string) error {
	p := l.find(strings.TrimSpace(identity))
	switch {
	case p == nil:
		return engine.ErrUnknownParticipant
	case !p.IsHost:
		return ErrNotHost
	case l.round == nil:
		return engine.ErrWrongPhase
	}

	l.timer.Cancel()
	l.settling = false
	l.round.Reset(l.identities())
	l.round.Phase = engine.PhaseWaiting

	l.log.Info("game restarted")
	l.group(EvtPhaseUpdate, PhasePayload{
		Phase:       engine.PhaseWaiting,
		RoundNumber: l.round.RoundNumber,
		Duration:    l.rules.RestartSec,
		Restart:     true,
	})
	l.group(EvtScoreboard, ScoresPayload{Scores: copyScores(l.round.Scores)})
	l.timer.After(l.rules.RestartSec, l.beginVoting)
	return nil
}

func (l *Lobby) castVote(identity string, choice engine.Choice, revote bool) error {
	identity = strings.TrimSpace(identity)
	if l.find(identity) == nil {
		return engine.ErrUnknownParticipant
	}
	if l.round == nil {
		return engine.ErrWrongPhase
	}

	var err error
	if revote {
		err = l.round.RecordRevote(identity, choice)
	} else {
		err = l.round.RecordVote(identity, choice)
	}
	if err != nil {
		return err
	}

	l.checkAllVoted()
	return nil
}

func (l *Lobby) requestSync(identity string) error {
	identity = strings.TrimSpace(identity)
	if l.find(identity) == nil {
		return engine.ErrUnknownParticipant
	}
	if l.round == nil {
		l.member(identity, EvtLobbyUpdated, l.snapshot())
		return nil
	}
	l.sendSync(identity)
	return nil
}

func (l *Lobby) sendSync(identity string) {
	l.member(identity, EvtSyncGameState, SyncPayload{
		GameState:  l.gameState(),
		Lobby:      l.snapshot(),
		UserVote:   l.round.Votes[identity],
		UserRevote: l.round.Revotes[identity],
	})
}

// checkAllVoted publishes vote progress and, once every connected participant has a ballot in
// the current voting phase, schedules the early close. The short settle delay lets the last
// vote-progress land before results.
func (l *Lobby) checkAllVoted() {
	if l.round == nil {
		return
	}

	var ballots map[string]engine.Choice
	var finish func()
	switch l.round.Phase {
	case engine.PhaseVoting:
		ballots, finish = l.round.Votes, l.finishVoting
	case engine.PhaseRevoting:
		ballots, finish = l.round.Revotes, l.finishRevoting
	default:
		return
	}

	connected := l.connected()
	l.group(EvtVoteProgress, VoteProgressPayload{
		Phase:     l.round.Phase,
		Voted:     engine.CountVoted(ballots, connected),
		Connected: len(connected),
	})

	if l.settling || !engine.AllVoted(ballots, connected) {
		return
	}
	l.settling = true
	l.log.Debug("all voted, closing early", zap.String("phase", string(l.round.Phase)))
	l.timer.After(l.rules.SettleSec, finish)
}

// enter cancels whatever is pending and moves the round to phase. Every transition goes
// through here before touching round state.
func (l *Lobby) enter(phase engine.Phase) bool {
	l.timer.Cancel()
	if l.round == nil {
		return false
	}
	l.settling = false
	l.round.Phase = phase
	l.round.TimerRemaining = 0
	l.log.Debug("phase", zap.String("phase", string(phase)), zap.Int("round", l.round.RoundNumber))
	return true
}

func (l *Lobby) in(phase engine.Phase) bool {
	return l.round != nil && l.round.Phase == phase
}

func (l *Lobby) announce(p PhasePayload) {
	p.Phase = l.round.Phase
	p.RoundNumber = l.round.RoundNumber
	p.Duration = l.rules.Duration(p.Phase)
	l.group(EvtPhaseUpdate, p)
}

// countdown broadcasts game-timer every tick and calls next at zero.
func (l *Lobby) countdown(next func()) {
	l.timer.Arm(l.rules.Duration(l.round.Phase), func(remaining int) {
		if l.round == nil {
			return
		}
		l.round.TimerRemaining = remaining
		l.group(EvtGameTimer, TimerPayload{TimeRemaining: remaining})
	}, next)
}

func (l *Lobby) beginVoting() {
	if l.round == nil || l.round.Phase == engine.PhaseEnded {
		return
	}
	topic, ok := l.deps.Topics.Pick(l.round.UsedTopics, l.deps.Intn)
	if !ok {
		l.endGame()
		return
	}

	l.enter(engine.PhaseVoting)
	r := l.round
	r.UsedTopics[topic] = true
	r.CurrentTopic = topic
	clear(r.Votes)
	clear(r.Revotes)
	r.InitialVoteResults = nil
	r.FinalVoteResults = nil
	r.CurrentSpeaker = ""
	r.SpeakerPosition = ""

	l.announce(PhasePayload{Topic: topic})
	l.group(EvtTopicSelected, TopicPayload{Topic: topic})
	l.countdown(l.finishVoting)
}

func (l *Lobby) finishVoting() {
	if !l.in(engine.PhaseVoting) {
		return
	}
	l.enter(engine.PhaseVoteResults)

	tally := engine.TallyVotes(l.round.Votes, l.connected())
	l.round.InitialVoteResults = &tally
	l.announce(PhasePayload{Skipped: tally.Skipped()})
	l.group(EvtVoteResults, tally)

	if tally.Skipped() {
		l.timer.After(l.rules.VoteResultsSec, l.skipRound)
		return
	}
	l.timer.After(l.rules.VoteResultsSec, l.beginSolo)
}

func (l *Lobby) skipRound() {
	if !l.in(engine.PhaseVoteResults) {
		return
	}
	l.enter(engine.PhaseRoundResults)

	l.log.Info("round skipped", zap.Int("round", l.round.RoundNumber))
	l.announce(PhasePayload{Skipped: true})
	l.group(EvtRoundSkipped, RoundSkippedPayload{
		Message:      skippedMessage,
		InitialVotes: *l.round.InitialVoteResults,
	})
	l.timer.After(l.rules.RoundResultsSec, l.showScoreboard)
}

func (l *Lobby) beginSolo() {
	if !l.in(engine.PhaseVoteResults) {
		return
	}
	l.enter(engine.PhaseSolo)

	speaker, ok := l.round.PickSpeaker(l.connected(), l.deps.Intn)
	if !ok {
		l.log.Info("no eligible speaker, skipping solo")
		l.beginDiscussion()
		return
	}
	l.announce(PhasePayload{Speaker: speaker, Position: l.round.SpeakerPosition})
	l.countdown(l.beginDiscussion)
}

func (l *Lobby) beginDiscussion() {
	if !l.in(engine.PhaseSolo) {
		return
	}
	l.enter(engine.PhaseDiscussion)
	l.announce(PhasePayload{})
	l.countdown(l.beginRevoting)
}

func (l *Lobby) beginRevoting() {
	if !l.in(engine.PhaseDiscussion) {
		return
	}
	l.enter(engine.PhaseRevoting)
	clear(l.round.Revotes)
	l.announce(PhasePayload{Topic: l.round.CurrentTopic})
	l.countdown(l.finishRevoting)
}

func (l *Lobby) finishRevoting() {
	if !l.in(engine.PhaseRevoting) {
		return
	}
	l.enter(engine.PhaseRoundResults)
	r := l.round

	connected := l.connected()
	final := engine.TallyVotes(r.Revotes, connected)
	r.FinalVoteResults = &final
	var initial engine.Tally
	if r.InitialVoteResults != nil {
		initial = *r.InitialVoteResults
	}

	res := engine.CalculateResults(initial, final, r.Revotes, connected)
	r.ApplyResults(res)
	l.log.Info("round scored",
		zap.Int("round", r.RoundNumber),
		zap.String("winner", string(res.WinningTeam)),
		zap.Int("points", res.PointsPerWinner),
	)

	l.announce(PhasePayload{})
	l.group(EvtRoundResults, RoundResultsPayload{
		InitialVotes:    initial,
		FinalVotes:      final,
		WinningTeam:     res.WinningTeam,
		PointsPerWinner: res.PointsPerWinner,
		AgreeChange:     res.AgreeChange,
		DisagreeChange:  res.DisagreeChange,
		Deltas:          res.Deltas,
	})
	l.timer.After(l.rules.RoundResultsSec, l.showScoreboard)
}

func (l *Lobby) showScoreboard() {
	if !l.in(engine.PhaseRoundResults) {
		return
	}
	l.enter(engine.PhaseScoreboard)
	l.announce(PhasePayload{})
	l.group(EvtScoreboard, ScoresPayload{Scores: copyScores(l.round.Scores)})
	l.timer.After(l.rules.ScoreboardSec, l.nextRound)
}

func (l *Lobby) nextRound() {
	if !l.in(engine.PhaseScoreboard) {
		return
	}
	l.timer.Cancel()
	l.round.RoundNumber++
	if l.round.RoundNumber > l.rules.MaxRounds || l.deps.Topics.Exhausted(l.round.UsedTopics) {
		l.endGame()
		return
	}

	l.enter(engine.PhaseWaiting)
	l.announce(PhasePayload{})
	l.timer.After(l.rules.WaitingSec, l.beginVoting)
}

// endGame is terminal; the round state stays so late syncs and restart still work.
func (l *Lobby) endGame() {
	if !l.enter(engine.PhaseEnded) {
		return
	}
	l.log.Info("game ended", zap.Int("rounds", min(l.round.RoundNumber, l.rules.MaxRounds)))
	l.announce(PhasePayload{})
	l.group(EvtGameEnded, GameEndedPayload{FinalScores: copyScores(l.round.Scores)})
}

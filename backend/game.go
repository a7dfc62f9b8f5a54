package main

import (
	"log"
	"time"
)

type Game struct {
	settings  GameSettings
	state     GameState
	history   MoveHistory
	xPlayer   IPlayer
	oPlayer   IPlayer
	turnStart time.Time
	startedAt time.Time
	clock     func() time.Time

	usedUndo    bool
	facedThreat bool
	onGameOver  func(GameSummary)
}

// GameSummary is handed to the game-over hook once per finished game.
type GameSummary struct {
	Settings    GameSettings
	Status      GameStatus
	HumanMark   Mark
	HumanVsAI   bool
	HumanMoves  int
	AiMoves     int
	UsedUndo    bool
	FacedThreat bool
	HasTimeLeft bool
	TimeLeft    time.Duration
	Duration    time.Duration
}

func (s GameSummary) Winner() (Mark, bool) {
	switch s.Status {
	case StatusXWon:
		return MarkX, true
	case StatusOWon:
		return MarkO, true
	default:
		return MarkX, false
	}
}

func (s GameSummary) HumanWon() bool {
	winner, ok := s.Winner()
	return s.HumanVsAI && ok && winner == s.HumanMark
}

func NewGame(settings GameSettings) Game {
	g := Game{clock: time.Now}
	g.Reset(settings)
	return g
}

func (g *Game) now() time.Time {
	if g.clock == nil {
		return time.Now()
	}
	return g.clock()
}

func (g *Game) Reset(settings GameSettings) {
	g.stopAIPlayers()
	g.settings = settings
	g.state.Reset()
	g.history.Clear()
	g.usedUndo = false
	g.facedThreat = false
	g.createPlayers()
	g.turnStart = g.now()
	g.logMatchup()
}

func (g *Game) Start() {
	if g.state.Status == StatusNotStarted {
		g.state.Status = StatusRunning
		g.turnStart = g.now()
		g.startedAt = g.turnStart
	}
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) Settings() GameSettings {
	return g.settings
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

func (g *Game) SetGameOverHook(hook func(GameSummary)) {
	g.onGameOver = hook
}

func (g *Game) TryApplyMove(move Move) (bool, string) {
	if g.state.Status != StatusRunning {
		return false, "game not running"
	}
	if ok, reason := CheckMove(g.state.Board, move); !ok {
		g.state.LastMessage = "Illegal move: " + reason
		return false, g.state.LastMessage
	}
	player := g.currentPlayer()
	isAiMove := player != nil && !player.IsHuman()
	now := g.now()
	elapsed := now.Sub(g.turnStart)
	mover := g.state.ToMove

	ApplyMove(&g.state.Board, move, mover)
	g.state.LastMove = move
	g.state.HasLastMove = true
	g.state.LastMessage = ""
	g.history.Push(HistoryEntry{
		Move:      move,
		Player:    mover,
		ElapsedMs: float64(elapsed.Milliseconds()),
		IsAi:      isAiMove,
	})
	g.logMovePlayed(move, mover, elapsed, isAiMove)

	outcome := Evaluate(g.state.Board)
	if outcome.IsTerminal() {
		g.finish(outcome, elapsed, isAiMove)
		return true, ""
	}
	g.state.ToMove = otherMark(mover)
	g.turnStart = now
	g.noteThreat()
	return true, ""
}

func (g *Game) finish(outcome Outcome, lastElapsed time.Duration, lastWasAi bool) {
	g.state.Status = statusFromOutcome(outcome)
	g.state.WinningLine = append([]Move(nil), outcome.WinningLine...)
	g.logResult(outcome)

	humanMark, humanVsAI := g.settings.HumanVersusAI()
	summary := GameSummary{
		Settings:    g.settings,
		Status:      g.state.Status,
		HumanMark:   humanMark,
		HumanVsAI:   humanVsAI,
		HumanMoves:  g.history.CountBy(false),
		AiMoves:     g.history.CountBy(true),
		UsedUndo:    g.usedUndo,
		FacedThreat: g.facedThreat,
		Duration:    g.now().Sub(g.startedAt),
	}
	if limit := g.settings.TimerMode.Limit(); limit > 0 && !lastWasAi {
		summary.HasTimeLeft = true
		summary.TimeLeft = limit - lastElapsed
		if summary.TimeLeft < 0 {
			summary.TimeLeft = 0
		}
	}
	if g.onGameOver != nil {
		g.onGameOver(summary)
	}
}

// noteThreat remembers whether the human starts a turn one move from losing.
func (g *Game) noteThreat() {
	humanMark, ok := g.settings.HumanVersusAI()
	if !ok || g.state.ToMove != humanMark {
		return
	}
	board := g.state.Board
	if _, threatened := findWinningMove(&board, otherMark(humanMark)); threatened {
		g.facedThreat = true
	}
}

// Tick advances timers and AI players. It reports whether the visible state
// changed.
func (g *Game) Tick() bool {
	if g.state.Status != StatusRunning {
		g.stopAIPlayers()
		return false
	}
	player := g.currentPlayer()
	if player == nil {
		return false
	}
	if player.IsHuman() {
		return g.enforceTimer()
	}
	ai, ok := player.(*AIPlayer)
	if !ok {
		return false
	}
	if ai.HasMoveReady() {
		move := ai.TakeMove()
		if move.IsNone() {
			log.Printf("[game] %s AI found no move on %s", g.state.ToMove, g.state.Board)
			return false
		}
		applied, reason := g.TryApplyMove(move)
		if !applied {
			log.Printf("[game] %s AI move (%d,%d) rejected: %s", g.state.ToMove, move.Row, move.Col, reason)
		}
		return applied
	}
	if !ai.IsThinking() {
		ai.StartThinking(g.state)
	}
	return false
}

// enforceTimer passes the turn when a human runs out of time. The clock only
// runs once the first move has been played.
func (g *Game) enforceTimer() bool {
	limit := g.settings.TimerMode.Limit()
	if limit <= 0 || g.history.Size() == 0 {
		return false
	}
	now := g.now()
	if now.Sub(g.turnStart) < limit {
		return false
	}
	timedOut := g.state.ToMove
	log.Printf("[game] %s ran out of time, passing the turn", timedOut)
	g.state.ToMove = otherMark(timedOut)
	g.state.LastMessage = timedOut.String() + " ran out of time"
	g.turnStart = now
	g.noteThreat()
	return true
}

// TimeLeft reports the remaining budget for a human on a timed turn.
func (g *Game) TimeLeft() (time.Duration, bool) {
	limit := g.settings.TimerMode.Limit()
	if limit <= 0 || g.state.Status != StatusRunning || g.history.Size() == 0 {
		return 0, false
	}
	player := g.currentPlayer()
	if player == nil || !player.IsHuman() {
		return 0, false
	}
	left := limit - g.now().Sub(g.turnStart)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Undo takes back the last two moves (one when only one was played) and
// hands the turn to whoever made the earliest of them.
func (g *Game) Undo() (bool, string) {
	if g.history.Size() == 0 {
		return false, "no moves to undo"
	}
	if g.AiThinking() {
		return false, "ai is thinking"
	}
	g.stopAIPlayers()
	count := 2
	if g.history.Size() < 2 {
		count = 1
	}
	var earliest HistoryEntry
	for i := 0; i < count; i++ {
		entry, _ := g.history.Pop()
		g.state.Board.Remove(entry.Move)
		earliest = entry
	}
	g.state.ToMove = earliest.Player
	g.state.Status = StatusRunning
	g.state.WinningLine = nil
	g.state.LastMessage = ""
	g.state.HasLastMove = false
	g.state.LastMove = NoMove
	if entries := g.history.All(); len(entries) > 0 {
		g.state.HasLastMove = true
		g.state.LastMove = entries[len(entries)-1].Move
	}
	g.usedUndo = true
	g.turnStart = g.now()
	log.Printf("[game] undo removed %d move(s), %s to move", count, g.state.ToMove)
	return true, ""
}

// Hint runs the hard search for the side to move on a copy of the board.
func (g *Game) Hint() Move {
	if g.state.Status != StatusRunning {
		return NoMove
	}
	hinter := NewAIPlayer(g.state.ToMove, DifficultyHard, GetConfig().AiSeed)
	return hinter.ChooseMove(g.state)
}

func (g *Game) CurrentPlayerIsHuman() bool {
	player := g.currentPlayer()
	return player != nil && player.IsHuman()
}

func (g *Game) AiThinking() bool {
	for _, player := range []IPlayer{g.xPlayer, g.oPlayer} {
		if ai, ok := player.(*AIPlayer); ok && ai.IsThinking() {
			return true
		}
	}
	return false
}

func (g *Game) currentPlayer() IPlayer {
	return g.playerForMark(g.state.ToMove)
}

func (g *Game) playerForMark(mark Mark) IPlayer {
	if mark == MarkX {
		return g.xPlayer
	}
	return g.oPlayer
}

func (g *Game) createPlayers() {
	g.stopAIPlayers()
	seed := GetConfig().AiSeed
	g.xPlayer = g.newPlayer(MarkX, seed)
	if seed != 0 {
		seed++
	}
	g.oPlayer = g.newPlayer(MarkO, seed)
}

func (g *Game) newPlayer(mark Mark, seed int64) IPlayer {
	if g.settings.TypeFor(mark) == PlayerHuman {
		return NewHumanPlayer()
	}
	return NewAIPlayer(mark, g.settings.DifficultyFor(mark), seed)
}

func (g *Game) stopAIPlayers() {
	for _, player := range []IPlayer{g.xPlayer, g.oPlayer} {
		if ai, ok := player.(*AIPlayer); ok {
			ai.Stop()
		}
	}
}

func (g *Game) logMatchup() {
	log.Printf("[game] new game: X=%s O=%s timer=%s",
		g.describePlayer(MarkX), g.describePlayer(MarkO), g.settings.TimerMode)
}

func (g *Game) describePlayer(mark Mark) string {
	if g.settings.TypeFor(mark) == PlayerHuman {
		return "human"
	}
	return "ai(" + g.settings.DifficultyFor(mark).String() + ")"
}

func (g *Game) logMovePlayed(move Move, mark Mark, elapsed time.Duration, isAi bool) {
	who := "human"
	if isAi {
		who = "ai"
	}
	log.Printf("[game] %s (%s) -> (%d,%d) after %dms", mark, who, move.Row, move.Col, elapsed.Milliseconds())
}

func (g *Game) logResult(outcome Outcome) {
	if winner, ok := outcome.Winner(); ok {
		log.Printf("[game] %s wins with %v", winner, outcome.WinningLine)
		return
	}
	log.Printf("[game] draw")
}

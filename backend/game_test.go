package main

import (
	"testing"
	"time"
)

// withTestConfig swaps the global config for the duration of a test. Disk
// persistence is always off so tests never write next to the package.
func withTestConfig(t *testing.T, mutate func(*Config)) {
	t.Helper()
	prev := GetConfig()
	cfg := prev
	cfg.PersistAchievements = false
	cfg.AiThinkDelayMs = 0
	if mutate != nil {
		mutate(&cfg)
	}
	configStore.Update(cfg)
	t.Cleanup(func() { configStore.Update(prev) })
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func humanVersusHuman() GameSettings {
	settings := DefaultGameSettings()
	settings.XType = PlayerHuman
	settings.OType = PlayerHuman
	return settings
}

func newTestGame(t *testing.T, settings GameSettings) (*Game, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	g := NewGame(settings)
	g.clock = clock.Now
	g.Start()
	t.Cleanup(g.stopAIPlayers)
	return &g, clock
}

func playMoves(t *testing.T, g *Game, moves ...Move) {
	t.Helper()
	for _, move := range moves {
		if applied, reason := g.TryApplyMove(move); !applied {
			t.Fatalf("expected move %+v to apply: %s", move, reason)
		}
	}
}

func TestGameAlternatesTurns(t *testing.T) {
	withTestConfig(t, nil)
	g, _ := newTestGame(t, humanVersusHuman())
	if g.State().ToMove != MarkX {
		t.Fatalf("expected X to move first")
	}
	playMoves(t, g, Move{1, 1})
	state := g.State()
	if state.ToMove != MarkO || state.Board.At(Move{1, 1}) != CellX {
		t.Fatalf("unexpected state after first move: %s to move, board %s", state.ToMove, state.Board)
	}
	if !state.HasLastMove || state.LastMove != (Move{1, 1}) {
		t.Fatalf("expected last move (1,1), got %+v", state.LastMove)
	}
	if applied, _ := g.TryApplyMove(Move{1, 1}); applied {
		t.Fatalf("expected occupied cell to be rejected")
	}
	if applied, _ := g.TryApplyMove(Move{3, 0}); applied {
		t.Fatalf("expected out-of-range move to be rejected")
	}
	if g.State().ToMove != MarkO || g.History().Size() != 1 {
		t.Fatalf("rejected moves must not change the turn or history")
	}
}

func TestGameRejectsMovesBeforeStart(t *testing.T) {
	withTestConfig(t, nil)
	g := NewGame(humanVersusHuman())
	if applied, reason := g.TryApplyMove(Move{0, 0}); applied || reason != "game not running" {
		t.Fatalf("expected refusal before start, got applied=%v reason=%q", applied, reason)
	}
}

func TestGameFinishesAndCallsHookOnce(t *testing.T) {
	withTestConfig(t, nil)
	g, _ := newTestGame(t, humanVersusHuman())
	var summaries []GameSummary
	g.SetGameOverHook(func(s GameSummary) { summaries = append(summaries, s) })

	playMoves(t, g, Move{0, 0}, Move{1, 0}, Move{0, 1}, Move{1, 1}, Move{0, 2})
	state := g.State()
	if state.Status != StatusXWon {
		t.Fatalf("expected X to win, got status %d", state.Status)
	}
	if len(state.WinningLine) != 3 || state.WinningLine[0] != (Move{0, 0}) {
		t.Fatalf("unexpected winning line %v", state.WinningLine)
	}
	if applied, _ := g.TryApplyMove(Move{2, 2}); applied {
		t.Fatalf("expected moves after the end to be refused")
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one game-over call, got %d", len(summaries))
	}
	if summaries[0].HumanVsAI {
		t.Fatalf("human vs human must not count as human vs ai")
	}
}

func TestGameDraw(t *testing.T) {
	withTestConfig(t, nil)
	g, _ := newTestGame(t, humanVersusHuman())
	playMoves(t, g,
		Move{0, 0}, Move{0, 1}, Move{0, 2},
		Move{1, 1}, Move{1, 0}, Move{1, 2},
		Move{2, 1}, Move{2, 0}, Move{2, 2},
	)
	if status := g.State().Status; status != StatusDraw {
		t.Fatalf("expected draw, got %d (%s)", status, g.State().Board)
	}
}

func TestGameSummaryTracksThreatAndMoves(t *testing.T) {
	withTestConfig(t, nil)
	g, _ := newTestGame(t, DefaultGameSettings())
	var summary GameSummary
	g.SetGameOverHook(func(s GameSummary) { summary = s })

	// O's moves are attributed to the AI player even when applied directly.
	playMoves(t, g, Move{0, 0}, Move{1, 0}, Move{0, 1}, Move{1, 1})
	if !g.facedThreat {
		t.Fatalf("expected the human to be flagged as facing a threat")
	}
	playMoves(t, g, Move{0, 2})

	if !summary.HumanVsAI || summary.HumanMark != MarkX || !summary.HumanWon() {
		t.Fatalf("expected a human win, got %+v", summary)
	}
	if !summary.FacedThreat || summary.UsedUndo {
		t.Fatalf("unexpected flags: %+v", summary)
	}
	if summary.HumanMoves != 3 || summary.AiMoves != 2 {
		t.Fatalf("expected 3 human and 2 ai moves, got %d and %d", summary.HumanMoves, summary.AiMoves)
	}
}

func TestUndoRemovesTwoMoves(t *testing.T) {
	withTestConfig(t, nil)
	g, _ := newTestGame(t, humanVersusHuman())
	playMoves(t, g, Move{0, 0}, Move{1, 1}, Move{2, 2})

	if undone, reason := g.Undo(); !undone {
		t.Fatalf("expected undo to succeed: %s", reason)
	}
	state := g.State()
	if g.History().Size() != 1 {
		t.Fatalf("expected 1 move left, got %d", g.History().Size())
	}
	if state.Board.At(Move{1, 1}) != CellEmpty || state.Board.At(Move{2, 2}) != CellEmpty {
		t.Fatalf("expected undone cells to be empty: %s", state.Board)
	}
	if state.ToMove != MarkO {
		t.Fatalf("expected O to move again, got %s", state.ToMove)
	}
	if state.LastMove != (Move{0, 0}) {
		t.Fatalf("expected last move to fall back to (0,0), got %+v", state.LastMove)
	}

	if undone, _ := g.Undo(); !undone {
		t.Fatalf("expected single-move undo to succeed")
	}
	if g.State().ToMove != MarkX || g.History().Size() != 0 || g.State().HasLastMove {
		t.Fatalf("expected an empty game with X to move")
	}
	if undone, reason := g.Undo(); undone || reason != "no moves to undo" {
		t.Fatalf("expected refusal on empty history, got %v %q", undone, reason)
	}
}

func TestUndoReopensFinishedGame(t *testing.T) {
	withTestConfig(t, nil)
	g, _ := newTestGame(t, humanVersusHuman())
	playMoves(t, g, Move{0, 0}, Move{1, 0}, Move{0, 1}, Move{1, 1}, Move{0, 2})
	if undone, _ := g.Undo(); !undone {
		t.Fatalf("expected undo after a finished game")
	}
	state := g.State()
	if state.Status != StatusRunning || state.WinningLine != nil {
		t.Fatalf("expected a running game without a winning line, got %+v", state)
	}
	if state.ToMove != MarkO {
		t.Fatalf("expected O to move after undoing X's win and O's reply, got %s", state.ToMove)
	}
}

func TestTimerPassesTurnAfterLimit(t *testing.T) {
	withTestConfig(t, nil)
	settings := humanVersusHuman()
	settings.TimerMode = TimerSpeed
	g, clock := newTestGame(t, settings)

	clock.Advance(time.Minute)
	if g.Tick() {
		t.Fatalf("the clock must not run before the first move")
	}
	if _, ok := g.TimeLeft(); ok {
		t.Fatalf("expected no time budget before the first move")
	}

	playMoves(t, g, Move{1, 1})
	clock.Advance(2 * time.Second)
	left, ok := g.TimeLeft()
	if !ok || left != time.Second {
		t.Fatalf("expected 1s left, got %s ok=%v", left, ok)
	}
	if g.Tick() {
		t.Fatalf("turn must not pass before the limit")
	}
	clock.Advance(time.Second)
	if !g.Tick() {
		t.Fatalf("expected the turn to pass at the limit")
	}
	state := g.State()
	if state.ToMove != MarkX || state.LastMessage != "O ran out of time" {
		t.Fatalf("unexpected state after timeout: %s to move, message %q", state.ToMove, state.LastMessage)
	}
	if g.History().Size() != 1 {
		t.Fatalf("a timeout must not add a move")
	}
}

func TestTimerModeLimits(t *testing.T) {
	cases := map[TimerMode]time.Duration{
		TimerNone:    0,
		TimerRelaxed: 15 * time.Second,
		TimerNormal:  5 * time.Second,
		TimerSpeed:   3 * time.Second,
	}
	for mode, want := range cases {
		if got := mode.Limit(); got != want {
			t.Fatalf("%s: expected %s, got %s", mode, want, got)
		}
	}
	if _, err := ParseTimerMode("blitz"); err == nil {
		t.Fatalf("expected error for unknown timer mode")
	}
}

func TestTickPlaysAIMove(t *testing.T) {
	withTestConfig(t, func(cfg *Config) { cfg.AiSeed = 5 })
	settings := DefaultGameSettings()
	settings.ODifficulty = DifficultyEasy
	g, _ := newTestGame(t, settings)
	playMoves(t, g, Move{1, 1})

	moved := false
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if g.Tick() {
			moved = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !moved {
		t.Fatalf("expected AI to make a move")
	}
	entries := g.History().All()
	if len(entries) != 2 || !entries[1].IsAi || entries[1].Player != MarkO {
		t.Fatalf("expected an AI move for O, got %+v", entries)
	}
	if g.State().ToMove != MarkX {
		t.Fatalf("expected the turn to return to the human")
	}
}

func TestHintUsesHardSearch(t *testing.T) {
	withTestConfig(t, nil)
	g, _ := newTestGame(t, humanVersusHuman())
	playMoves(t, g, Move{0, 0}, Move{1, 1}, Move{0, 1})
	before := g.State().Board
	if hint := g.Hint(); hint != (Move{0, 2}) {
		t.Fatalf("expected O to be told to block at (0,2), got %+v", hint)
	}
	if g.State().Board != before {
		t.Fatalf("hint must not touch the game board")
	}
}

func TestAIPlayerChooseMoveLeavesStateAlone(t *testing.T) {
	withTestConfig(t, nil)
	var state GameState
	state.Reset()
	state.Board = boardFrom([3][3]int{{1, 1, 0}, {0, 2, 0}, {0, 0, 0}})
	state.ToMove = MarkO
	before := state.Board

	for _, d := range []Difficulty{DifficultyMedium, DifficultyHard} {
		player := NewAIPlayer(MarkO, d, 5)
		if move := player.ChooseMove(state); move != (Move{0, 2}) {
			t.Fatalf("%s: expected a block at (0,2), got %+v", d, move)
		}
	}
	easy := NewAIPlayer(MarkO, DifficultyEasy, 5)
	if move := easy.ChooseMove(state); !state.Board.IsEmpty(move) {
		t.Fatalf("easy: expected an empty cell, got %+v", move)
	}
	if state.Board != before {
		t.Fatalf("ChooseMove must work on a copy of the board")
	}
}

func TestScoreboardRecord(t *testing.T) {
	var board Scoreboard
	for _, status := range []GameStatus{StatusXWon, StatusOWon, StatusDraw, StatusDraw, StatusRunning} {
		board.Record(status)
	}
	if board.XWins != 1 || board.OWins != 1 || board.Draws != 2 || board.Total() != 4 {
		t.Fatalf("unexpected scoreboard %+v", board)
	}
	if board.WinsFor(MarkO) != 1 {
		t.Fatalf("expected 1 O win")
	}
}

func TestDifficultyText(t *testing.T) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		text, err := d.MarshalText()
		if err != nil {
			t.Fatalf("marshal %s: %v", d, err)
		}
		var parsed Difficulty
		if err := parsed.UnmarshalText(text); err != nil || parsed != d {
			t.Fatalf("round trip for %s gave %s (%v)", d, parsed, err)
		}
	}
	if _, err := ParseDifficulty("impossible"); err == nil {
		t.Fatalf("expected error for unknown difficulty")
	}
}

package main

type GameStatus int

const (
	StatusNotStarted GameStatus = iota
	StatusRunning
	StatusXWon
	StatusOWon
	StatusDraw
)

type GameState struct {
	Board       Board
	ToMove      Mark
	Status      GameStatus
	HasLastMove bool
	LastMove    Move
	LastMessage string
	WinningLine []Move
}

func (s *GameState) Reset() {
	s.Board = NewBoard()
	s.ToMove = MarkX
	s.Status = StatusNotStarted
	s.HasLastMove = false
	s.LastMove = NoMove
	s.LastMessage = ""
	s.WinningLine = nil
}

func (s GameState) Clone() GameState {
	clone := s
	clone.WinningLine = append([]Move(nil), s.WinningLine...)
	return clone
}

func (s GameState) IsOver() bool {
	return s.Status == StatusXWon || s.Status == StatusOWon || s.Status == StatusDraw
}

func statusFromOutcome(outcome Outcome) GameStatus {
	switch outcome.Result {
	case ResultXWins:
		return StatusXWon
	case ResultOWins:
		return StatusOWon
	case ResultDraw:
		return StatusDraw
	default:
		return StatusRunning
	}
}

package main

type Scoreboard struct {
	Draws int `json:"draws"`
	XWins int `json:"x_wins"`
	OWins int `json:"o_wins"`
}

func (s *Scoreboard) Record(status GameStatus) {
	switch status {
	case StatusXWon:
		s.XWins++
	case StatusOWon:
		s.OWins++
	case StatusDraw:
		s.Draws++
	}
}

func (s Scoreboard) WinsFor(mark Mark) int {
	if mark == MarkX {
		return s.XWins
	}
	return s.OWins
}

func (s Scoreboard) Total() int {
	return s.Draws + s.XWins + s.OWins
}

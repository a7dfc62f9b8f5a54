package main

type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// NoMove is returned by every strategy when no legal move exists.
var NoMove = Move{Row: -1, Col: -1}

func (m Move) IsValid() bool {
	return m.Row >= 0 && m.Col >= 0 && m.Row < BoardSize && m.Col < BoardSize
}

func (m Move) IsNone() bool {
	return m.Equals(NoMove)
}

func (m Move) Equals(other Move) bool {
	return m.Row == other.Row && m.Col == other.Col
}

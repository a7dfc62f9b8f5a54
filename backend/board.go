package main

import "fmt"

const BoardSize = 3

type Cell int

const (
	CellEmpty Cell = iota
	CellX
	CellO
)

type Mark int

const (
	MarkX Mark = iota
	MarkO
)

// Board is indexed [row][col]. It is a plain value: copying it clones it and
// == compares every cell.
type Board [BoardSize][BoardSize]Cell

func NewBoard() Board {
	return Board{}
}

func (b *Board) Reset() {
	*b = Board{}
}

func (b Board) At(move Move) Cell {
	return b[move.Row][move.Col]
}

func (b *Board) Set(move Move, value Cell) {
	b[move.Row][move.Col] = value
}

func (b *Board) Remove(move Move) {
	b[move.Row][move.Col] = CellEmpty
}

func (b Board) InBounds(move Move) bool {
	return move.Row >= 0 && move.Col >= 0 && move.Row < BoardSize && move.Col < BoardSize
}

func (b Board) IsEmpty(move Move) bool {
	return b.InBounds(move) && b.At(move) == CellEmpty
}

func (b Board) CountEmpty() int {
	count := 0
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b[row][col] == CellEmpty {
				count++
			}
		}
	}
	return count
}

func (b Board) IsFull() bool {
	return b.CountEmpty() == 0
}

// EmptyCells lists empty cells in row-major order. Strategies rely on this
// order for their tie-breaks.
func (b Board) EmptyCells() []Move {
	moves := make([]Move, 0, BoardSize*BoardSize)
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b[row][col] == CellEmpty {
				moves = append(moves, Move{Row: row, Col: col})
			}
		}
	}
	return moves
}

func (b Board) String() string {
	out := ""
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			out += b[row][col].Symbol()
		}
		if row < BoardSize-1 {
			out += "/"
		}
	}
	return out
}

func (c Cell) String() string {
	switch c {
	case CellX:
		return "X"
	case CellO:
		return "O"
	default:
		return "Empty"
	}
}

func (c Cell) Symbol() string {
	switch c {
	case CellX:
		return "X"
	case CellO:
		return "O"
	default:
		return "."
	}
}

func (m Mark) String() string {
	if m == MarkO {
		return "O"
	}
	return "X"
}

func CellFromMark(mark Mark) Cell {
	if mark == MarkX {
		return CellX
	}
	return CellO
}

func MarkFromCell(cell Cell) (Mark, error) {
	switch cell {
	case CellX:
		return MarkX, nil
	case CellO:
		return MarkO, nil
	default:
		return MarkX, fmt.Errorf("empty cell has no mark")
	}
}

func otherMark(mark Mark) Mark {
	if mark == MarkX {
		return MarkO
	}
	return MarkX
}

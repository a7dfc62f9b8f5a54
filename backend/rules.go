package main

type Result int

const (
	ResultOngoing Result = iota
	ResultXWins
	ResultOWins
	ResultDraw
)

type Outcome struct {
	Result      Result
	WinningLine []Move
}

// winningLines is scanned in order: rows, columns, main diagonal, anti-diagonal.
var winningLines = [8][3]Move{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Evaluate reports whether the game on board is over. A win carries the three
// cells of the first completed line; draws and ongoing games carry none.
func Evaluate(board Board) Outcome {
	for _, line := range winningLines {
		first := board.At(line[0])
		if first == CellEmpty {
			continue
		}
		if board.At(line[1]) != first || board.At(line[2]) != first {
			continue
		}
		result := ResultXWins
		if first == CellO {
			result = ResultOWins
		}
		winning := make([]Move, len(line))
		copy(winning, line[:])
		return Outcome{Result: result, WinningLine: winning}
	}
	if board.IsFull() {
		return Outcome{Result: ResultDraw}
	}
	return Outcome{Result: ResultOngoing}
}

func (o Outcome) IsTerminal() bool {
	return o.Result != ResultOngoing
}

func (o Outcome) Winner() (Mark, bool) {
	switch o.Result {
	case ResultXWins:
		return MarkX, true
	case ResultOWins:
		return MarkO, true
	default:
		return MarkX, false
	}
}

// CheckMove validates a move without applying it. Out-of-range coordinates are
// rejected like occupied cells rather than treated as a panic.
func CheckMove(board Board, move Move) (bool, string) {
	if !board.InBounds(move) {
		return false, "out of bounds"
	}
	if board.At(move) != CellEmpty {
		return false, "occupied"
	}
	return true, ""
}

// ApplyMove places mark on an empty cell. It leaves the board untouched and
// returns false for an occupied or out-of-range cell.
func ApplyMove(board *Board, move Move, mark Mark) bool {
	if ok, _ := CheckMove(*board, move); !ok {
		return false
	}
	board.Set(move, CellFromMark(mark))
	return true
}

func (r Result) String() string {
	switch r {
	case ResultXWins:
		return "x_wins"
	case ResultOWins:
		return "o_wins"
	case ResultDraw:
		return "draw"
	default:
		return "ongoing"
	}
}

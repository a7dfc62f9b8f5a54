package main

import "math/rand"

// SelectMedium takes an immediate win, else blocks the opponent's immediate
// win, else plays a random empty cell. Both scans run in row-major order.
func SelectMedium(board *Board, mark Mark, rng *rand.Rand) Move {
	if board.IsFull() {
		return NoMove
	}
	if move, ok := findWinningMove(board, mark); ok {
		return move
	}
	if move, ok := findWinningMove(board, otherMark(mark)); ok {
		return move
	}
	return SelectEasy(*board, rng)
}

// findWinningMove returns the first empty cell where mark completes a line.
func findWinningMove(board *Board, mark Mark) (Move, bool) {
	for _, move := range board.EmptyCells() {
		if winsWith(board, move, mark) {
			return move, true
		}
	}
	return NoMove, false
}

// winsWith places mark transiently; the cell is empty again on return.
func winsWith(board *Board, move Move, mark Mark) bool {
	board.Set(move, CellFromMark(mark))
	defer board.Remove(move)
	winner, ok := Evaluate(*board).Winner()
	return ok && winner == mark
}

package main

import "math/rand"

// SelectEasy picks uniformly among the empty cells.
func SelectEasy(board Board, rng *rand.Rand) Move {
	empty := board.EmptyCells()
	if len(empty) == 0 {
		return NoMove
	}
	return empty[rng.Intn(len(empty))]
}

package main

type ZobristTable struct {
	cells [BoardSize * BoardSize * 2]uint64
	side  uint64
}

// The table never changes after init, so searches may share it freely.
var zobrist = newZobristTable(0x9e3779b97f4a7c15 ^ uint64(BoardSize))

func newZobristTable(seed uint64) *ZobristTable {
	rng := splitmix64{state: seed}
	table := &ZobristTable{}
	for i := range table.cells {
		table.cells[i] = rng.next()
	}
	table.side = rng.next()
	return table
}

func (z *ZobristTable) stone(move Move, mark Mark) uint64 {
	idx := (move.Row*BoardSize + move.Col) * 2
	if mark == MarkO {
		idx++
	}
	return z.cells[idx]
}

// ComputeHash hashes the board plus the side to move.
func ComputeHash(board Board, toMove Mark) uint64 {
	var hash uint64
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			move := Move{Row: row, Col: col}
			mark, err := MarkFromCell(board.At(move))
			if err != nil {
				continue
			}
			hash ^= zobrist.stone(move, mark)
		}
	}
	if toMove == MarkO {
		hash ^= zobrist.side
	}
	return hash
}

// hashAfterMove updates a hash for mark playing move and the turn passing.
func hashAfterMove(hash uint64, move Move, mark Mark) uint64 {
	return hash ^ zobrist.stone(move, mark) ^ zobrist.side
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

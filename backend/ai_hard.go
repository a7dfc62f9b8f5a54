package main

import (
	"log"
	"time"
)

const (
	scoreWin  = 1
	scoreDraw = 0
	scoreLoss = -1
)

type SearchOptions struct {
	UseCache  bool
	CacheSize uint64
}

type SearchStats struct {
	Start     time.Time
	Elapsed   time.Duration
	Nodes     int
	CacheHits int
	CacheSize int
}

func DefaultSearchOptions() SearchOptions {
	return SearchOptions{UseCache: true, CacheSize: defaultSearchCacheSize}
}

// SelectHard plays the minimax-optimal move for mark. Scores are +1/-1/0 from
// mark's point of view at every level; ties keep the first candidate in
// row-major order. The board is restored before returning.
func SelectHard(board *Board, mark Mark) Move {
	move, _ := SearchHard(board, mark, DefaultSearchOptions())
	return move
}

func SearchHard(board *Board, mark Mark, options SearchOptions) (Move, SearchStats) {
	stats := SearchStats{Start: time.Now()}
	if board.IsFull() || Evaluate(*board).IsTerminal() {
		stats.Elapsed = time.Since(stats.Start)
		return NoMove, stats
	}
	search := minimaxSearch{board: board, maximizer: mark, stats: &stats}
	if options.UseCache {
		search.cache = newSearchCache(options.CacheSize)
	}
	move, _ := search.minimax(mark, ComputeHash(*board, mark))
	if search.cache != nil {
		stats.CacheSize = search.cache.Count()
	}
	stats.Elapsed = time.Since(stats.Start)
	return move, stats
}

type minimaxSearch struct {
	board     *Board
	maximizer Mark
	cache     *searchCache
	stats     *SearchStats
}

func (s *minimaxSearch) minimax(mover Mark, hash uint64) (Move, int) {
	s.stats.Nodes++
	if score, ok := terminalScore(*s.board, s.maximizer); ok {
		return NoMove, score
	}
	if s.cache != nil {
		if entry, ok := s.cache.Probe(hash, *s.board, mover); ok {
			s.stats.CacheHits++
			return entry.Best, entry.Score
		}
	}
	best := NoMove
	bestScore := scoreDraw
	for _, move := range s.board.EmptyCells() {
		score := s.explore(move, mover, hash)
		if best.IsNone() || s.improves(mover, score, bestScore) {
			best = move
			bestScore = score
		}
	}
	if s.cache != nil {
		s.cache.Store(hash, *s.board, mover, bestScore, best)
	}
	return best, bestScore
}

// explore scores move for mover; the cell is emptied again on every return path.
func (s *minimaxSearch) explore(move Move, mover Mark, hash uint64) int {
	s.board.Set(move, CellFromMark(mover))
	defer s.board.Remove(move)
	_, score := s.minimax(otherMark(mover), hashAfterMove(hash, move, mover))
	return score
}

// improves is strict so that the first best candidate is kept.
func (s *minimaxSearch) improves(mover Mark, score int, best int) bool {
	if mover == s.maximizer {
		return score > best
	}
	return score < best
}

func terminalScore(board Board, maximizer Mark) (int, bool) {
	outcome := Evaluate(board)
	if !outcome.IsTerminal() {
		return 0, false
	}
	winner, ok := outcome.Winner()
	switch {
	case !ok:
		return scoreDraw, true
	case winner == maximizer:
		return scoreWin, true
	default:
		return scoreLoss, true
	}
}

func logSearchStats(tag string, mark Mark, move Move, stats SearchStats) {
	log.Printf("[ai:search] %s mark=%s move=(%d,%d) nodes=%d cache_hits=%d cache_entries=%d elapsed=%s",
		tag, mark, move.Row, move.Col, stats.Nodes, stats.CacheHits, stats.CacheSize, stats.Elapsed)
}

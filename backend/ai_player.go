package main

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

func ParseDifficulty(value string) (Difficulty, error) {
	switch value {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return DifficultyEasy, fmt.Errorf("unknown difficulty %q", value)
	}
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return "easy"
	}
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SelectMove routes to the strategy for difficulty. board is borrowed and
// left unchanged.
func SelectMove(difficulty Difficulty, board *Board, mark Mark, rng *rand.Rand) Move {
	switch difficulty {
	case DifficultyHard:
		return SelectHard(board, mark)
	case DifficultyMedium:
		return SelectMedium(board, mark, rng)
	default:
		return SelectEasy(*board, rng)
	}
}

type AIPlayer struct {
	mark       Mark
	difficulty Difficulty

	rngMu sync.Mutex
	rng   *rand.Rand

	moveMutex  sync.Mutex
	readyMove  Move
	workerDone chan struct{}
	stop       chan struct{}
	thinking   atomic.Bool
	moveReady  atomic.Bool
}

func NewAIPlayer(mark Mark, difficulty Difficulty, seed int64) *AIPlayer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &AIPlayer{
		mark:       mark,
		difficulty: difficulty,
		rng:        rand.New(rand.NewSource(seed)),
		readyMove:  NoMove,
	}
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

func (a *AIPlayer) Difficulty() Difficulty {
	return a.difficulty
}

// ChooseMove searches synchronously on a copy of the state's board.
func (a *AIPlayer) ChooseMove(state GameState) Move {
	board := state.Board
	return a.selectMove(&board, GetConfig())
}

func (a *AIPlayer) selectMove(board *Board, config Config) Move {
	if a.difficulty == DifficultyHard {
		move, stats := SearchHard(board, a.mark, config.searchOptions())
		if config.AiLogSearchStats {
			logSearchStats("think", a.mark, move, stats)
		}
		return move
	}
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return SelectMove(a.difficulty, board, a.mark, a.rng)
}

// StartThinking selects a move in the background and publishes it after the
// configured think delay. Stop discards the pending result.
func (a *AIPlayer) StartThinking(state GameState) {
	if a.thinking.Load() {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.thinking.Store(true)
	a.moveReady.Store(false)

	board := state.Board
	config := GetConfig()
	delay := time.Duration(config.AiThinkDelayMs) * time.Millisecond
	stop := make(chan struct{})
	done := make(chan struct{})
	a.stop = stop
	a.workerDone = done
	go func() {
		defer close(done)
		defer a.thinking.Store(false)
		started := time.Now()
		move := a.selectMove(&board, config)
		if wait := delay - time.Since(started); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-stop:
				return
			}
		}
		select {
		case <-stop:
			return
		default:
		}
		a.moveMutex.Lock()
		a.readyMove = move
		a.moveMutex.Unlock()
		a.moveReady.Store(true)
	}()
}

func (a *AIPlayer) IsThinking() bool {
	return a.thinking.Load()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

func (a *AIPlayer) TakeMove() Move {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	move := a.readyMove
	a.readyMove = NoMove
	a.moveReady.Store(false)
	return move
}

// Stop cancels any in-flight search result and waits for the worker to exit.
func (a *AIPlayer) Stop() {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	if a.workerDone != nil {
		<-a.workerDone
		a.workerDone = nil
	}
	a.moveReady.Store(false)
	a.moveMutex.Lock()
	a.readyMove = NoMove
	a.moveMutex.Unlock()
}

package main

import (
	"fmt"
	"time"
)

type PlayerType int

const (
	PlayerHuman PlayerType = iota
	PlayerAI
)

type TimerMode string

const (
	TimerNone    TimerMode = "no_timer"
	TimerRelaxed TimerMode = "relaxed"
	TimerNormal  TimerMode = "normal"
	TimerSpeed   TimerMode = "speed"
)

var timerLimits = map[TimerMode]time.Duration{
	TimerRelaxed: 15 * time.Second,
	TimerNormal:  5 * time.Second,
	TimerSpeed:   3 * time.Second,
}

// Limit is the per-move budget for a human; zero means untimed.
func (m TimerMode) Limit() time.Duration {
	return timerLimits[m]
}

func ParseTimerMode(value string) (TimerMode, error) {
	switch TimerMode(value) {
	case TimerNone, TimerRelaxed, TimerNormal, TimerSpeed:
		return TimerMode(value), nil
	case "":
		return TimerNone, nil
	default:
		return TimerNone, fmt.Errorf("unknown timer mode %q", value)
	}
}

type GameSettings struct {
	XType       PlayerType `json:"-"`
	OType       PlayerType `json:"-"`
	XDifficulty Difficulty `json:"x_difficulty"`
	ODifficulty Difficulty `json:"o_difficulty"`
	TimerMode   TimerMode  `json:"timer_mode"`
}

// DefaultGameSettings is a human X against a hard O.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		XType:       PlayerHuman,
		OType:       PlayerAI,
		XDifficulty: DifficultyHard,
		ODifficulty: DifficultyHard,
		TimerMode:   TimerNone,
	}
}

func (s GameSettings) TypeFor(mark Mark) PlayerType {
	if mark == MarkX {
		return s.XType
	}
	return s.OType
}

func (s GameSettings) DifficultyFor(mark Mark) Difficulty {
	if mark == MarkX {
		return s.XDifficulty
	}
	return s.ODifficulty
}

// HumanVersusAI reports the human's mark when exactly one side is human.
func (s GameSettings) HumanVersusAI() (Mark, bool) {
	switch {
	case s.XType == PlayerHuman && s.OType == PlayerAI:
		return MarkX, true
	case s.OType == PlayerHuman && s.XType == PlayerAI:
		return MarkO, true
	default:
		return MarkX, false
	}
}

package main

import (
	"log"
	"time"
)

const (
	AchievementFirstWin         = "first_win"
	AchievementSpeedDemon       = "speed_demon"
	AchievementPerfectionist    = "perfectionist"
	AchievementComebackKid      = "comeback_kid"
	AchievementStreakMaster     = "streak_master"
	AchievementUndoExpert       = "undo_expert"
	AchievementDifficultyMaster = "difficulty_master"
	AchievementFastThinker      = "fast_thinker"
	AchievementDrawSpecialist   = "draw_specialist"
	AchievementAIAnnihilator    = "ai_annihilator"
)

const (
	streakTarget       = 3
	sessionDrawTarget  = 3
	totalWinTarget     = 10
	fastThinkerMinLeft = 10 * time.Second
)

type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Unlocked    bool      `json:"unlocked"`
	UnlockedAt  time.Time `json:"unlocked_at,omitempty"`
}

func defaultAchievements() []Achievement {
	return []Achievement{
		{ID: AchievementFirstWin, Name: "First Victory", Description: "Win your first game against the AI", Icon: "🏆"},
		{ID: AchievementSpeedDemon, Name: "Speed Demon", Description: "Win a game in Speed mode (3s timer)", Icon: "⚡"},
		{ID: AchievementPerfectionist, Name: "Perfectionist", Description: "Win without the AI making a single move", Icon: "🎯"},
		{ID: AchievementComebackKid, Name: "Comeback Kid", Description: "Win after being 1 move away from losing", Icon: "🔥"},
		{ID: AchievementStreakMaster, Name: "Streak Master", Description: "Win 3 games in a row", Icon: "⭐"},
		{ID: AchievementUndoExpert, Name: "Second Chance", Description: "Use undo and still win the game", Icon: "↶"},
		{ID: AchievementDifficultyMaster, Name: "Master Player", Description: "Win against Hard AI", Icon: "👑"},
		{ID: AchievementFastThinker, Name: "Fast Thinker", Description: "Win with more than 10 seconds left on timer", Icon: "⏱️"},
		{ID: AchievementDrawSpecialist, Name: "Draw Specialist", Description: "Achieve 3 draws in one session", Icon: "🤝"},
		{ID: AchievementAIAnnihilator, Name: "AI Annihilator", Description: "Win 10 games total", Icon: "💥"},
	}
}

// AchievementTracker is not safe for concurrent use; the controller owns it.
type AchievementTracker struct {
	achievements    []Achievement
	index           map[string]int
	consecutiveWins int
	totalWins       int
	sessionDraws    int
	clock           func() time.Time
}

func NewAchievementTracker() *AchievementTracker {
	t := &AchievementTracker{clock: time.Now}
	t.achievements = defaultAchievements()
	t.reindex()
	return t
}

func (t *AchievementTracker) reindex() {
	t.index = make(map[string]int, len(t.achievements))
	for i, a := range t.achievements {
		t.index[a.ID] = i
	}
}

// Check updates counters from a finished game and returns the achievements
// it unlocked. Games without exactly one human player are ignored.
func (t *AchievementTracker) Check(summary GameSummary) []Achievement {
	if !summary.HumanVsAI {
		return nil
	}
	won := summary.HumanWon()
	if won {
		t.consecutiveWins++
		t.totalWins++
	} else {
		t.consecutiveWins = 0
	}
	if summary.Status == StatusDraw {
		t.sessionDraws++
	}

	aiMark := otherMark(summary.HumanMark)
	var unlocked []Achievement
	try := func(id string, cond bool) {
		if !cond {
			return
		}
		if a, ok := t.unlock(id); ok {
			unlocked = append(unlocked, a)
		}
	}
	try(AchievementFirstWin, won)
	try(AchievementSpeedDemon, won && summary.Settings.TimerMode == TimerSpeed)
	try(AchievementPerfectionist, won && summary.AiMoves == 0)
	try(AchievementComebackKid, won && summary.FacedThreat)
	try(AchievementDifficultyMaster, won && summary.Settings.DifficultyFor(aiMark) == DifficultyHard)
	try(AchievementFastThinker, won && summary.Settings.TimerMode != TimerNone &&
		summary.HasTimeLeft && summary.TimeLeft > fastThinkerMinLeft)
	try(AchievementStreakMaster, t.consecutiveWins >= streakTarget)
	try(AchievementUndoExpert, won && summary.UsedUndo)
	try(AchievementDrawSpecialist, t.sessionDraws >= sessionDrawTarget)
	try(AchievementAIAnnihilator, t.totalWins >= totalWinTarget)
	return unlocked
}

func (t *AchievementTracker) unlock(id string) (Achievement, bool) {
	i, ok := t.index[id]
	if !ok || t.achievements[i].Unlocked {
		return Achievement{}, false
	}
	t.achievements[i].Unlocked = true
	t.achievements[i].UnlockedAt = t.clock()
	a := t.achievements[i]
	log.Printf("[achievements] unlocked %s %s: %s", a.Icon, a.Name, a.Description)
	return a, true
}

func (t *AchievementTracker) All() []Achievement {
	return append([]Achievement(nil), t.achievements...)
}

func (t *AchievementTracker) Get(id string) (Achievement, bool) {
	i, ok := t.index[id]
	if !ok {
		return Achievement{}, false
	}
	return t.achievements[i], true
}

func (t *AchievementTracker) UnlockedCount() int {
	count := 0
	for _, a := range t.achievements {
		if a.Unlocked {
			count++
		}
	}
	return count
}

func (t *AchievementTracker) TotalCount() int {
	return len(t.achievements)
}

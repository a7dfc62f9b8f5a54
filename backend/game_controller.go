package main

import (
	"context"
	"log"
	"sync"
	"time"
)

type GameController struct {
	mu            sync.Mutex
	game          Game
	scoreboard    Scoreboard
	achievements  *AchievementTracker
	stats         StatsStore
	unlockSink    func(achievementPayload)
	pendingWrites sync.WaitGroup
}

func NewGameController(settings GameSettings) *GameController {
	gc := &GameController{
		achievements: NewAchievementTracker(),
		stats:        newMemoryStatsStore(),
	}
	gc.game = NewGame(settings)
	gc.game.SetGameOverHook(gc.onGameOver)
	return gc
}

func (gc *GameController) SetStatsStore(store StatsStore) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.stats = store
}

func (gc *GameController) SetUnlockPublisher(sink func(achievementPayload)) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.unlockSink = sink
}

// onGameOver runs with gc.mu held, from inside the game.
func (gc *GameController) onGameOver(summary GameSummary) {
	gc.scoreboard.Record(summary.Status)
	unlocked := gc.achievements.Check(summary)
	if len(unlocked) > 0 {
		persistAchievements(GetConfig(), gc.achievements)
		if gc.unlockSink != nil {
			gc.unlockSink(achievementPayload{
				Unlocked:      unlocked,
				UnlockedCount: gc.achievements.UnlockedCount(),
				TotalCount:    gc.achievements.TotalCount(),
			})
		}
	}
	if gc.stats == nil {
		return
	}
	store := gc.stats
	record := gameRecordFromSummary(summary, time.Now())
	gc.pendingWrites.Add(1)
	go func() {
		defer gc.pendingWrites.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.RecordGame(ctx, record); err != nil {
			log.Printf("[stats] failed to record game: %v", err)
		}
	}()
}

// Flush waits for background stats writes.
func (gc *GameController) Flush() {
	gc.pendingWrites.Wait()
}

func (gc *GameController) ApplyHumanMove(move Move) (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if !gc.game.CurrentPlayerIsHuman() {
		return false, "not human turn"
	}
	return gc.game.TryApplyMove(move)
}

func (gc *GameController) Tick() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Tick()
}

func (gc *GameController) Undo() (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Undo()
}

func (gc *GameController) Hint() Move {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Hint()
}

func (gc *GameController) State() GameState {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.State()
}

func (gc *GameController) Settings() GameSettings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Settings()
}

func (gc *GameController) History() MoveHistory {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History()
}

func (gc *GameController) LatestHistoryEntry() (HistoryEntry, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	entries := gc.game.History().All()
	if len(entries) == 0 {
		return HistoryEntry{}, false
	}
	return entries[len(entries)-1], true
}

func (gc *GameController) CurrentTurnStartedAtMs() int64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TurnStartedAtMs()
}

func (gc *GameController) TimeLeft() (time.Duration, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TimeLeft()
}

func (gc *GameController) AiThinking() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.AiThinking()
}

func (gc *GameController) Scoreboard() Scoreboard {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.scoreboard
}

func (gc *GameController) Achievements() []Achievement {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.achievements.All()
}

func (gc *GameController) AllTimeTotals(ctx context.Context) (Scoreboard, error) {
	gc.mu.Lock()
	store := gc.stats
	gc.mu.Unlock()
	if store == nil {
		return Scoreboard{}, nil
	}
	return store.Totals(ctx)
}

func (gc *GameController) LoadAchievements(cfg Config) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	loadAchievements(cfg, gc.achievements)
}

func (gc *GameController) PersistAchievements(cfg Config) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	persistAchievements(cfg, gc.achievements)
}

func (gc *GameController) Reset(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(settings)
}

func (gc *GameController) StartGame(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(settings)
	gc.game.Start()
}

// UpdateSettings swaps players in place unless reset is requested, so a game
// in progress can switch e.g. to ai_vs_ai and carry on.
func (gc *GameController) UpdateSettings(update GameSettings, reset bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if reset {
		gc.game.Reset(update)
		return
	}
	gc.game.settings = update
	gc.game.createPlayers()
}

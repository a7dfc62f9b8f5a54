package main

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

var dataDir = "/data"

type achievementSnapshot struct {
	Unlocked        map[string]time.Time
	TotalWins       int
	ConsecutiveWins int
}

func (t *AchievementTracker) snapshot() achievementSnapshot {
	snap := achievementSnapshot{
		Unlocked:        make(map[string]time.Time),
		TotalWins:       t.totalWins,
		ConsecutiveWins: t.consecutiveWins,
	}
	for _, a := range t.achievements {
		if a.Unlocked {
			snap.Unlocked[a.ID] = a.UnlockedAt
		}
	}
	return snap
}

// restore applies a snapshot; unknown ids from older files are skipped.
func (t *AchievementTracker) restore(snap achievementSnapshot) int {
	restored := 0
	for id, at := range snap.Unlocked {
		i, ok := t.index[id]
		if !ok {
			continue
		}
		t.achievements[i].Unlocked = true
		t.achievements[i].UnlockedAt = at
		restored++
	}
	t.totalWins = snap.TotalWins
	t.consecutiveWins = snap.ConsecutiveWins
	return restored
}

func loadAchievements(cfg Config, tracker *AchievementTracker) {
	if tracker == nil || !cfg.PersistAchievements || cfg.AchievementsPath == "" {
		log.Printf("[achievements] restored 0 achievements (disabled or no path)")
		return
	}
	path := resolveDataPath(cfg.AchievementsPath)
	snap, err := readAchievementSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[achievements] restored 0 achievements (file not found: %s)", path)
			return
		}
		log.Printf("[achievements] failed to load %s: %v", path, err)
		return
	}
	restored := tracker.restore(snap)
	log.Printf("[achievements] restored %d/%d achievements from %s", restored, tracker.TotalCount(), path)
}

func persistAchievements(cfg Config, tracker *AchievementTracker) {
	if tracker == nil || !cfg.PersistAchievements || cfg.AchievementsPath == "" {
		return
	}
	path := resolveDataPath(cfg.AchievementsPath)
	if err := writeAchievementSnapshot(path, tracker.snapshot()); err != nil {
		log.Printf("[achievements] failed to persist %s: %v", path, err)
		return
	}
	log.Printf("[achievements] stored %d/%d achievements to %s", tracker.UnlockedCount(), tracker.TotalCount(), path)
}

func readAchievementSnapshot(path string) (achievementSnapshot, error) {
	var snap achievementSnapshot
	file, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer file.Close()
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}

// writeAchievementSnapshot writes through a temp file so a crash never leaves
// a truncated snapshot behind.
func writeAchievementSnapshot(path string, snap achievementSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(file).Encode(snap); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// resolveDataPath keeps absolute paths, and places relative ones under
// dataDir when that directory exists (the container volume).
func resolveDataPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if info, err := os.Stat(dataDir); err == nil && info.IsDir() {
		return filepath.Join(dataDir, path)
	}
	return path
}

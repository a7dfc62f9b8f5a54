package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
)

type Config struct {
	ListenAddr          string `json:"listen_addr"`
	TickIntervalMs      int    `json:"tick_interval_ms"`
	AiThinkDelayMs      int    `json:"ai_think_delay_ms"`
	AiSeed              int64  `json:"ai_seed"`
	AiEnableSearchCache bool   `json:"ai_enable_search_cache"`
	AiSearchCacheSize   int    `json:"ai_search_cache_size"`
	AiLogSearchStats    bool   `json:"ai_log_search_stats"`
	PersistAchievements bool   `json:"persist_achievements"`
	AchievementsPath    string `json:"achievements_path"`
	DatabaseURL         string `json:"-"`
	WsPingIntervalSec   int    `json:"ws_ping_interval_sec"`
}

const (
	maxTickIntervalMs    = 10_000
	maxAiThinkDelayMs    = 60_000
	maxSearchCacheSize   = defaultSearchCacheSize
	maxWsPingIntervalSec = 3600
)

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		TickIntervalMs: 50,

		// AI moves are held back this long so a human can follow them.
		AiThinkDelayMs: 400,
		AiSeed:         0,

		AiEnableSearchCache: true,
		AiSearchCacheSize:   defaultSearchCacheSize,
		AiLogSearchStats:    false,

		PersistAchievements: true,
		AchievementsPath:    "achievements.gob",
		DatabaseURL:         "",
		WsPingIntervalSec:   30,
	}
}

// ConfigFromEnv overlays TICTACTOE_* variables on base. Unparseable numbers
// are logged and ignored.
func ConfigFromEnv(base Config) Config {
	cfg := base
	if v := os.Getenv("TICTACTOE_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TICTACTOE_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("TICTACTOE_ACHIEVEMENTS_PATH"); v != "" {
		cfg.AchievementsPath = v
	}
	if v := os.Getenv("TICTACTOE_PERSIST_ACHIEVEMENTS"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.PersistAchievements = parsed
		} else {
			log.Printf("[config] ignoring TICTACTOE_PERSIST_ACHIEVEMENTS=%q: %v", v, err)
		}
	}
	if v := os.Getenv("TICTACTOE_AI_SEED"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.AiSeed = parsed
		} else {
			log.Printf("[config] ignoring TICTACTOE_AI_SEED=%q: %v", v, err)
		}
	}
	overlayInt("TICTACTOE_AI_THINK_DELAY_MS", 0, maxAiThinkDelayMs, &cfg.AiThinkDelayMs)
	overlayInt("TICTACTOE_TICK_INTERVAL_MS", 1, maxTickIntervalMs, &cfg.TickIntervalMs)
	overlayInt("TICTACTOE_AI_SEARCH_CACHE_SIZE", 0, maxSearchCacheSize, &cfg.AiSearchCacheSize)
	overlayInt("TICTACTOE_WS_PING_INTERVAL_SEC", 0, maxWsPingIntervalSec, &cfg.WsPingIntervalSec)
	return cfg
}

func overlayInt(name string, min, max int, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < min || parsed > max {
		log.Printf("[config] ignoring %s=%q: want %d..%d", name, v, min, max)
		return
	}
	*dst = parsed
}

// Validate rejects values the server cannot run with. Zero cache size and
// zero ping interval select the defaults.
func (c Config) Validate() error {
	switch {
	case c.TickIntervalMs < 1 || c.TickIntervalMs > maxTickIntervalMs:
		return fmt.Errorf("tick_interval_ms must be between 1 and %d", maxTickIntervalMs)
	case c.AiThinkDelayMs < 0 || c.AiThinkDelayMs > maxAiThinkDelayMs:
		return fmt.Errorf("ai_think_delay_ms must be between 0 and %d", maxAiThinkDelayMs)
	case c.AiSearchCacheSize < 0 || c.AiSearchCacheSize > maxSearchCacheSize:
		return fmt.Errorf("ai_search_cache_size must be between 0 and %d", maxSearchCacheSize)
	case c.WsPingIntervalSec < 0 || c.WsPingIntervalSec > maxWsPingIntervalSec:
		return fmt.Errorf("ws_ping_interval_sec must be between 0 and %d", maxWsPingIntervalSec)
	}
	return nil
}

func (c Config) searchOptions() SearchOptions {
	size := uint64(defaultSearchCacheSize)
	if c.AiSearchCacheSize > 0 && c.AiSearchCacheSize <= maxSearchCacheSize {
		size = uint64(c.AiSearchCacheSize)
	}
	return SearchOptions{UseCache: c.AiEnableSearchCache, CacheSize: size}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

type arena struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
	gameTimeout  time.Duration
	thinkDelayMs int
	logger       *log.Logger

	originalConfig json.RawMessage
}

type statusResponse struct {
	Status      string            `json:"status"`
	Winner      int               `json:"winner"`
	Board       [][]int           `json:"board"`
	History     []json.RawMessage `json:"history"`
	Config      json.RawMessage   `json:"config"`
	LastMessage string            `json:"last_message"`
}

type matchup struct {
	X string
	O string
}

func (m matchup) String() string {
	return m.X + ":" + m.O
}

type matchResult struct {
	Matchup   matchup
	Games     int
	XWins     int
	OWins     int
	Draws     int
	Errors    int
	LastBoard [][]int
}

func main() {
	logger, closeLog, err := buildLogger(getenv("ARENA_LOG", "logs/arena.log"))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLog()

	matchups, err := parseMatchups(getenv("ARENA_MATCHUPS", "hard:easy,easy:hard,hard:medium,medium:hard,hard:hard"))
	if err != nil {
		logger.Fatalf("[arena] %v", err)
	}
	games := getenvInt("ARENA_GAMES", 10)
	a := &arena{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:      getenv("BACKEND_URL", "http://localhost:8080"),
		pollInterval: time.Duration(getenvInt("POLL_INTERVAL_MS", 100)) * time.Millisecond,
		gameTimeout:  time.Duration(getenvInt("ARENA_GAME_TIMEOUT_SEC", 60)) * time.Second,
		thinkDelayMs: getenvInt("ARENA_THINK_DELAY_MS", 1),
		logger:       logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logf("arena started. backend=%s games=%d matchups=%d", a.baseURL, games, len(matchups))
	if err := a.waitBackendReady(ctx); err != nil {
		logger.Fatalf("[arena] backend not ready: %v", err)
	}
	if err := a.applyConfigOverride(); err != nil {
		a.logf("could not shorten AI delay: %v", err)
	}

	results := a.run(ctx, matchups, games)

	if err := a.restoreConfigOverride(); err != nil {
		a.logf("could not restore backend config: %v", err)
	}

	violations := printReport(os.Stdout, newPalette(os.Stdout), results)
	chartPath := getenv("ARENA_CHART", "charts/arena.html")
	if err := writeChart(chartPath, results); err != nil {
		a.logf("chart not written: %v", err)
	} else {
		a.logf("chart written to %s", chartPath)
	}
	if violations > 0 {
		a.logf("%d matchup(s) broke expectations", violations)
		closeLog()
		os.Exit(1)
	}
}

func (a *arena) run(ctx context.Context, matchups []matchup, games int) []matchResult {
	results := make([]matchResult, 0, len(matchups))
	for _, m := range matchups {
		result := matchResult{Matchup: m}
		for i := 0; i < games; i++ {
			if ctx.Err() != nil {
				a.logf("interrupted during %s", m)
				return append(results, result)
			}
			status, err := a.playGame(ctx, m)
			if err != nil {
				a.logf("%s game %d failed: %v", m, i+1, err)
				result.Errors++
				continue
			}
			result.Games++
			result.LastBoard = status.Board
			switch status.Status {
			case "x_won":
				result.XWins++
			case "o_won":
				result.OWins++
			case "draw":
				result.Draws++
			}
			a.logf("%s game %d: %s after %d moves", m, i+1, status.Status, len(status.History))
		}
		results = append(results, result)
	}
	return results
}

func (a *arena) playGame(ctx context.Context, m matchup) (statusResponse, error) {
	if err := a.startGame(m); err != nil {
		return statusResponse{}, err
	}
	deadline := time.Now().Add(a.gameTimeout)
	for {
		if ctx.Err() != nil {
			_ = a.stopGame()
			return statusResponse{}, ctx.Err()
		}
		status, err := a.fetchStatus()
		if err != nil {
			return statusResponse{}, err
		}
		if status.Status != "running" && status.Status != "not_started" {
			return status, nil
		}
		if a.gameTimeout > 0 && time.Now().After(deadline) {
			_ = a.stopGame()
			return statusResponse{}, fmt.Errorf("game timeout after %s", a.gameTimeout)
		}
		if !sleepWithContext(ctx, a.pollInterval) {
			_ = a.stopGame()
			return statusResponse{}, ctx.Err()
		}
	}
}

func (a *arena) startGame(m matchup) error {
	payload := map[string]any{
		"settings": map[string]any{
			"mode":         "ai_vs_ai",
			"x_difficulty": m.X,
			"o_difficulty": m.O,
			"timer_mode":   "no_timer",
		},
	}
	return a.postJSON("/api/start", payload, nil)
}

func (a *arena) stopGame() error {
	return a.postJSON("/api/stop", map[string]any{}, nil)
}

func (a *arena) fetchStatus() (statusResponse, error) {
	var status statusResponse
	if err := a.getJSON("/api/status", &status); err != nil {
		return statusResponse{}, err
	}
	return status, nil
}

// applyConfigOverride shortens the backend's AI pause so matches run quickly.
// The previous config is kept verbatim for restoreConfigOverride.
func (a *arena) applyConfigOverride() error {
	status, err := a.fetchStatus()
	if err != nil {
		return err
	}
	if len(status.Config) == 0 || bytes.Equal(status.Config, []byte("null")) {
		return nil
	}
	a.originalConfig = append(json.RawMessage(nil), status.Config...)
	override := map[string]any{"ai_think_delay_ms": a.thinkDelayMs}
	return a.postJSON("/api/settings", map[string]any{"config": override}, nil)
}

func (a *arena) restoreConfigOverride() error {
	if a.originalConfig == nil {
		return nil
	}
	return a.postJSON("/api/settings", map[string]any{"config": a.originalConfig}, nil)
}

func (a *arena) waitBackendReady(ctx context.Context) error {
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := a.ping(); err == nil {
			return nil
		}
		if !sleepWithContext(ctx, time.Second) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("timeout after 60s")
}

func (a *arena) ping() error {
	var out map[string]bool
	return a.getJSON("/api/ping", &out)
}

func (a *arena) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s -> %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *arena) postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST %s -> %d: %s", path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *arena) logf(format string, args ...any) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	a.logger.Printf("[%s] [arena] %s", ts, fmt.Sprintf(format, args...))
}

var difficultyNames = map[string]bool{"easy": true, "medium": true, "hard": true}

// parseMatchups reads a comma separated list of x:o difficulty pairs.
func parseMatchups(value string) ([]matchup, error) {
	var matchups []matchup
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		x, o, ok := strings.Cut(part, ":")
		x = strings.ToLower(strings.TrimSpace(x))
		o = strings.ToLower(strings.TrimSpace(o))
		if !ok || !difficultyNames[x] || !difficultyNames[o] {
			return nil, fmt.Errorf("invalid matchup %q, want e.g. hard:easy", part)
		}
		matchups = append(matchups, matchup{X: x, O: o})
	}
	if len(matchups) == 0 {
		return nil, fmt.Errorf("no matchups configured")
	}
	return matchups, nil
}

func buildLogger(path string) (*log.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(io.MultiWriter(os.Stdout, f), "", 0)
	return logger, func() { _ = f.Close() }, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

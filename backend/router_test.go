package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *GameController) {
	t.Helper()
	withTestConfig(t, nil)
	controller := NewGameController(DefaultGameSettings())
	srv := httptest.NewServer(newRouter(&server{controller: controller, hub: NewHub()}))
	t.Cleanup(func() {
		srv.Close()
		controller.Reset(controller.Settings())
		controller.Flush()
	})
	return srv, controller
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func startHumanGame(t *testing.T, baseURL string) {
	t.Helper()
	payload := map[string]any{"settings": map[string]any{"mode": "human_vs_human", "timer_mode": "no_timer"}}
	var status StatusResponse
	if code := doJSON(t, http.MethodPost, baseURL+"/api/start", payload, &status); code != http.StatusOK {
		t.Fatalf("start returned %d", code)
	}
	if status.Status != "running" || status.Settings.Mode != "human_vs_human" {
		t.Fatalf("unexpected status after start: %+v", status)
	}
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t)
	var out map[string]bool
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/ping", nil, &out); code != http.StatusOK || !out["ok"] {
		t.Fatalf("unexpected ping response %d %v", code, out)
	}
}

func TestMoveAndStatusOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	startHumanGame(t, srv.URL)

	var status StatusResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/move", apiMove{Row: 1, Col: 1}, &status); code != http.StatusOK {
		t.Fatalf("move returned %d", code)
	}
	if status.Board[1][1] != 1 || status.NextPlayer != 2 || len(status.History) != 1 {
		t.Fatalf("unexpected status after move: %+v", status)
	}

	var errBody map[string]string
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/move", apiMove{Row: 1, Col: 1}, &errBody); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for occupied cell, got %d", code)
	}
	if errBody["error"] == "" {
		t.Fatalf("expected an error message")
	}
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/move", apiMove{Row: 7, Col: 0}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range move, got %d", code)
	}

	var hint hintResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/hint", nil, &hint); code != http.StatusOK || !hint.HasMove {
		t.Fatalf("expected a hint, got %d %+v", code, hint)
	}

	if code := doJSON(t, http.MethodPost, srv.URL+"/api/undo", nil, &status); code != http.StatusOK {
		t.Fatalf("undo returned %d", code)
	}
	if status.Board[1][1] != 0 || status.NextPlayer != 1 {
		t.Fatalf("expected an empty board after undo: %+v", status)
	}
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/undo", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 when nothing can be undone, got %d", code)
	}
}

func TestFinishedGameUpdatesScoreboardAndStats(t *testing.T) {
	srv, controller := newTestServer(t)
	startHumanGame(t, srv.URL)
	for _, move := range []apiMove{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}} {
		if code := doJSON(t, http.MethodPost, srv.URL+"/api/move", move, nil); code != http.StatusOK {
			t.Fatalf("move %+v returned %d", move, code)
		}
	}
	controller.Flush()

	var status StatusResponse
	doJSON(t, http.MethodGet, srv.URL+"/api/status", nil, &status)
	if status.Status != "x_won" || status.Winner != 1 || len(status.WinningLine) != 3 {
		t.Fatalf("unexpected final status %+v", status)
	}

	var scoreboard Scoreboard
	doJSON(t, http.MethodGet, srv.URL+"/api/scoreboard", nil, &scoreboard)
	if scoreboard.XWins != 1 {
		t.Fatalf("unexpected scoreboard %+v", scoreboard)
	}
	var totals Scoreboard
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/stats", nil, &totals); code != http.StatusOK || totals.XWins != 1 {
		t.Fatalf("unexpected stats %d %+v", code, totals)
	}

	var achievements struct {
		Achievements  []Achievement `json:"achievements"`
		UnlockedCount int           `json:"unlocked_count"`
		TotalCount    int           `json:"total_count"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/api/achievements", nil, &achievements)
	if achievements.TotalCount != 10 || achievements.UnlockedCount != 0 {
		t.Fatalf("human vs human must not unlock achievements: %+v", achievements)
	}
}

func TestStartRejectsUnknownSettings(t *testing.T) {
	srv, _ := newTestServer(t)
	bad := []map[string]any{
		{"settings": map[string]any{"mode": "team_play"}},
		{"settings": map[string]any{"mode": "ai_vs_ai", "x_difficulty": "godlike"}},
		{"settings": map[string]any{"mode": "ai_vs_ai", "timer_mode": "blitz"}},
	}
	for _, payload := range bad {
		if code := doJSON(t, http.MethodPost, srv.URL+"/api/start", payload, nil); code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", payload, code)
		}
	}
}

func TestSettingsMergesPartialConfig(t *testing.T) {
	srv, controller := newTestServer(t)
	before := GetConfig()
	payload := map[string]any{
		"settings": map[string]any{"mode": "ai_vs_human", "human_player": 2, "difficulty": "medium"},
		"config":   map[string]any{"ai_think_delay_ms": 7},
	}
	var status StatusResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/settings", payload, &status); code != http.StatusOK {
		t.Fatalf("settings returned %d", code)
	}
	cfg := GetConfig()
	if cfg.AiThinkDelayMs != 7 || cfg.ListenAddr != before.ListenAddr || cfg.TickIntervalMs != before.TickIntervalMs {
		t.Fatalf("expected only the think delay to change, got %+v", cfg)
	}
	settings := controller.Settings()
	if settings.XType != PlayerAI || settings.OType != PlayerHuman {
		t.Fatalf("expected AI X against human O, got %+v", settings)
	}
	if settings.XDifficulty != DifficultyMedium || settings.ODifficulty != DifficultyMedium {
		t.Fatalf("expected medium on both sides, got %+v", settings)
	}
	if status.Settings.HumanPlayer != 2 || status.Settings.Mode != "ai_vs_human" {
		t.Fatalf("unexpected settings echo %+v", status.Settings)
	}
}

func TestModeAndStatusStrings(t *testing.T) {
	settings := DefaultGameSettings()
	if modeFromSettings(settings) != "ai_vs_human" {
		t.Fatalf("expected ai_vs_human for the default settings")
	}
	settings.XType = PlayerAI
	if modeFromSettings(settings) != "ai_vs_ai" {
		t.Fatalf("expected ai_vs_ai")
	}
	statuses := map[GameStatus]string{
		StatusNotStarted: "not_started",
		StatusRunning:    "running",
		StatusXWon:       "x_won",
		StatusOWon:       "o_won",
		StatusDraw:       "draw",
	}
	for status, want := range statuses {
		if got := statusToString(status); got != want {
			t.Fatalf("statusToString(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestSettingsRejectsOutOfRangeConfig(t *testing.T) {
	srv, _ := newTestServer(t)
	before := GetConfig()
	bad := []map[string]any{
		{"ai_search_cache_size": int64(1) << 40},
		{"ai_search_cache_size": -1},
		{"ws_ping_interval_sec": int64(10_000_000_000)},
		{"tick_interval_ms": 0},
		{"ai_think_delay_ms": -3},
	}
	for _, cfg := range bad {
		var errBody map[string]string
		payload := map[string]any{"config": cfg}
		if code := doJSON(t, http.MethodPost, srv.URL+"/api/settings", payload, &errBody); code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", cfg, code)
		}
		if errBody["error"] == "" {
			t.Fatalf("expected an error message for %v", cfg)
		}
		if got := GetConfig(); got != before {
			t.Fatalf("rejected config %v must not be stored, got %+v", cfg, got)
		}
	}

	// The server still answers hints with the stored cache size.
	startHumanGame(t, srv.URL)
	var hint hintResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/hint", nil, &hint); code != http.StatusOK || !hint.HasMove {
		t.Fatalf("expected a hint after rejected config, got %d %+v", code, hint)
	}
}

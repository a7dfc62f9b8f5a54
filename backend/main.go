package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

type StatusResponse struct {
	Settings        GameSettingsDTO   `json:"settings"`
	Config          Config            `json:"config"`
	Board           [][]int           `json:"board"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	History         []historyEntryDTO `json:"history"`
	WinningLine     []Move            `json:"winning_line"`
	LastMessage     string            `json:"last_message"`
	AiThinking      bool              `json:"ai_thinking"`
	TimeLeftMs      *int64            `json:"time_left_ms"`
	Scoreboard      Scoreboard        `json:"scoreboard"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type GameSettingsDTO struct {
	Mode        string `json:"mode"`
	HumanPlayer int    `json:"human_player"`
	Difficulty  string `json:"difficulty,omitempty"`
	XDifficulty string `json:"x_difficulty,omitempty"`
	ODifficulty string `json:"o_difficulty,omitempty"`
	TimerMode   string `json:"timer_mode,omitempty"`
}

type apiMove struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type historyEntryDTO struct {
	Row       int     `json:"row"`
	Col       int     `json:"col"`
	Player    int     `json:"player"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type resetPayload struct {
	Board           [][]int           `json:"board"`
	History         []historyEntryDTO `json:"history"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	WinningLine     []Move            `json:"winning_line"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type settingsPayload struct {
	Settings GameSettingsDTO `json:"settings"`
	Config   Config          `json:"config"`
}

type hintResponse struct {
	Move    Move `json:"move"`
	HasMove bool `json:"has_move"`
}

type server struct {
	controller *GameController
	hub        *Hub
}

func main() {
	cfg := ConfigFromEnv(DefaultConfig())
	configStore.Update(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	openCtx, cancelOpen := context.WithTimeout(ctx, 10*time.Second)
	store, err := OpenStatsStore(openCtx, cfg)
	cancelOpen()
	if err != nil {
		log.Printf("[backend] stats store unavailable, keeping results in memory: %v", err)
		store = newMemoryStatsStore()
	}

	controller := NewGameController(DefaultGameSettings())
	controller.SetStatsStore(store)
	controller.LoadAchievements(cfg)

	var shutdownOnce sync.Once
	persistOnShutdown := func(reason string) {
		shutdownOnce.Do(func() {
			log.Printf("[backend] persisting on %s", reason)
			controller.Flush()
			controller.PersistAchievements(GetConfig())
			if err := store.Close(); err != nil {
				log.Printf("[backend] closing stats store: %v", err)
			}
		})
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("[backend] panic recovered in main: %v", recovered)
			persistOnShutdown("panic")
		}
	}()
	defer persistOnShutdown("exit")

	hub := NewHub()
	controller.SetUnlockPublisher(hub.PublishAchievements)
	srv := &server{controller: controller, hub: hub}

	go hub.Run(ctx.Done())
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.TickIntervalMs) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if controller.Tick() {
					srv.publishLatestMove()
					srv.publishStatus()
				}
			}
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: newRouter(srv),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Printf("backend listening on %s", cfg.ListenAddr)
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Printf("[backend] shutdown signal received: %v", sigCtx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
			log.Printf("[backend] server error: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[backend] graceful shutdown failed: %v", err)
		if closeErr := httpServer.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Printf("[backend] forced close failed: %v", closeErr)
		}
	}

	cancel()
	persistOnShutdown("shutdown")
	if runErr != nil {
		log.Printf("[backend] exiting after server error: %v", runErr)
	}
}

func newRouter(srv *server) http.Handler {
	controller := srv.controller
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/start", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings GameSettingsDTO `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		settings, err := settingsFromDTO(payload.Settings, controller.Settings())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		controller.StartGame(settings)
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		srv.publishReset()
	})

	// Stop clears the board back to not_started and keeps the current settings.
	r.Post("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		controller.Reset(controller.Settings())
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		srv.publishReset()
	})

	r.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings *GameSettingsDTO `json:"settings"`
			Config   json.RawMessage  `json:"config"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		var settings GameSettings
		if payload.Settings != nil {
			var err error
			settings, err = settingsFromDTO(*payload.Settings, controller.Settings())
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
		}
		if len(payload.Config) > 0 {
			next := GetConfig()
			if err := json.Unmarshal(payload.Config, &next); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid config"})
				return
			}
			if err := next.Validate(); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			configStore.Update(next)
		}
		if payload.Settings != nil {
			controller.UpdateSettings(settings, false)
		}
		srv.publishSettings()
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload apiMove
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		applied, errMsg := controller.ApplyHumanMove(Move{Row: payload.Row, Col: payload.Col})
		if !applied {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
			return
		}
		srv.publishLatestMove()
		srv.publishStatus()
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/undo", func(w http.ResponseWriter, r *http.Request) {
		undone, errMsg := controller.Undo()
		if !undone {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
			return
		}
		srv.publishReset()
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Get("/api/hint", func(w http.ResponseWriter, r *http.Request) {
		move := controller.Hint()
		writeJSON(w, http.StatusOK, hintResponse{Move: move, HasMove: !move.IsNone()})
	})

	r.Get("/api/scoreboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controller.Scoreboard())
	})

	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		totals, err := controller.AllTimeTotals(r.Context())
		if err != nil {
			log.Printf("[stats] totals: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, totals)
	})

	r.Get("/api/achievements", func(w http.ResponseWriter, r *http.Request) {
		achievements := controller.Achievements()
		unlocked := 0
		for _, a := range achievements {
			if a.Unlocked {
				unlocked++
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"achievements":   achievements,
			"unlocked_count": unlocked,
			"total_count":    len(achievements),
		})
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(srv.hub, controller, w, r)
	})
	return r
}

func (srv *server) publishStatus() {
	select {
	case srv.hub.broadcastStatus <- controllerStatus(srv.controller):
	default:
	}
}

func (srv *server) publishLatestMove() {
	entry, ok := srv.controller.LatestHistoryEntry()
	if !ok {
		return
	}
	select {
	case srv.hub.broadcastHistory <- historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}}:
	default:
	}
}

func (srv *server) publishReset() {
	select {
	case srv.hub.broadcastReset <- resetFromController(srv.controller):
	default:
	}
}

func (srv *server) publishSettings() {
	select {
	case srv.hub.broadcastSettings <- settingsPayload{
		Settings: controllerSettingsDTO(srv.controller.Settings()),
		Config:   GetConfig(),
	}:
	default:
	}
}

func serveWS(hub *Hub, controller *GameController, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

	status := controllerStatus(controller)
	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(status)})

	interval := wsPingInterval()
	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send, interval); err != nil {
			return
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			status := controllerStatus(controller)
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(status)})
		}
	}
}

func controllerStatus(controller *GameController) StatusResponse {
	state := controller.State()
	response := StatusResponse{
		Settings:        controllerSettingsDTO(controller.Settings()),
		Config:          GetConfig(),
		Board:           boardToSlice(state.Board),
		NextPlayer:      markToInt(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		Status:          statusToString(state.Status),
		History:         historyToDTO(controller.History()),
		WinningLine:     append([]Move(nil), state.WinningLine...),
		LastMessage:     state.LastMessage,
		AiThinking:      controller.AiThinking(),
		Scoreboard:      controller.Scoreboard(),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
	if left, ok := controller.TimeLeft(); ok {
		ms := left.Milliseconds()
		response.TimeLeftMs = &ms
	}
	return response
}

func settingsFromDTO(dto GameSettingsDTO, base GameSettings) (GameSettings, error) {
	settings := base
	switch dto.Mode {
	case "ai_vs_ai":
		settings.XType = PlayerAI
		settings.OType = PlayerAI
	case "human_vs_human":
		settings.XType = PlayerHuman
		settings.OType = PlayerHuman
	case "ai_vs_human", "human_vs_ai":
		if dto.HumanPlayer == 2 {
			settings.XType = PlayerAI
			settings.OType = PlayerHuman
		} else {
			settings.XType = PlayerHuman
			settings.OType = PlayerAI
		}
	case "":
	default:
		return base, fmt.Errorf("unknown mode %q", dto.Mode)
	}
	if dto.Difficulty != "" {
		difficulty, err := ParseDifficulty(dto.Difficulty)
		if err != nil {
			return base, err
		}
		settings.XDifficulty = difficulty
		settings.ODifficulty = difficulty
	}
	if dto.XDifficulty != "" {
		difficulty, err := ParseDifficulty(dto.XDifficulty)
		if err != nil {
			return base, err
		}
		settings.XDifficulty = difficulty
	}
	if dto.ODifficulty != "" {
		difficulty, err := ParseDifficulty(dto.ODifficulty)
		if err != nil {
			return base, err
		}
		settings.ODifficulty = difficulty
	}
	if dto.TimerMode != "" {
		mode, err := ParseTimerMode(dto.TimerMode)
		if err != nil {
			return base, err
		}
		settings.TimerMode = mode
	}
	return settings, nil
}

func modeFromSettings(settings GameSettings) string {
	switch {
	case settings.XType == PlayerAI && settings.OType == PlayerAI:
		return "ai_vs_ai"
	case settings.XType == PlayerHuman && settings.OType == PlayerHuman:
		return "human_vs_human"
	default:
		return "ai_vs_human"
	}
}

func controllerSettingsDTO(settings GameSettings) GameSettingsDTO {
	humanPlayer := 0
	if settings.XType == PlayerHuman {
		humanPlayer = 1
	} else if settings.OType == PlayerHuman {
		humanPlayer = 2
	}
	return GameSettingsDTO{
		Mode:        modeFromSettings(settings),
		HumanPlayer: humanPlayer,
		XDifficulty: settings.XDifficulty.String(),
		ODifficulty: settings.ODifficulty.String(),
		TimerMode:   string(settings.TimerMode),
	}
}

func boardToSlice(board Board) [][]int {
	rows := make([][]int, BoardSize)
	for row := 0; row < BoardSize; row++ {
		rows[row] = make([]int, BoardSize)
		for col := 0; col < BoardSize; col++ {
			rows[row][col] = int(board[row][col])
		}
	}
	return rows
}

func markToInt(mark Mark) int {
	if mark == MarkX {
		return 1
	}
	return 2
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusXWon:
		return 1
	case StatusOWon:
		return 2
	default:
		return 0
	}
}

func statusToString(status GameStatus) string {
	switch status {
	case StatusNotStarted:
		return "not_started"
	case StatusXWon:
		return "x_won"
	case StatusOWon:
		return "o_won"
	case StatusDraw:
		return "draw"
	default:
		return "running"
	}
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryToDTO(entry))
	}
	return result
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	return historyEntryDTO{
		Row:       entry.Move.Row,
		Col:       entry.Move.Col,
		Player:    markToInt(entry.Player),
		ElapsedMs: entry.ElapsedMs,
		IsAi:      entry.IsAi,
	}
}

func resetFromController(controller *GameController) resetPayload {
	state := controller.State()
	return resetPayload{
		Board:           boardToSlice(state.Board),
		History:         historyToDTO(controller.History()),
		NextPlayer:      markToInt(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		Status:          statusToString(state.Status),
		WinningLine:     append([]Move(nil), state.WinningLine...),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

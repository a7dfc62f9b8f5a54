package main

import (
	"time"

	"github.com/gorilla/websocket"
)

func wsPingInterval() time.Duration {
	if secs := GetConfig().WsPingIntervalSec; secs > 0 && secs <= maxWsPingIntervalSec {
		return time.Duration(secs) * time.Second
	}
	return 30 * time.Second
}

// writeWSWithHeartbeat forwards queued messages and sends an application ping
// when the connection has been idle for a full interval.
func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < interval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}

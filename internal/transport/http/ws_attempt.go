package http

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsInbound struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

type wsError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleAttempt runs a server-driven timed attempt over a websocket. The
// server pushes question, answerResult and completed events; the client
// sends {"type":"answer","label":"A"} and {"type":"next"}. Disconnecting
// before completion abandons the attempt without recording it.
func (a *API) handleAttempt(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())

	count := a.defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			count = parsed
		}
	}
	perQuestion := time.Duration(0)
	if raw := r.URL.Query().Get("seconds"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			perQuestion = time.Duration(parsed) * time.Second
		}
	}

	engine, err := a.quiz.NewAttempt(r.Context(), username, count, perQuestion)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start attempt")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		engine.Abandon()
		return
	}
	defer conn.Close()

	send := make(chan any, 32)
	writerDone := make(chan struct{})
	pumpDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Engine events flow until the channel closes on completion or abandon.
	go func() {
		defer close(pumpDone)
		for ev := range engine.Events() {
			send <- ev
		}
	}()

	if err := engine.Start(); err != nil {
		log.Printf("start attempt: %v", err)
	}

	for {
		var inbound wsInbound
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			if err := engine.Answer(inbound.Label); err != nil {
				send <- wsError{Type: "error", Message: err.Error()}
			}
		case "next":
			if err := engine.Advance(); err != nil {
				send <- wsError{Type: "error", Message: err.Error()}
			}
		default:
			send <- wsError{Type: "error", Message: "unsupported message type"}
		}
	}

	// No-op if the attempt already completed and was recorded.
	engine.Abandon()
	<-pumpDone
	close(send)
	<-writerDone
}

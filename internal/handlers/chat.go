package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/engine"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
	maxEventBytes   = 25 << 20
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// ChatEngine processes one chat event.
type ChatEngine interface {
	Handle(ctx context.Context, chatID int64, ev engine.Event) []engine.Reply
}

// ChatEvent is the JSON form of an inbound chat event. Photo is base64.
type ChatEvent struct {
	Type    string        `json:"type"`
	Text    string        `json:"text,omitempty"`
	Choice  engine.Choice `json:"choice,omitempty"`
	Command string        `json:"command,omitempty"`
	Photo   []byte        `json:"photo,omitempty"`
}

// Event converts the payload into an engine event.
func (c ChatEvent) Event() (engine.Event, bool) {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "text":
		return engine.Text{Body: c.Text}, true
	case "choice":
		if c.Choice.Action == "" {
			return engine.ParseChoice(""), true
		}
		return c.Choice, true
	case "command":
		return engine.ParseCommand(c.Command), true
	case "photo":
		if len(c.Photo) == 0 {
			return nil, false
		}
		return engine.Photo{Data: c.Photo}, true
	}
	return nil, false
}

// ChatResponse carries the replies produced by one event.
type ChatResponse struct {
	Type    string         `json:"type"`
	Replies []engine.Reply `json:"replies,omitempty"`
	Message string         `json:"message,omitempty"`
}

// ChatHandler exposes the conversation engine over HTTP and WebSocket.
type ChatHandler struct {
	engine ChatEngine
	log    *log.Entry
}

// NewChatHandler creates a new chat handler
func NewChatHandler(e ChatEngine) *ChatHandler {
	return &ChatHandler{engine: e, log: log.WithField("component", "chat")}
}

// Register mounts the chat routes on mux.
func (h *ChatHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat/{chatID}/events", h.PostEvent)
	mux.HandleFunc("GET /ws/chat/{chatID}", h.WS)
}

// PostEvent handles one event and returns its replies
func (h *ChatHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDFrom(w, r)
	if !ok {
		return
	}
	var in ChatEvent
	if err := decodeJSON(w, r, &in); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	ev, ok := in.Event()
	if !ok {
		http.Error(w, "Invalid event type", http.StatusBadRequest)
		return
	}
	replies := h.engine.Handle(r.Context(), chatID, ev)
	writeJSON(w, http.StatusOK, ChatResponse{Type: "replies", Replies: replies})
}

// WS streams events and replies of one chat over a WebSocket
func (h *ChatHandler) WS(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDFrom(w, r)
	if !ok {
		return
	}
	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxEventBytes)

	logger := h.log.WithField("chat_id", chatID)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		logger.WithError(err).Warn("chat ws set read deadline failed")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan ChatResponse, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	logger.Debug("chat ws connected")
	for {
		var in ChatEvent
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			logger.Debug("chat ws closed")
			return
		}
		ev, ok := in.Event()
		if !ok {
			push(ctx, writeCh, ChatResponse{Type: "error", Message: "invalid event type"})
			continue
		}
		replies := h.engine.Handle(ctx, chatID, ev)
		push(ctx, writeCh, ChatResponse{Type: "replies", Replies: replies})
	}
}

func push(ctx context.Context, ch chan<- ChatResponse, out ChatResponse) {
	select {
	case ch <- out:
	case <-ctx.Done():
	}
}

func chatIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("chatID"), 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "Invalid chatID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(v)
}

// Package live drives a scheduling conversation over a WebSocket, the
// transport used by voice clients that hold one connection per call.
package live

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tarabot/scheduler/backend/internal/model/convo"
	"github.com/tarabot/scheduler/backend/internal/service/agent"
)

// Handler upgrades connections and relays turns to the agent.
type Handler struct {
	agent    *agent.Agent
	upgrader websocket.Upgrader
}

// New creates the live conversation handler.
func New(agt *agent.Agent) *Handler {
	return &Handler{
		agent: agt,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/live", h.handleConnection)
}

type inboundTurn struct {
	Text                 string `json:"text"`
	ConfirmationDetected bool   `json:"confirmationDetected"`
}

type outboundReply struct {
	ConversationID string `json:"conversationId"`
	Reply          string `json:"reply"`
	State          string `json:"state"`
	Booked         bool   `json:"booked"`
	Error          string `json:"error,omitempty"`
}

// handleConnection keeps the growing transcript on the connection and
// answers every user turn with a full reply frame.
func (h *Handler) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[live] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	log.Printf("[live] connection opened for conversation=%s", conversationID)

	var transcript []convo.Turn
	for {
		var turn inboundTurn
		if err := conn.ReadJSON(&turn); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[live] read failed for conversation=%s: %v", conversationID, err)
			}
			return
		}
		if turn.Text == "" {
			continue
		}

		transcript = append(transcript, convo.Turn{Role: convo.RoleUser, Content: turn.Text})

		result, err := h.agent.Respond(r.Context(), conversationID, transcript, turn.ConfirmationDetected)
		if err != nil {
			log.Printf("[live] respond failed for conversation=%s: %v", conversationID, err)
			_ = conn.WriteJSON(outboundReply{ConversationID: conversationID, Error: "failed to process turn"})
			continue
		}

		transcript = append(transcript, convo.Turn{Role: convo.RoleAssistant, Content: result.Reply})

		if err := conn.WriteJSON(outboundReply{
			ConversationID: conversationID,
			Reply:          result.Reply,
			State:          string(result.State),
			Booked:         result.Booked,
		}); err != nil {
			log.Printf("[live] write failed for conversation=%s: %v", conversationID, err)
			return
		}
	}
}

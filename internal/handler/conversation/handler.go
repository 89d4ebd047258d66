package conversation

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tarabot/scheduler/backend/internal/model/convo"
	"github.com/tarabot/scheduler/backend/internal/service/agent"
	"github.com/tarabot/scheduler/backend/internal/service/facts"
	"github.com/tarabot/scheduler/backend/internal/service/session"
	"github.com/tarabot/scheduler/backend/pkg/utils"
)

// Handler serves the turn-by-turn scheduling conversation API.
type Handler struct {
	agent *agent.Agent
	store *session.Store
}

// New creates the conversation handler.
func New(agt *agent.Agent, store *session.Store) *Handler {
	return &Handler{agent: agt, store: store}
}

// RegisterRoutes mounts the conversation endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/conversation", h.handleTurn)
	r.Get("/conversation/{conversationID}/facts", h.handleFacts)
}

// TurnRequest is one inbound conversation turn with its transcript.
type TurnRequest struct {
	ConversationID string       `json:"conversationId"`
	Messages       []convo.Turn `json:"messages"`
	Stream         bool         `json:"stream"`
	// ConfirmationDetected is the transport's externally-classified
	// "user wants to book now" signal, treated as opaque by the core.
	ConfirmationDetected bool `json:"confirmationDetected"`
}

type streamEvent struct {
	Event          string       `json:"event"`
	ConversationID string       `json:"conversationId,omitempty"`
	Content        string       `json:"content,omitempty"`
	Facts          *facts.Sheet `json:"facts,omitempty"`
	State          string       `json:"state,omitempty"`
	Finished       bool         `json:"finished,omitempty"`
	Error          string       `json:"error,omitempty"`
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "messages are required")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	if req.Stream {
		h.streamTurn(w, r, req)
		return
	}

	result, err := h.agent.Respond(r.Context(), req.ConversationID, req.Messages, req.ConfirmationDetected)
	if err != nil {
		log.Printf("[conversation] respond failed for conversation=%s: %v", req.ConversationID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to process turn")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) streamTurn(w http.ResponseWriter, r *http.Request, req TurnRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	utils.SendSSEChunk(w, flusher, streamEvent{Event: "start", ConversationID: req.ConversationID})

	result, stream, err := h.agent.Stream(r.Context(), req.ConversationID, req.Messages, req.ConfirmationDetected)
	if err != nil {
		log.Printf("[conversation] stream failed for conversation=%s: %v", req.ConversationID, err)
		utils.SendSSEChunk(w, flusher, streamEvent{Event: "error", Error: "failed to process turn"})
		return
	}

	reply := result.Reply
	if stream != nil {
		defer stream.Close()
		reply = ""
		for {
			chunk, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				break
			}
			if recvErr != nil {
				log.Printf("[conversation] stream recv failed: %v", recvErr)
				utils.SendSSEChunk(w, flusher, streamEvent{Event: "error", Error: "stream interrupted"})
				return
			}
			if chunk == nil || chunk.Content == "" {
				continue
			}
			reply += chunk.Content
			utils.SendSSEChunk(w, flusher, streamEvent{
				Event:          "delta",
				ConversationID: req.ConversationID,
				Content:        chunk.Content,
			})
		}
	}

	utils.SendSSEChunk(w, flusher, streamEvent{
		Event:          "message",
		ConversationID: req.ConversationID,
		Content:        reply,
	})
	utils.SendSSEChunk(w, flusher, streamEvent{
		Event:          "facts",
		ConversationID: req.ConversationID,
		Facts:          &result.Sheet,
		State:          string(result.State),
	})
	utils.SendSSEChunk(w, flusher, streamEvent{Event: "end", ConversationID: req.ConversationID, Finished: true})
}

func (h *Handler) handleFacts(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		utils.RespondError(w, http.StatusBadRequest, "conversationID is required")
		return
	}

	sess := h.store.GetOrCreate(conversationID)
	utils.RespondJSON(w, http.StatusOK, facts.Build(sess))
}

package conversation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tarabot/scheduler/backend/internal/analysis/when"
	"github.com/tarabot/scheduler/backend/internal/service/agent"
	"github.com/tarabot/scheduler/backend/internal/service/booking"
	"github.com/tarabot/scheduler/backend/internal/service/extract"
	"github.com/tarabot/scheduler/backend/internal/service/facts"
	"github.com/tarabot/scheduler/backend/internal/service/session"
)

func newTestRouter() chi.Router {
	store := session.NewStore(0)
	engine := extract.NewEngine(store, when.Options{})
	gate := booking.NewGate(store, booking.LogBooker{}, time.Second)
	h := New(agent.New(engine, gate, nil), store)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHandleTurnRejectsBadBody(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/conversation", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTurnRejectsEmptyMessages(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/conversation", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTurnGeneratesConversationID(t *testing.T) {
	router := newTestRouter()

	body := `{"messages":[{"role":"user","content":"Hi!"}]}`
	req := httptest.NewRequest(http.MethodPost, "/conversation", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result agent.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.ConversationID == "" {
		t.Fatal("expected a generated conversation id")
	}
	if result.Reply == "" {
		t.Fatal("expected a non-empty reply")
	}
	if result.State != booking.StateIncomplete {
		t.Fatalf("state = %s, want incomplete", result.State)
	}
}

func TestHandleTurnKeepsSlotsAcrossTurns(t *testing.T) {
	router := newTestRouter()

	post := func(body string) agent.Result {
		req := httptest.NewRequest(http.MethodPost, "/conversation", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var result agent.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return result
	}

	post(`{"conversationId":"conv-1","messages":[{"role":"user","content":"My name is John Smith"}]}`)
	result := post(`{"conversationId":"conv-1","messages":[{"role":"user","content":"next Monday at 2 pm"}]}`)

	slots := make(map[string]string, len(result.Sheet.Known))
	for _, fact := range result.Sheet.Known {
		slots[fact.Slot] = fact.Value
	}
	if slots[facts.SlotName] != "John Smith" {
		t.Fatalf("name = %q, want John Smith", slots[facts.SlotName])
	}
	if _, ok := slots[facts.SlotDate]; !ok {
		t.Fatal("date slot missing after second turn")
	}
	if result.State != booking.StateReady {
		t.Fatalf("state = %s, want ready_to_confirm", result.State)
	}
}

func TestHandleTurnStreamsDeterministicReply(t *testing.T) {
	router := newTestRouter()

	body := `{"conversationId":"conv-1","stream":true,"messages":[{"role":"user","content":"Hi!"}]}`
	req := httptest.NewRequest(http.MethodPost, "/conversation", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	out := rec.Body.String()
	for _, event := range []string{`"event":"start"`, `"event":"message"`, `"event":"facts"`, `"event":"end"`} {
		if !strings.Contains(out, event) {
			t.Fatalf("stream missing %s:\n%s", event, out)
		}
	}
}

func TestHandleFacts(t *testing.T) {
	router := newTestRouter()

	post := httptest.NewRequest(http.MethodPost, "/conversation",
		strings.NewReader(`{"conversationId":"conv-1","messages":[{"role":"user","content":"My name is John Smith"}]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, post)
	if rec.Code != http.StatusOK {
		t.Fatalf("turn status = %d", rec.Code)
	}

	get := httptest.NewRequest(http.MethodGet, "/conversation/conv-1/facts", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, get)
	if rec.Code != http.StatusOK {
		t.Fatalf("facts status = %d", rec.Code)
	}

	var sheet facts.Sheet
	if err := json.Unmarshal(rec.Body.Bytes(), &sheet); err != nil {
		t.Fatalf("decode sheet: %v", err)
	}
	if len(sheet.Known) != 1 || sheet.Known[0].Value != "John Smith" {
		t.Fatalf("known = %+v", sheet.Known)
	}
	if sheet.Booked {
		t.Fatal("fresh conversation must not report booked")
	}
}

package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akillionvoice/callcore/internal/adapter/analysis"
	"github.com/akillionvoice/callcore/internal/adapter/llm"
	"github.com/akillionvoice/callcore/internal/assembler"
	"github.com/akillionvoice/callcore/internal/conversation"
	"github.com/akillionvoice/callcore/internal/directory"
	"github.com/akillionvoice/callcore/internal/policy"
	"github.com/akillionvoice/callcore/internal/router"
	"github.com/akillionvoice/callcore/internal/service"
	"github.com/akillionvoice/callcore/internal/session"
	"github.com/akillionvoice/callcore/internal/store"
	"github.com/akillionvoice/callcore/internal/summary"
	"github.com/akillionvoice/callcore/internal/voicetext"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	dir, err := directory.New(ctx, st, policyEngine)
	if err != nil {
		t.Fatalf("load directory: %v", err)
	}

	client := llm.NewMockClient()
	deps := &session.Deps{
		Router:              router.New(dir, 100, 0.1, "general"),
		Store:               st,
		LLM:                 client,
		Analyzer:            analysis.New(client, "test-model", time.Second),
		Assembler:           assembler.New(10, 500, assembler.DefaultParamsPolicy()),
		Normalizer:          voicetext.New(0),
		Summarizer:          summary.NewGenerator(nil, "", 0),
		Interrupts:          conversation.NewTimingHeuristic(500*time.Millisecond, 3),
		ConversationModel:   "test-model",
		ConversationTimeout: time.Second,
		FallbackPhrase:      "Sorry, could you repeat that?",
		TerminationPhrase:   "Thank you for calling.",
	}

	svc := service.New(session.NewRegistry(deps), dir, nil, nil)
	return NewHandler(svc)
}

func postJSON(e *echo.Echo, target, body string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestCreateCallValidation(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	rec, c := postJSON(e, "/v1/calls", `{"caller_id":"+15550001111"}`)
	if err := h.CreateCall(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateCallSuccess(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	rec, c := postJSON(e, "/v1/calls", `{"call_id":"call-1","caller_id":"+15550001111"}`)
	if err := h.CreateCall(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var info map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info["call_id"] != "call-1" || info["is_active"] != true {
		t.Fatalf("unexpected response: %v", info)
	}
}

func TestRouteCall(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	rec, c := postJSON(e, "/v1/calls/call-1/route", `{"caller_id":"+15550001111","utterance":"I need help with my invoice"}`)
	c.SetParamNames("call_id")
	c.SetParamValues("call-1")

	if err := h.RouteCall(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var decision map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &decision); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decision["agent_type"] != "billing" {
		t.Fatalf("agent_type = %v, want billing", decision["agent_type"])
	}
}

func TestProcessTurnNotFound(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	rec, c := postJSON(e, "/v1/calls/missing/turn", `{"utterance":"hello"}`)
	c.SetParamNames("call_id")
	c.SetParamValues("missing")

	if err := h.ProcessTurn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProcessTurnSuccess(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	_, c := postJSON(e, "/v1/calls", `{"call_id":"call-1","caller_id":"+15550001111"}`)
	if err := h.CreateCall(c); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec, c := postJSON(e, "/v1/calls/call-1/turn", `{"utterance":"when is my payment due?"}`)
	c.SetParamNames("call_id")
	c.SetParamValues("call-1")

	if err := h.ProcessTurn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp TurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply == "" {
		t.Fatal("empty reply")
	}
}

func TestEndCall(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	_, c := postJSON(e, "/v1/calls", `{"call_id":"call-1","caller_id":"+15550001111"}`)
	if err := h.CreateCall(c); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec, c := postJSON(e, "/v1/calls/call-1/end", `{"status":"completed"}`)
	c.SetParamNames("call_id")
	c.SetParamValues("call-1")

	if err := h.EndCall(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var report map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report["status"] != "completed" {
		t.Fatalf("status = %v", report["status"])
	}

	// Ending again is a 404: the registry removed the session.
	rec, c = postJSON(e, "/v1/calls/call-1/end", `{"status":"completed"}`)
	c.SetParamNames("call_id")
	c.SetParamValues("call-1")
	if err := h.EndCall(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEndCallInvalidStatus(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	rec, c := postJSON(e, "/v1/calls/call-1/end", `{"status":"exploded"}`)
	c.SetParamNames("call_id")
	c.SetParamValues("call-1")

	if err := h.EndCall(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListActiveCalls(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	_, c := postJSON(e, "/v1/calls", `{"call_id":"call-1","caller_id":"+15550001111"}`)
	if err := h.CreateCall(c); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/active", nil)
	rec := httptest.NewRecorder()
	if err := h.ListActiveCalls(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["count"].(float64) != 1 {
		t.Fatalf("count = %v, want 1", resp["count"])
	}
}

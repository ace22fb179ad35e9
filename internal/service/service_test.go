package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/akillionvoice/callcore/internal/adapter/analysis"
	"github.com/akillionvoice/callcore/internal/adapter/llm"
	"github.com/akillionvoice/callcore/internal/assembler"
	"github.com/akillionvoice/callcore/internal/conversation"
	"github.com/akillionvoice/callcore/internal/directory"
	"github.com/akillionvoice/callcore/internal/domain"
	"github.com/akillionvoice/callcore/internal/router"
	"github.com/akillionvoice/callcore/internal/session"
	"github.com/akillionvoice/callcore/internal/store"
	"github.com/akillionvoice/callcore/internal/summary"
	"github.com/akillionvoice/callcore/internal/voicetext"
)

// recordingPublisher captures events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	dir, err := directory.New(context.Background(), st, nil)
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

	pub := &recordingPublisher{}
	return New(session.NewRegistry(deps), dir, nil, pub), pub
}

func TestCallLifecycle(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	info := svc.CreateSession("call-1", "+15550001111")
	if !info.IsActive || info.CallID != "call-1" {
		t.Fatalf("unexpected session info: %+v", info)
	}

	decision := svc.RouteCall(ctx, "call-1", "+15550001111", "I need help with my invoice")
	if decision.AgentType != "billing" {
		t.Fatalf("agent type = %s, want billing", decision.AgentType)
	}

	reply, err := svc.ProcessTurn(ctx, "call-1", "when is my payment due?")
	if err != nil {
		t.Fatal(err)
	}
	if reply == "" {
		t.Fatal("empty reply")
	}

	report, err := svc.EndCall(ctx, "call-1", domain.CallStatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if report.TurnCount != 1 || report.Summary == nil {
		t.Fatalf("unexpected report: %+v", report)
	}

	want := []string{EventCallStarted, EventCallRouted, EventTurnProcessed, EventCallEnded}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestRouteCallCreatesSession(t *testing.T) {
	svc, _ := newTestService(t)

	decision := svc.RouteCall(context.Background(), "call-9", "+15550009999", "hello")
	if decision.AgentType != "general" {
		t.Fatalf("agent type = %s, want general", decision.AgentType)
	}
	if len(svc.ListActive()) != 1 {
		t.Fatal("RouteCall should create the missing session")
	}
}

func TestProcessTurnUnknownCall(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.ProcessTurn(context.Background(), "nope", "hello"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.EndCall(context.Background(), "nope", domain.CallStatusCompleted); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestAgentOperations(t *testing.T) {
	svc, _ := newTestService(t)

	agents := svc.ListAgents()
	if len(agents) != 5 {
		t.Fatalf("agent count = %d, want 5", len(agents))
	}

	profile, err := svc.GetAgent("billing")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Name != "Billing Specialist" {
		t.Fatalf("name = %s", profile.Name)
	}

	if _, err := svc.GetAgent("missing"); err == nil {
		t.Fatal("expected error for unknown agent type")
	}

	name := "Invoicing Desk"
	if err := svc.UpdateAgent(context.Background(), "billing", &domain.ProfileUpdate{Name: &name}); err != nil {
		t.Fatal(err)
	}
	profile, err = svc.GetAgent("billing")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Name != "Invoicing Desk" {
		t.Fatalf("name after update = %s", profile.Name)
	}

	stats := svc.RoutingStats()
	if stats.TotalAgents != 5 {
		t.Fatalf("total agents = %d", stats.TotalAgents)
	}
	if stats.AgentDetails["billing"].Name != "Invoicing Desk" {
		t.Fatalf("stats not refreshed: %+v", stats.AgentDetails["billing"])
	}
}

package session

import (
	"context"
	"sync"
	"testing"

	"github.com/akillionvoice/callcore/internal/domain"
)

func TestCreateIdempotent(t *testing.T) {
	reg := NewRegistry(newTestDeps(t, &countingClient{reply: "Hi."}))

	first := reg.Create("call-1", "+15550001111")
	second := reg.Create("call-1", "+15559992222")
	if first != second {
		t.Fatal("duplicate create must return the existing session")
	}
	if reg.Len() != 1 {
		t.Fatalf("registry holds %d sessions, want 1", reg.Len())
	}
}

func TestCreateConcurrent(t *testing.T) {
	reg := NewRegistry(newTestDeps(t, &countingClient{reply: "Hi."}))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sessions = make(map[*Session]struct{})
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := reg.Create("call-1", "+15550001111")
			mu.Lock()
			sessions[s] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(sessions) != 1 {
		t.Fatalf("got %d distinct sessions for one call id", len(sessions))
	}
	if reg.Len() != 1 {
		t.Fatalf("registry holds %d sessions, want 1", reg.Len())
	}
}

func TestEndRemovesSession(t *testing.T) {
	reg := NewRegistry(newTestDeps(t, &countingClient{reply: "Bye."}))
	s := reg.Create("call-1", "+15550001111")
	s.Route(context.Background(), "hello")

	report, ok := reg.End(context.Background(), "call-1", domain.CallStatusCompleted)
	if !ok {
		t.Fatal("End should find the session")
	}
	if report.CallID != "call-1" {
		t.Fatalf("report call id = %s", report.CallID)
	}
	if _, ok := reg.Get("call-1"); ok {
		t.Fatal("session should be removed after End")
	}

	if _, ok := reg.End(context.Background(), "call-1", domain.CallStatusCompleted); ok {
		t.Fatal("ending a removed session should report absence")
	}
}

func TestListActive(t *testing.T) {
	reg := NewRegistry(newTestDeps(t, &countingClient{reply: "Hi."}))
	reg.Create("call-1", "+15550001111").Route(context.Background(), "billing question")
	reg.Create("call-2", "+15550002222").Route(context.Background(), "hello")

	infos := reg.ListActive()
	if len(infos) != 2 {
		t.Fatalf("got %d active sessions, want 2", len(infos))
	}
	byID := make(map[string]domain.SessionInfo)
	for _, info := range infos {
		byID[info.CallID] = info
	}
	if byID["call-1"].AgentType != "billing" {
		t.Fatalf("call-1 agent = %s, want billing", byID["call-1"].AgentType)
	}
	if !byID["call-2"].IsActive {
		t.Fatal("call-2 should be active")
	}
}

func TestCleanupInactive(t *testing.T) {
	reg := NewRegistry(newTestDeps(t, &countingClient{reply: "Bye."}))
	s1 := reg.Create("call-1", "+15550001111")
	reg.Create("call-2", "+15550002222")

	// Ended directly on the session, bypassing the registry.
	s1.EndCall(context.Background(), domain.CallStatusAbandoned)

	if removed := reg.CleanupInactive(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := reg.Get("call-1"); ok {
		t.Fatal("inactive session should be swept")
	}
	if _, ok := reg.Get("call-2"); !ok {
		t.Fatal("active session should survive the sweep")
	}
}

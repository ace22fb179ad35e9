package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/akillionvoice/callcore/internal/domain"
	"github.com/akillionvoice/callcore/internal/policy"
	"github.com/akillionvoice/callcore/internal/store"
)

// flakyStore wraps a real store and fails listing on demand, to exercise the
// keep-previous-snapshot behavior.
type flakyStore struct {
	store.Store
	failList bool
}

func (f *flakyStore) ListAgentProfiles(ctx context.Context) ([]domain.AgentProfile, error) {
	if f.failList {
		return nil, errors.New("config store unreachable")
	}
	return f.Store.ListAgentProfiles(ctx)
}

func newTestDirectory(t *testing.T) (*Directory, *flakyStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fs := &flakyStore{Store: st}
	pol, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to create policy engine: %v", err)
	}
	d, err := New(context.Background(), fs, pol)
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	return d, fs
}

func TestDirectoryGetAllPreservesInsertionOrder(t *testing.T) {
	d, _ := newTestDirectory(t)

	all := d.GetAll()
	if len(all) != 5 {
		t.Fatalf("expected 5 profiles, got %d", len(all))
	}
	if all[0].AgentType != "billing" || all[len(all)-1].AgentType != "general" {
		t.Fatalf("unexpected order: first=%s last=%s", all[0].AgentType, all[len(all)-1].AgentType)
	}
}

func TestDirectoryGetReturnsCopies(t *testing.T) {
	d, _ := newTestDirectory(t)

	p, ok := d.Get("billing")
	if !ok {
		t.Fatal("billing profile missing")
	}
	p.Keywords[0] = "mutated"

	p2, _ := d.Get("billing")
	if p2.Keywords[0] == "mutated" {
		t.Fatal("Get leaked mutable snapshot state")
	}
}

func TestDirectoryReloadKeepsSnapshotOnFailure(t *testing.T) {
	d, fs := newTestDirectory(t)

	fs.failList = true
	if err := d.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}

	// Previous snapshot must still serve reads.
	if _, ok := d.Get("billing"); !ok {
		t.Fatal("snapshot lost after failed reload")
	}
	if got := d.Stats().TotalAgents; got != 5 {
		t.Fatalf("stats from stale snapshot = %d agents", got)
	}
}

func TestDirectoryUpdateAppliesFields(t *testing.T) {
	d, _ := newTestDirectory(t)

	name := "Billing Desk"
	priority := 4
	err := d.Update(context.Background(), "billing", &domain.ProfileUpdate{
		Name:     &name,
		Priority: &priority,
		Keywords: []string{"invoice", "refund"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	p, _ := d.Get("billing")
	if p.Name != "Billing Desk" || p.Priority != 4 || len(p.Keywords) != 2 {
		t.Fatalf("update not applied: %+v", p)
	}
}

func TestDirectoryUpdateBlockedByPolicy(t *testing.T) {
	d, _ := newTestDirectory(t)

	turns := 999
	err := d.Update(context.Background(), "billing", &domain.ProfileUpdate{MaxTurns: &turns})
	if err == nil {
		t.Fatal("expected policy block")
	}

	p, _ := d.Get("billing")
	if p.MaxTurns == 999 {
		t.Fatal("blocked update was applied")
	}
}

func TestDirectoryUpdateUnknownAgent(t *testing.T) {
	d, _ := newTestDirectory(t)

	name := "x"
	err := d.Update(context.Background(), "missing", &domain.ProfileUpdate{Name: &name})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDirectoryStats(t *testing.T) {
	d, _ := newTestDirectory(t)

	stats := d.Stats()
	if stats.TotalAgents != 5 || len(stats.AvailableAgents) != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	detail, ok := stats.AgentDetails["billing"]
	if !ok || detail.Priority != 2 || detail.KeywordsCount == 0 {
		t.Fatalf("unexpected billing detail: %+v", detail)
	}
}

// Package directory holds the read-mostly store of agent profiles.
package directory

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/akillionvoice/callcore/internal/domain"
	"github.com/akillionvoice/callcore/internal/policy"
	"github.com/akillionvoice/callcore/internal/store"
)

// snapshot is one immutable view of the directory. Readers always see a whole
// snapshot; Reload swaps the pointer atomically.
type snapshot struct {
	order    []string
	profiles map[string]*domain.AgentProfile
}

// Directory is the agent-profile configuration store. All reads go through
// the current snapshot; updates go to the backing store and then reload.
type Directory struct {
	store  store.Store
	policy *policy.Engine
	snap   atomic.Pointer[snapshot]
}

// New creates a directory and loads the initial snapshot from the store.
func New(ctx context.Context, st store.Store, pol *policy.Engine) (*Directory, error) {
	d := &Directory{store: st, policy: pol}
	d.snap.Store(&snapshot{profiles: map[string]*domain.AgentProfile{}})
	if err := d.Reload(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload replaces the active snapshot with a fresh load from the store. On
// failure the previous snapshot is retained and the error reported; readers
// never observe a partially updated directory.
func (d *Directory) Reload(ctx context.Context) error {
	profiles, err := d.store.ListAgentProfiles(ctx)
	if err != nil {
		log.Printf("WARN: directory reload failed, keeping previous snapshot: %v", err)
		return fmt.Errorf("failed to reload agent directory: %w", err)
	}

	snap := &snapshot{
		order:    make([]string, 0, len(profiles)),
		profiles: make(map[string]*domain.AgentProfile, len(profiles)),
	}
	for i := range profiles {
		p := profiles[i]
		snap.order = append(snap.order, p.AgentType)
		snap.profiles[p.AgentType] = &p
	}
	d.snap.Store(snap)
	log.Printf("Loaded %d agent profiles", len(profiles))
	return nil
}

// Get returns a copy of one profile.
func (d *Directory) Get(agentType string) (*domain.AgentProfile, bool) {
	snap := d.snap.Load()
	p, ok := snap.profiles[agentType]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// GetAll returns copies of all profiles in insertion order. The order is
// stable so routing tie-breaks are reproducible.
func (d *Directory) GetAll() []*domain.AgentProfile {
	snap := d.snap.Load()
	out := make([]*domain.AgentProfile, 0, len(snap.order))
	for _, agentType := range snap.order {
		out = append(out, snap.profiles[agentType].Clone())
	}
	return out
}

// Update applies a partial update to one profile after a policy check, then
// reloads the snapshot.
func (d *Directory) Update(ctx context.Context, agentType string, update *domain.ProfileUpdate) error {
	if d.policy != nil {
		decision, reason, err := d.policy.Evaluate(ctx, policyInput(agentType, update))
		if err != nil {
			return fmt.Errorf("config policy evaluation failed: %w", err)
		}
		if decision != "allow" {
			return fmt.Errorf("config update blocked by policy: %s", reason)
		}
	}

	current, err := d.store.GetAgentProfile(ctx, agentType)
	if err != nil {
		return fmt.Errorf("failed to load profile %s: %w", agentType, err)
	}

	applyUpdate(current, update)
	if err := d.store.SaveAgentProfile(ctx, current); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", agentType, err)
	}

	if err := d.Reload(ctx); err != nil {
		return err
	}
	log.Printf("Updated agent configuration for %s", agentType)
	return nil
}

// Stats describes the loaded directory.
func (d *Directory) Stats() domain.RoutingStats {
	snap := d.snap.Load()
	stats := domain.RoutingStats{
		TotalAgents:     len(snap.order),
		AvailableAgents: append([]string(nil), snap.order...),
		AgentDetails:    make(map[string]domain.AgentDetail, len(snap.order)),
	}
	for _, agentType := range snap.order {
		p := snap.profiles[agentType]
		stats.AgentDetails[agentType] = domain.AgentDetail{
			Name:          p.Name,
			KeywordsCount: len(p.Keywords),
			Priority:      p.Priority,
		}
	}
	return stats
}

func applyUpdate(p *domain.AgentProfile, u *domain.ProfileUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.SystemPrompt != nil {
		p.SystemPrompt = *u.SystemPrompt
	}
	if u.Keywords != nil {
		p.Keywords = append([]string(nil), u.Keywords...)
	}
	if u.Priority != nil {
		p.Priority = *u.Priority
	}
	if u.MaxTurns != nil {
		p.MaxTurns = *u.MaxTurns
	}
	if u.TimeoutSeconds != nil {
		p.Timeout = time.Duration(*u.TimeoutSeconds) * time.Second
	}
	if u.FollowUpTemplate != nil {
		p.FollowUpTemplate = *u.FollowUpTemplate
	}
}

func policyInput(agentType string, u *domain.ProfileUpdate) map[string]interface{} {
	fields := map[string]interface{}{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.SystemPrompt != nil {
		fields["system_prompt"] = *u.SystemPrompt
	}
	if u.Keywords != nil {
		fields["keywords"] = u.Keywords
	}
	if u.Priority != nil {
		fields["priority"] = *u.Priority
	}
	if u.MaxTurns != nil {
		fields["max_turns"] = *u.MaxTurns
	}
	if u.TimeoutSeconds != nil {
		fields["timeout_seconds"] = *u.TimeoutSeconds
	}
	if u.FollowUpTemplate != nil {
		fields["follow_up_template"] = *u.FollowUpTemplate
	}
	return map[string]interface{}{
		"agent_type": agentType,
		"fields":     fields,
	}
}

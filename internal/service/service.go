// Package service exposes the call-orchestration operations consumed by the
// HTTP and websocket transports.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akillionvoice/callcore/internal/adapter/followup"
	"github.com/akillionvoice/callcore/internal/directory"
	"github.com/akillionvoice/callcore/internal/domain"
	"github.com/akillionvoice/callcore/internal/session"
)

// ErrSessionNotFound is returned when an operation names an unknown call.
var ErrSessionNotFound = errors.New("session not found")

// followUpTimeout bounds the fire-and-forget webhook dispatch after a call.
const followUpTimeout = 15 * time.Second

// Service wires the session registry, agent directory, follow-up messaging,
// and the event feed behind one API.
type Service struct {
	registry  *session.Registry
	directory *directory.Directory
	followUp  *followup.Notifier
	events    EventPublisher
}

// New creates the service. followUp and events may be nil.
func New(registry *session.Registry, dir *directory.Directory, fu *followup.Notifier, events EventPublisher) *Service {
	return &Service{
		registry:  registry,
		directory: dir,
		followUp:  fu,
		events:    events,
	}
}

// CreateSession creates (or returns) the session for a call.
func (s *Service) CreateSession(callID, callerID string) domain.SessionInfo {
	sess := s.registry.Create(callID, callerID)
	info := sess.Info()
	s.publish(EventCallStarted, callID, map[string]interface{}{
		"caller_id": callerID,
	})
	return info
}

// RouteCall routes the call's first utterance, creating the session if the
// telephony layer skipped the explicit create step.
func (s *Service) RouteCall(ctx context.Context, callID, callerID, utterance string) *domain.RoutingDecision {
	sess, ok := s.registry.Get(callID)
	if !ok {
		sess = s.registry.Create(callID, callerID)
	}
	decision := sess.Route(ctx, utterance)
	s.publish(EventCallRouted, callID, map[string]interface{}{
		"agent_type":       decision.AgentType,
		"confidence":       decision.Confidence,
		"matched_keywords": decision.MatchedKeywords,
	})
	return decision
}

// ProcessTurn handles one caller utterance for a live call.
func (s *Service) ProcessTurn(ctx context.Context, callID, utterance string) (string, error) {
	sess, ok := s.registry.Get(callID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, callID)
	}
	reply, err := sess.ProcessTurn(ctx, utterance)
	if err != nil {
		return "", err
	}
	s.publish(EventTurnProcessed, callID, map[string]interface{}{
		"turn_count": sess.Info().TurnCount,
	})
	return reply, nil
}

// EndCall finalizes the call, removes it from the registry, and dispatches
// the follow-up message in the background.
func (s *Service) EndCall(ctx context.Context, callID string, status domain.CallStatus) (*domain.CallReport, error) {
	report, ok := s.registry.End(ctx, callID, status)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, callID)
	}

	s.dispatchFollowUp(report)
	s.publish(EventCallEnded, callID, map[string]interface{}{
		"status":     string(report.Status),
		"turn_count": report.TurnCount,
		"duration_s": report.Duration.Seconds(),
	})
	return report, nil
}

// dispatchFollowUp sends the post-call message without holding up the hangup
// path. The notifier itself never reports failure upward.
func (s *Service) dispatchFollowUp(report *domain.CallReport) {
	if s.followUp == nil {
		return
	}
	var profile *domain.AgentProfile
	if p, ok := s.directory.Get(report.AgentType); ok {
		profile = p
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), followUpTimeout)
		defer cancel()
		s.followUp.SendFollowUp(ctx, profile, report)
	}()
}

// ListActive returns snapshots of all live sessions.
func (s *Service) ListActive() []domain.SessionInfo {
	return s.registry.ListActive()
}

// CleanupInactive sweeps sessions that ended without a registry removal.
func (s *Service) CleanupInactive() int {
	return s.registry.CleanupInactive()
}

// ListAgents returns every agent profile in the directory.
func (s *Service) ListAgents() []*domain.AgentProfile {
	return s.directory.GetAll()
}

// GetAgent returns one agent profile.
func (s *Service) GetAgent(agentType string) (*domain.AgentProfile, error) {
	profile, ok := s.directory.Get(agentType)
	if !ok {
		return nil, fmt.Errorf("unknown agent type: %s", agentType)
	}
	return profile, nil
}

// UpdateAgent applies a partial profile update after the policy check.
func (s *Service) UpdateAgent(ctx context.Context, agentType string, update *domain.ProfileUpdate) error {
	return s.directory.Update(ctx, agentType, update)
}

// RoutingStats describes the loaded agent directory.
func (s *Service) RoutingStats() domain.RoutingStats {
	return s.directory.Stats()
}

// ReloadDirectory swaps in a fresh directory snapshot.
func (s *Service) ReloadDirectory(ctx context.Context) error {
	return s.directory.Reload(ctx)
}

// Package store provides persistence for calls, turns, summaries, and agent
// profiles.
package store

import (
	"context"
	"errors"

	"github.com/akillionvoice/callcore/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations the core depends on. The contract
// is intentionally small: a call has turns, a turn has role, text, and a
// timestamp.
type Store interface {
	// Agent profiles
	ListAgentProfiles(ctx context.Context) ([]domain.AgentProfile, error)
	GetAgentProfile(ctx context.Context, agentType string) (*domain.AgentProfile, error)
	SaveAgentProfile(ctx context.Context, profile *domain.AgentProfile) error

	// Calls
	CreateCall(ctx context.Context, call *domain.CallRecord) error
	GetCall(ctx context.Context, callID string) (*domain.CallRecord, error)
	FinalizeCall(ctx context.Context, callID string, status domain.CallStatus, durationSeconds float64, turnCount int, summary string) error

	// Turns
	CreateTurn(ctx context.Context, turn *domain.ConversationTurn) error
	GetTurns(ctx context.Context, callID string) ([]domain.ConversationTurn, error)

	// Summaries
	SaveSummary(ctx context.Context, callID string, report *domain.SummaryReport) error

	Close() error
}

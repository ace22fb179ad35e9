// Package session binds one call to its routing decision, conversation state,
// and turn history, and drives turn processing end to end.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akillionvoice/callcore/internal/adapter/analysis"
	"github.com/akillionvoice/callcore/internal/adapter/knowledge"
	"github.com/akillionvoice/callcore/internal/adapter/llm"
	"github.com/akillionvoice/callcore/internal/assembler"
	"github.com/akillionvoice/callcore/internal/conversation"
	"github.com/akillionvoice/callcore/internal/domain"
	"github.com/akillionvoice/callcore/internal/router"
	"github.com/akillionvoice/callcore/internal/store"
	"github.com/akillionvoice/callcore/internal/summary"
	"github.com/akillionvoice/callcore/internal/voicetext"
)

// ErrSessionEnded is returned when a turn arrives for an ended session.
var ErrSessionEnded = errors.New("session has ended")

// defaultMaxTurns applies when the routed profile does not set a limit.
const defaultMaxTurns = 20

// defaultKnowledgeLimit bounds how many passages are fetched per turn.
const defaultKnowledgeLimit = 5

// Deps collects the collaborators a session needs. Knowledge is optional;
// everything else is required.
type Deps struct {
	Router     *router.Router
	Store      store.Store
	LLM        llm.LLMClient
	Analyzer   *analysis.Analyzer
	Assembler  *assembler.Assembler
	Normalizer *voicetext.Normalizer
	Summarizer *summary.Generator
	Knowledge  knowledge.Retriever
	Interrupts conversation.InterruptionDetector

	ConversationModel   string
	ConversationTimeout time.Duration
	KnowledgeLimit      int

	FallbackPhrase    string
	TerminationPhrase string
}

// Session is the live record of one call. All methods are safe for concurrent
// use; a single mutex serializes turns within the call.
type Session struct {
	mu sync.Mutex

	callID    string
	callerID  string
	createdAt time.Time
	deps      *Deps

	decision *domain.RoutingDecision
	state    *conversation.State
	history  []domain.ConversationTurn
	maxTurns int
	active   bool

	lastAgentReply time.Time
	report         *domain.CallReport
}

func newSession(callID, callerID string, deps *Deps) *Session {
	return &Session{
		callID:    callID,
		callerID:  callerID,
		createdAt: time.Now(),
		deps:      deps,
		state:     conversation.NewState(callID),
		maxTurns:  defaultMaxTurns,
		active:    true,
	}
}

// Route runs the intent router once on the initial utterance and persists the
// call record. A routing failure fails open to the default agent profile and
// never aborts the call. Calling Route again returns the stored decision.
func (s *Session) Route(ctx context.Context, initialUtterance string) *domain.RoutingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routeLocked(ctx, initialUtterance)
}

func (s *Session) routeLocked(ctx context.Context, utterance string) *domain.RoutingDecision {
	if s.decision != nil {
		return s.decision
	}

	decision, err := s.deps.Router.Route(s.callID, utterance, s.callerID)
	if err != nil {
		log.Printf("WARN: routing failed for call %s, using default agent: %v", s.callID, err)
		decision = s.defaultDecision()
	}
	s.decision = decision
	if decision.Profile != nil && decision.Profile.MaxTurns > 0 {
		s.maxTurns = decision.Profile.MaxTurns
	}

	if err := s.deps.Store.CreateCall(ctx, &domain.CallRecord{
		CallID:            s.callID,
		CallerID:          s.callerID,
		AgentType:         decision.AgentType,
		RoutingConfidence: decision.Confidence,
		RoutingKeywords:   decision.MatchedKeywords,
		Status:            domain.CallStatusActive,
		StartedAt:         s.createdAt,
	}); err != nil {
		log.Printf("WARN: failed to persist call %s: %v", s.callID, err)
	}
	return decision
}

// defaultDecision is the last-resort routing outcome when even the router
// errors. The profile may be nil; turn processing tolerates that.
func (s *Session) defaultDecision() *domain.RoutingDecision {
	decision := &domain.RoutingDecision{AgentType: "general", Confidence: 0}
	if profile, err := s.deps.Router.DefaultProfile(); err == nil {
		decision.AgentType = profile.AgentType
		decision.Profile = profile
	}
	return decision
}

// ProcessTurn handles one caller utterance and returns the agent's reply.
// Provider failures surface as the configured fallback phrase, not an error;
// the only error here is calling into an ended session.
func (s *Session) ProcessTurn(ctx context.Context, utterance string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return "", ErrSessionEnded
	}
	if s.decision == nil {
		s.routeLocked(ctx, utterance)
	}

	if s.state.TurnCount >= s.maxTurns {
		return s.deps.TerminationPhrase, nil
	}

	now := time.Now()
	interrupted := false
	if s.deps.Interrupts != nil && !s.lastAgentReply.IsZero() {
		interrupted = s.deps.Interrupts.Detect(now.Sub(s.lastAgentReply), utterance)
	}
	s.state.Interrupted = interrupted

	prior := s.history
	s.appendTurn(ctx, domain.RoleCaller, utterance)

	turnAnalysis := s.deps.Analyzer.Analyze(ctx, utterance)
	passages := s.retrieveKnowledge(ctx, utterance)

	messages := s.deps.Assembler.Build(assembler.Input{
		Profile:     s.profile(),
		State:       s.state,
		History:     prior,
		Analysis:    turnAnalysis,
		Interrupted: interrupted,
		Knowledge:   passages,
		Utterance:   utterance,
	})
	temperature, maxTokens := s.deps.Assembler.GenerationParams(s.state)

	callCtx, cancel := context.WithTimeout(ctx, s.deps.ConversationTimeout)
	defer cancel()
	resp, err := s.deps.LLM.CreateChatCompletion(callCtx, &llm.ChatCompletionRequest{
		Model:       s.deps.ConversationModel,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil || resp.ResponseText() == "" {
		if err != nil {
			log.Printf("WARN: provider call failed for call %s: %v", s.callID, err)
		}
		// The caller still hears a real answer; the turn does not count
		// against max_turns and the state tracker is left untouched.
		reply := s.deps.FallbackPhrase
		s.appendTurn(ctx, domain.RoleAgent, reply)
		s.lastAgentReply = time.Now()
		return reply, nil
	}

	reply := s.deps.Normalizer.Normalize(resp.ResponseText())
	s.appendTurn(ctx, domain.RoleAgent, reply)
	s.state.Update(utterance, reply, turnAnalysis)
	s.lastAgentReply = time.Now()
	return reply, nil
}

// EndCall marks the session inactive, generates the summary, and persists the
// final status. Idempotent: a second call returns the cached report.
func (s *Session) EndCall(ctx context.Context, status domain.CallStatus) *domain.CallReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report != nil {
		return s.report
	}
	s.active = false

	duration := time.Since(s.createdAt)
	report := s.deps.Summarizer.Generate(ctx, s.history, s.state)

	agentType := "general"
	if s.decision != nil {
		agentType = s.decision.AgentType
	}
	s.report = &domain.CallReport{
		CallID:    s.callID,
		CallerID:  s.callerID,
		AgentType: agentType,
		Status:    status,
		Duration:  duration,
		TurnCount: s.state.TurnCount,
		Summary:   report,
	}

	if err := s.deps.Store.FinalizeCall(ctx, s.callID, status, duration.Seconds(), s.state.TurnCount, report.Summary); err != nil {
		log.Printf("WARN: failed to finalize call %s: %v", s.callID, err)
	}
	if err := s.deps.Store.SaveSummary(ctx, s.callID, report); err != nil {
		log.Printf("WARN: failed to persist summary for call %s: %v", s.callID, err)
	}
	return s.report
}

// Info returns a read-only snapshot of the session.
func (s *Session) Info() domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := domain.SessionInfo{
		CallID:    s.callID,
		CallerID:  s.callerID,
		AgentType: "general",
		TurnCount: s.state.TurnCount,
		MaxTurns:  s.maxTurns,
		IsActive:  s.active,
		Phase:     s.state.Phase,
		CreatedAt: s.createdAt,
	}
	if s.decision != nil {
		info.AgentType = s.decision.AgentType
		info.RoutingConfidence = s.decision.Confidence
		info.MatchedKeywords = append([]string(nil), s.decision.MatchedKeywords...)
	}
	return info
}

// Decision returns the routing decision, or nil before routing.
func (s *Session) Decision() *domain.RoutingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decision
}

// IsActive reports whether the session still accepts turns.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// History returns a copy of the turn list.
func (s *Session) History() []domain.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ConversationTurn(nil), s.history...)
}

func (s *Session) profile() *domain.AgentProfile {
	if s.decision != nil {
		return s.decision.Profile
	}
	return nil
}

// appendTurn records a turn in memory and persists it best-effort.
func (s *Session) appendTurn(ctx context.Context, role domain.Role, text string) {
	turn := domain.ConversationTurn{
		TurnID:    uuid.New().String(),
		CallID:    s.callID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.history = append(s.history, turn)
	if err := s.deps.Store.CreateTurn(ctx, &turn); err != nil {
		log.Printf("WARN: failed to persist turn for call %s: %v", s.callID, err)
	}
}

func (s *Session) retrieveKnowledge(ctx context.Context, query string) []knowledge.Passage {
	if s.deps.Knowledge == nil || s.decision == nil {
		return nil
	}
	limit := s.deps.KnowledgeLimit
	if limit <= 0 {
		limit = defaultKnowledgeLimit
	}
	passages, err := s.deps.Knowledge.Retrieve(ctx, s.decision.AgentType, query, limit)
	if err != nil {
		log.Printf("WARN: knowledge retrieval failed for call %s: %v", s.callID, err)
		return nil
	}
	return passages
}

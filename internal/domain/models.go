package domain

import "time"

// AgentProfile is the configuration bundle for one specialized conversational
// persona. Profiles are immutable for the duration of a call; the directory
// refreshes them only by swapping a whole snapshot.
type AgentProfile struct {
	AgentType        string        `json:"agent_type"`
	Name             string        `json:"name"`
	Description      string        `json:"description,omitempty"`
	SystemPrompt     string        `json:"system_prompt"`
	Keywords         []string      `json:"keywords"`
	Priority         int           `json:"priority"`
	MaxTurns         int           `json:"max_turns"`
	Timeout          time.Duration `json:"timeout"`
	FollowUpTemplate string        `json:"follow_up_template,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Clone returns a deep copy of the profile so snapshot entries stay immutable.
func (p *AgentProfile) Clone() *AgentProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Keywords = append([]string(nil), p.Keywords...)
	return &cp
}

// ProfileUpdate carries a partial update to an agent profile. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Name             *string  `json:"name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	SystemPrompt     *string  `json:"system_prompt,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	Priority         *int     `json:"priority,omitempty"`
	MaxTurns         *int     `json:"max_turns,omitempty"`
	TimeoutSeconds   *int     `json:"timeout_seconds,omitempty"`
	FollowUpTemplate *string  `json:"follow_up_template,omitempty"`
}

// RoutingDecision is the one-time outcome of matching an inbound call to an
// agent profile. It is assigned before turn 1 and never changes afterwards.
type RoutingDecision struct {
	AgentType       string        `json:"agent_type"`
	Confidence      float64       `json:"confidence"`
	MatchedKeywords []string      `json:"matched_keywords"`
	Profile         *AgentProfile `json:"-"`
}

// ConversationTurn is a single utterance in a call, append-only.
type ConversationTurn struct {
	TurnID    string    `json:"turn_id"`
	CallID    string    `json:"call_id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CallRecord is the persisted representation of one call.
type CallRecord struct {
	CallID            string     `json:"call_id"`
	CallerID          string     `json:"caller_id"`
	AgentType         string     `json:"agent_type"`
	RoutingConfidence float64    `json:"routing_confidence"`
	RoutingKeywords   []string   `json:"routing_keywords,omitempty"`
	Status            CallStatus `json:"status"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	DurationSeconds   float64    `json:"duration_seconds,omitempty"`
	TurnCount         int        `json:"turn_count"`
	Summary           string     `json:"summary,omitempty"`
}

// SummaryReport is the end-of-call summary used for follow-up messaging.
type SummaryReport struct {
	Summary          string           `json:"summary"`
	KeyTopics        []string         `json:"key_topics"`
	Sentiment        Sentiment        `json:"sentiment"`
	ResolutionStatus ResolutionStatus `json:"resolution_status"`
	TurnCount        int              `json:"turn_count"`
}

// CallReport is returned when a call ends.
type CallReport struct {
	CallID    string         `json:"call_id"`
	CallerID  string         `json:"caller_id"`
	AgentType string         `json:"agent_type"`
	Status    CallStatus     `json:"status"`
	Duration  time.Duration  `json:"duration"`
	TurnCount int            `json:"turn_count"`
	Summary   *SummaryReport `json:"summary"`
}

// SessionInfo is a read-only snapshot of a live call session. It never exposes
// mutable internals.
type SessionInfo struct {
	CallID            string    `json:"call_id"`
	CallerID          string    `json:"caller_id"`
	AgentType         string    `json:"agent_type"`
	TurnCount         int       `json:"turn_count"`
	MaxTurns          int       `json:"max_turns"`
	IsActive          bool      `json:"is_active"`
	RoutingConfidence float64   `json:"routing_confidence"`
	MatchedKeywords   []string  `json:"matched_keywords,omitempty"`
	Phase             Phase     `json:"phase"`
	CreatedAt         time.Time `json:"created_at"`
}

// RoutingStats describes the agent directory for reporting.
type RoutingStats struct {
	TotalAgents     int                    `json:"total_agents"`
	AvailableAgents []string               `json:"available_agents"`
	AgentDetails    map[string]AgentDetail `json:"agent_details"`
}

// AgentDetail is one entry in RoutingStats.
type AgentDetail struct {
	Name          string `json:"name"`
	KeywordsCount int    `json:"keywords_count"`
	Priority      int    `json:"priority"`
}

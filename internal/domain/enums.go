// Package domain defines the core domain models for the call-orchestration core.
package domain

// Phase represents the coarse stage of a conversation.
type Phase string

const (
	PhaseGreeting   Phase = "greeting"
	PhaseDiscovery  Phase = "discovery"
	PhaseResolution Phase = "resolution"
	PhaseClosing    Phase = "closing"
)

// ValidPhase reports whether p is one of the known conversation phases.
func ValidPhase(p Phase) bool {
	switch p {
	case PhaseGreeting, PhaseDiscovery, PhaseResolution, PhaseClosing:
		return true
	}
	return false
}

// Sentiment represents the tone of a caller utterance.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ValidSentiment reports whether s is one of the known sentiment labels.
func ValidSentiment(s Sentiment) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Urgency represents the urgency level assigned by turn analysis.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ValidUrgency reports whether u is one of the known urgency levels.
func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleCaller Role = "caller"
	RoleAgent  Role = "agent"
)

// CallStatus represents the lifecycle status of a call.
type CallStatus string

const (
	CallStatusActive    CallStatus = "active"
	CallStatusCompleted CallStatus = "completed"
	CallStatusFailed    CallStatus = "failed"
	CallStatusAbandoned CallStatus = "abandoned"
)

// ResolutionStatus labels how a call ended in its summary report.
type ResolutionStatus string

const (
	ResolutionCompleted  ResolutionStatus = "completed"
	ResolutionIncomplete ResolutionStatus = "incomplete"
)

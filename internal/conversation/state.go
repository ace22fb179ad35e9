// Package conversation tracks per-call conversation state: phase, sentiment,
// topics, and remembered entities.
package conversation

import (
	"time"

	"github.com/akillionvoice/callcore/internal/domain"
)

// sentimentWindow bounds the sentiment history; older entries are evicted.
const sentimentWindow = 5

const (
	positiveThreshold = 0.3
	negativeThreshold = -0.3
)

// State is the mutable conversation record for one call. It is exclusively
// owned by the call's session, which mutates it at most once per turn.
type State struct {
	CallID    string
	StartedAt time.Time

	TurnCount int
	Phase     domain.Phase

	// TopicStack is append-only; topics are never popped.
	TopicStack []string
	// EntityMemory holds extracted entities, last write wins per key.
	EntityMemory map[string]string
	Intents      []string
	Interrupted  bool

	sentiments []domain.Sentiment
}

// NewState creates the initial state for a call: greeting phase, empty
// history.
func NewState(callID string) *State {
	return &State{
		CallID:       callID,
		StartedAt:    time.Now(),
		Phase:        domain.PhaseGreeting,
		EntityMemory: make(map[string]string),
	}
}

// Update applies one turn's analysis output. Phase transitions follow the
// analysis directly rather than a strict automaton, so non-linear
// conversations can jump between phases.
func (s *State) Update(userText, agentText string, analysis *domain.TurnAnalysis) {
	s.TurnCount++
	if analysis == nil {
		return
	}

	if analysis.Intent != "" {
		s.Intents = append(s.Intents, analysis.Intent)
	}
	for k, v := range analysis.Entities {
		s.EntityMemory[k] = v
	}
	if analysis.Sentiment != "" {
		s.pushSentiment(analysis.Sentiment)
	}
	if analysis.Topic != "" {
		s.pushTopic(analysis.Topic)
	}
	if analysis.Phase != "" {
		s.Phase = analysis.Phase
	}
}

// RecentSentiment averages the bounded sentiment history and maps it back to
// a label. Deterministic read, no side effects.
func (s *State) RecentSentiment() domain.Sentiment {
	if len(s.sentiments) == 0 {
		return domain.SentimentNeutral
	}

	var sum float64
	for _, sent := range s.sentiments {
		switch sent {
		case domain.SentimentPositive:
			sum++
		case domain.SentimentNegative:
			sum--
		}
	}
	avg := sum / float64(len(s.sentiments))

	switch {
	case avg > positiveThreshold:
		return domain.SentimentPositive
	case avg < negativeThreshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// CurrentTopic returns the top of the topic stack, or "".
func (s *State) CurrentTopic() string {
	if len(s.TopicStack) == 0 {
		return ""
	}
	return s.TopicStack[len(s.TopicStack)-1]
}

// SentimentHistory returns a copy of the bounded sentiment window.
func (s *State) SentimentHistory() []domain.Sentiment {
	return append([]domain.Sentiment(nil), s.sentiments...)
}

func (s *State) pushSentiment(sent domain.Sentiment) {
	s.sentiments = append(s.sentiments, sent)
	if len(s.sentiments) > sentimentWindow {
		s.sentiments = s.sentiments[len(s.sentiments)-sentimentWindow:]
	}
}

// pushTopic pushes only when the topic differs from the current top.
func (s *State) pushTopic(topic string) {
	if s.CurrentTopic() == topic {
		return
	}
	s.TopicStack = append(s.TopicStack, topic)
}

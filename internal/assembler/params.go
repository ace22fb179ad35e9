package assembler

import (
	"github.com/akillionvoice/callcore/internal/conversation"
	"github.com/akillionvoice/callcore/internal/domain"
)

// ParamsPolicy holds the sampling temperatures applied per conversation
// situation, plus the response token cap.
type ParamsPolicy struct {
	Base        float64
	Exploratory float64 // greeting and discovery phases
	Critical    float64 // resolution and closing phases
	Negative    float64 // recent sentiment trending negative
	MaxTokens   int
}

// DefaultParamsPolicy returns the standard policy.
func DefaultParamsPolicy() ParamsPolicy {
	return ParamsPolicy{
		Base:        0.8,
		Exploratory: 0.8,
		Critical:    0.6,
		Negative:    0.5,
		MaxTokens:   120,
	}
}

// GenerationParams picks the sampling temperature and token cap for the
// current state. Negative sentiment wins over phase: an upset caller gets
// the most conservative setting regardless of where the conversation is.
func (a *Assembler) GenerationParams(st *conversation.State) (temperature float64, maxTokens int) {
	p := a.params
	temperature = p.Base

	if st != nil {
		switch st.Phase {
		case domain.PhaseResolution, domain.PhaseClosing:
			temperature = p.Critical
		case domain.PhaseGreeting, domain.PhaseDiscovery:
			temperature = p.Exploratory
		}
		if st.RecentSentiment() == domain.SentimentNegative {
			temperature = p.Negative
		}
	}
	return temperature, p.MaxTokens
}

// Package router scores the agent directory against a caller's first
// utterance and produces a one-shot routing decision.
package router

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/akillionvoice/callcore/internal/directory"
	"github.com/akillionvoice/callcore/internal/domain"
)

// ErrNoDefaultProfile is returned when the fallback agent profile is missing
// from the directory. There is no safe further fallback, so this is a fatal
// configuration error; main validates it at startup.
var ErrNoDefaultProfile = errors.New("default agent profile missing from directory")

const (
	multiMatchBonus = 2
	exactMatchBonus = 50
)

// Router is the intent router. Routing is a pure function of the current
// directory snapshot and the utterance; the only side effect is logging.
type Router struct {
	directory *directory.Directory

	// ScoreCeiling is the score that normalizes to confidence 1.0.
	scoreCeiling       float64
	fallbackConfidence float64
	defaultAgentType   string
}

// New creates a router over the given directory.
func New(dir *directory.Directory, scoreCeiling, fallbackConfidence float64, defaultAgentType string) *Router {
	return &Router{
		directory:          dir,
		scoreCeiling:       scoreCeiling,
		fallbackConfidence: fallbackConfidence,
		defaultAgentType:   defaultAgentType,
	}
}

// Validate checks that the default agent profile exists.
func (r *Router) Validate() error {
	if _, ok := r.directory.Get(r.defaultAgentType); !ok {
		return fmt.Errorf("%w: %s", ErrNoDefaultProfile, r.defaultAgentType)
	}
	return nil
}

// Route matches the utterance against every profile's keyword set and returns
// the best-scoring agent. Ties break by directory insertion order. Empty
// utterances and zero-match utterances fall back to the default agent with
// fixed low confidence.
func (r *Router) Route(callID, utterance, callerID string) (*domain.RoutingDecision, error) {
	input := strings.ToLower(strings.TrimSpace(utterance))

	var (
		best      *domain.AgentProfile
		bestScore float64
		bestMatch []string
	)

	if input != "" {
		for _, profile := range r.directory.GetAll() {
			score, matched := scoreProfile(profile, input)
			// Strictly greater keeps the first profile on ties, so the
			// outcome follows directory insertion order.
			if score > bestScore {
				best = profile
				bestScore = score
				bestMatch = matched
			}
		}
	}

	if best == nil {
		return r.defaultDecision(callID)
	}

	decision := &domain.RoutingDecision{
		AgentType:       best.AgentType,
		Confidence:      math.Min(bestScore/r.scoreCeiling, 1.0),
		MatchedKeywords: bestMatch,
		Profile:         best,
	}
	log.Printf("Routed call %s to %s agent (confidence: %.2f)", callID, decision.AgentType, decision.Confidence)
	return decision, nil
}

// DefaultProfile returns the fallback profile used when routing fails open.
func (r *Router) DefaultProfile() (*domain.AgentProfile, error) {
	p, ok := r.directory.Get(r.defaultAgentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoDefaultProfile, r.defaultAgentType)
	}
	return p, nil
}

func (r *Router) defaultDecision(callID string) (*domain.RoutingDecision, error) {
	profile, err := r.DefaultProfile()
	if err != nil {
		return nil, err
	}
	log.Printf("Routed call %s to default %s agent (no keyword match)", callID, r.defaultAgentType)
	return &domain.RoutingDecision{
		AgentType:       r.defaultAgentType,
		Confidence:      r.fallbackConfidence,
		MatchedKeywords: []string{},
		Profile:         profile,
	}, nil
}

// scoreProfile computes the keyword score of one profile against the
// lower-cased utterance: keyword length weighted by profile priority, a small
// bonus per additional match, and a flat bonus when the whole utterance
// equals a keyword.
func scoreProfile(p *domain.AgentProfile, input string) (float64, []string) {
	var (
		score   float64
		matched []string
	)
	for _, keyword := range p.Keywords {
		kw := strings.ToLower(keyword)
		if kw == "" {
			continue
		}
		if strings.Contains(input, kw) {
			score += float64(len(kw) * p.Priority)
			matched = append(matched, keyword)
		}
		if kw == input {
			score += exactMatchBonus
		}
	}
	if len(matched) > 1 {
		score += float64(len(matched) * multiMatchBonus)
	}
	return score, matched
}

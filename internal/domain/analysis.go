package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TurnAnalysis is the structured result of analyzing one caller utterance.
// Every field is optional; zero values mean "not detected". Unexpected or
// malformed values are rejected at construction rather than at use sites.
type TurnAnalysis struct {
	Intent    string            `json:"intent,omitempty"`
	Sentiment Sentiment         `json:"sentiment,omitempty"`
	Entities  map[string]string `json:"entities,omitempty"`
	Topic     string            `json:"topic,omitempty"`
	Urgency   Urgency           `json:"urgency,omitempty"`
	Phase     Phase             `json:"phase,omitempty"`
}

// rawAnalysis tolerates the loosely-typed JSON the analysis model produces:
// entity values may be strings, numbers, or nested objects.
type rawAnalysis struct {
	Intent    string         `json:"intent"`
	Sentiment string         `json:"sentiment"`
	Entities  map[string]any `json:"entities"`
	Topic     string         `json:"topic"`
	Urgency   string         `json:"urgency"`
	Phase     string         `json:"phase"`
}

// ParseTurnAnalysis builds a TurnAnalysis from model output JSON. It returns
// an error when the payload is not an object or carries enum values outside
// the known sets; callers fall back to heuristic analysis in that case.
func ParseTurnAnalysis(data []byte) (*TurnAnalysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("analysis payload is not valid JSON: %w", err)
	}

	a := &TurnAnalysis{
		Intent: strings.TrimSpace(raw.Intent),
		Topic:  strings.TrimSpace(strings.ToLower(raw.Topic)),
	}

	if raw.Sentiment != "" {
		s := Sentiment(strings.ToLower(strings.TrimSpace(raw.Sentiment)))
		if !ValidSentiment(s) {
			return nil, fmt.Errorf("unknown sentiment %q", raw.Sentiment)
		}
		a.Sentiment = s
	}

	if raw.Urgency != "" {
		u := Urgency(strings.ToLower(strings.TrimSpace(raw.Urgency)))
		if !ValidUrgency(u) {
			return nil, fmt.Errorf("unknown urgency %q", raw.Urgency)
		}
		a.Urgency = u
	}

	if raw.Phase != "" {
		p := Phase(strings.ToLower(strings.TrimSpace(raw.Phase)))
		if !ValidPhase(p) {
			return nil, fmt.Errorf("unknown phase %q", raw.Phase)
		}
		a.Phase = p
	}

	if len(raw.Entities) > 0 {
		a.Entities = make(map[string]string, len(raw.Entities))
		for k, v := range raw.Entities {
			switch val := v.(type) {
			case string:
				a.Entities[k] = val
			case float64:
				a.Entities[k] = strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
			case bool:
				a.Entities[k] = fmt.Sprintf("%t", val)
			default:
				// Nested structures get flattened to their JSON form.
				b, err := json.Marshal(v)
				if err != nil {
					return nil, fmt.Errorf("entity %q has unsupported value: %w", k, err)
				}
				a.Entities[k] = string(b)
			}
		}
	}

	return a, nil
}

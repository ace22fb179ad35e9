// Package analysis classifies caller utterances into a structured
// TurnAnalysis: intent, sentiment, entities, topic, urgency, phase.
package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/akillionvoice/callcore/internal/adapter/llm"
	"github.com/akillionvoice/callcore/internal/domain"
)

const analysisPrompt = `Analyze this phone conversation input:
Input: %q

Extract as JSON with keys:
- intent (e.g. question, complaint, request, confirmation)
- sentiment (positive/neutral/negative)
- entities (object of key facts: names, dates, amounts)
- topic (single lowercase category word)
- urgency (low/medium/high)
- phase (greeting/discovery/resolution/closing)

Respond with JSON only, no prose.`

// Analyzer produces a TurnAnalysis for each utterance. The LLM path uses a
// short timeout; any failure degrades to the keyword heuristic, so Analyze
// always returns a usable result.
type Analyzer struct {
	client  llm.LLMClient
	model   string
	timeout time.Duration
}

// New creates an analyzer. A nil client means heuristic-only analysis.
func New(client llm.LLMClient, model string, timeout time.Duration) *Analyzer {
	return &Analyzer{client: client, model: model, timeout: timeout}
}

// Analyze classifies one utterance. It never fails; provider errors fall back
// to Basic.
func (a *Analyzer) Analyze(ctx context.Context, utterance string) *domain.TurnAnalysis {
	if a.client == nil {
		return Basic(utterance)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	temperature := 0.3
	maxTokens := 150
	resp, err := a.client.CreateChatCompletion(callCtx, &llm.ChatCompletionRequest{
		Model: a.model,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(analysisPrompt, utterance)},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		log.Printf("WARN: turn analysis failed, using heuristic: %v", err)
		return Basic(utterance)
	}

	parsed, err := domain.ParseTurnAnalysis([]byte(stripCodeFence(resp.ResponseText())))
	if err != nil {
		log.Printf("WARN: turn analysis unparseable, using heuristic: %v", err)
		return Basic(utterance)
	}
	return parsed
}

// Basic is the deterministic keyword fallback used when the analysis model is
// unavailable or returns garbage.
func Basic(utterance string) *domain.TurnAnalysis {
	lower := strings.ToLower(utterance)

	sentiment := domain.SentimentNeutral
	switch {
	case containsAny(lower, "angry", "frustrated", "upset", "terrible", "awful"):
		sentiment = domain.SentimentNegative
	case containsAny(lower, "great", "perfect", "excellent", "thank"):
		sentiment = domain.SentimentPositive
	}

	intent := "statement"
	switch {
	case strings.Contains(utterance, "?"):
		intent = "question"
	case containsAny(lower, "want", "need", "like", "please"):
		intent = "request"
	}

	return &domain.TurnAnalysis{
		Intent:    intent,
		Sentiment: sentiment,
		Entities:  map[string]string{},
		Topic:     "general",
		Urgency:   domain.UrgencyMedium,
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// stripCodeFence removes a ```json ... ``` wrapper if the model added one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

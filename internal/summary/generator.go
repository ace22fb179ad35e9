// Package summary produces end-of-call summaries for follow-up messaging.
package summary

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/akillionvoice/callcore/internal/adapter/llm"
	"github.com/akillionvoice/callcore/internal/conversation"
	"github.com/akillionvoice/callcore/internal/domain"
)

// topicTaxonomy is the fixed vocabulary key topics are matched against.
var topicTaxonomy = []string{
	"billing", "support", "technical", "account",
	"payment", "service", "scheduling", "help",
}

const maxKeyTopics = 3

const summaryPrompt = `Please summarize this customer service conversation:

%s

Provide a brief summary focusing on:
- Main issue or request
- Key points discussed
- Resolution or next steps

Keep it concise and professional.`

// Generator builds summary reports, preferring the language-model provider
// and falling back to a templated summary when it is unavailable.
type Generator struct {
	client  llm.LLMClient
	model   string
	timeout time.Duration
}

// NewGenerator creates a summary generator. client may be nil; generation
// then always uses the deterministic fallback.
func NewGenerator(client llm.LLMClient, model string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Generator{client: client, model: model, timeout: timeout}
}

// Generate never fails: provider errors degrade to the templated summary.
func (g *Generator) Generate(ctx context.Context, history []domain.ConversationTurn, state *conversation.State) *domain.SummaryReport {
	report := &domain.SummaryReport{
		KeyTopics:        extractTopics(history),
		Sentiment:        domain.SentimentNeutral,
		ResolutionStatus: domain.ResolutionCompleted,
		TurnCount:        len(history),
	}
	if state != nil {
		report.Sentiment = state.RecentSentiment()
	}

	if len(history) == 0 {
		report.Summary = "No conversation recorded"
		report.ResolutionStatus = domain.ResolutionIncomplete
		return report
	}

	report.Summary = g.narrative(ctx, history)
	return report
}

func (g *Generator) narrative(ctx context.Context, history []domain.ConversationTurn) string {
	if g.client == nil {
		return fallbackSummary(history)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	temperature := 0.3
	maxTokens := 150
	resp, err := g.client.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: g.model,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(summaryPrompt, transcript(history))},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		log.Printf("WARN: summary generation failed, using fallback: %v", err)
		return fallbackSummary(history)
	}
	text := resp.ResponseText()
	if text == "" {
		return fallbackSummary(history)
	}
	return text
}

func transcript(history []domain.ConversationTurn) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		speaker := "User"
		if turn.Role == domain.RoleAgent {
			speaker = "Assistant"
		}
		lines = append(lines, speaker+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}

// fallbackSummary is deterministic: exchange count plus an excerpt of the
// opening utterance.
func fallbackSummary(history []domain.ConversationTurn) string {
	excerpt := history[0].Text
	if len(excerpt) > 50 {
		excerpt = excerpt[:50]
	}
	return fmt.Sprintf("Customer conversation with %d exchanges. Main topic: %s...", len(history), excerpt)
}

// extractTopics matches the transcript against the topic taxonomy, keeping
// taxonomy order, at most maxKeyTopics entries.
func extractTopics(history []domain.ConversationTurn) []string {
	var b strings.Builder
	for _, turn := range history {
		b.WriteString(strings.ToLower(turn.Text))
		b.WriteByte(' ')
	}
	text := b.String()

	topics := make([]string, 0, maxKeyTopics)
	for _, topic := range topicTaxonomy {
		if strings.Contains(text, topic) {
			topics = append(topics, topic)
			if len(topics) == maxKeyTopics {
				break
			}
		}
	}
	return topics
}

// Package assembler builds the ordered message list sent to the
// language-model provider for each conversation turn.
package assembler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/akillionvoice/callcore/internal/adapter/knowledge"
	"github.com/akillionvoice/callcore/internal/adapter/llm"
	"github.com/akillionvoice/callcore/internal/conversation"
	"github.com/akillionvoice/callcore/internal/domain"
)

// phaseInstructions steer the agent's tone per conversation phase.
var phaseInstructions = map[domain.Phase]string{
	domain.PhaseGreeting:   "Be warm and welcoming. Quickly understand their need.",
	domain.PhaseDiscovery:  "Ask clarifying questions. Show you're listening.",
	domain.PhaseResolution: "Provide clear solutions. Confirm understanding.",
	domain.PhaseClosing:    "Summarize next steps. End positively.",
}

// sentimentInstructions adjust the agent's tone to the caller's recent mood.
var sentimentInstructions = map[domain.Sentiment]string{
	domain.SentimentNegative: "Be extra empathetic and patient. Acknowledge their frustration.",
	domain.SentimentPositive: "Match their positive energy. Build on the momentum.",
	domain.SentimentNeutral:  "Be professional and helpful.",
}

const interruptionInstruction = "The caller interrupted you. Acknowledge briefly and address their concern immediately."

// Input carries everything one turn's request is assembled from.
type Input struct {
	Profile     *domain.AgentProfile
	State       *conversation.State
	History     []domain.ConversationTurn
	Analysis    *domain.TurnAnalysis
	Interrupted bool
	Knowledge   []knowledge.Passage
	Utterance   string
}

// Assembler composes provider requests.
type Assembler struct {
	historyWindow       int
	knowledgeWordBudget int
	params              ParamsPolicy
}

// New creates an assembler.
func New(historyWindow, knowledgeWordBudget int, params ParamsPolicy) *Assembler {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	if knowledgeWordBudget <= 0 {
		knowledgeWordBudget = 500
	}
	return &Assembler{
		historyWindow:       historyWindow,
		knowledgeWordBudget: knowledgeWordBudget,
		params:              params,
	}
}

// Build produces the ordered message list: system prompt, optional fact and
// knowledge context, optional interruption instruction, recent history, and
// the current utterance.
func (a *Assembler) Build(in Input) []llm.ChatMessage {
	messages := []llm.ChatMessage{
		{Role: "system", Content: a.systemPrompt(in)},
	}

	if facts := factsMessage(in.State); facts != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: facts})
	}

	if ctxMsg := a.knowledgeMessage(in.Knowledge); ctxMsg != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: ctxMsg})
	}

	if in.Interrupted {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: interruptionInstruction})
	}

	messages = append(messages, a.historyMessages(in.History)...)

	utterance := in.Utterance
	if in.Analysis != nil && in.Analysis.Urgency == domain.UrgencyHigh {
		utterance = "[URGENT] " + utterance
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: utterance})

	return messages
}

func (a *Assembler) systemPrompt(in Input) string {
	base := ""
	if in.Profile != nil {
		base = in.Profile.SystemPrompt
	}

	phase := domain.PhaseGreeting
	turnCount := 0
	sentiment := domain.SentimentNeutral
	if in.State != nil {
		phase = in.State.Phase
		turnCount = in.State.TurnCount
		sentiment = in.State.RecentSentiment()
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nCONVERSATION GUIDELINES:\n")
	b.WriteString("- You're on a phone call. Keep responses under 2 sentences.\n")
	if instr, ok := phaseInstructions[phase]; ok {
		b.WriteString("- " + instr + "\n")
	}
	if instr, ok := sentimentInstructions[sentiment]; ok {
		b.WriteString("- " + instr + "\n")
	}
	b.WriteString("- Use natural speech patterns (contractions, simple words).\n")
	b.WriteString("- Never use lists, bullet points, or formal language.\n")
	b.WriteString("- If unsure, ask for clarification naturally.\n")
	fmt.Fprintf(&b, "- Current phase: %s\n", phase)
	fmt.Fprintf(&b, "- Turn %d of the conversation", turnCount)
	return b.String()
}

// factsMessage summarizes remembered entities. Keys are sorted so the prompt
// is deterministic.
func factsMessage(st *conversation.State) string {
	if st == nil || len(st.EntityMemory) == 0 {
		return ""
	}
	keys := make([]string, 0, len(st.EntityMemory))
	for k := range st.EntityMemory {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+st.EntityMemory[k])
	}
	return "Known facts from this call: " + strings.Join(parts, "; ")
}

// knowledgeMessage packs passages in relevance order until the word budget
// is exhausted. Truncation happens at passage boundaries, not sentences.
func (a *Assembler) knowledgeMessage(passages []knowledge.Passage) string {
	if len(passages) == 0 {
		return ""
	}

	var (
		parts []string
		words int
	)
	for _, p := range passages {
		text := p.Content
		if p.Domain != "" {
			text = "[" + p.Domain + "] " + p.Content
		}
		n := len(strings.Fields(text))
		if words+n > a.knowledgeWordBudget {
			break
		}
		parts = append(parts, text)
		words += n
	}
	if len(parts) == 0 {
		return ""
	}
	return "Relevant information from the knowledge base:\n" +
		strings.Join(parts, "\n") +
		"\n\nUse this information to provide accurate, detailed responses."
}

// historyMessages maps the last N turns to chat messages, trimming a leading
// agent turn so the window always starts with the caller.
func (a *Assembler) historyMessages(history []domain.ConversationTurn) []llm.ChatMessage {
	if len(history) > a.historyWindow {
		history = history[len(history)-a.historyWindow:]
	}
	if len(history) > 0 && history[0].Role == domain.RoleAgent {
		history = history[1:]
	}

	messages := make([]llm.ChatMessage, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleAgent {
			role = "assistant"
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: turn.Text})
	}
	return messages
}

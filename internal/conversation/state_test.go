package conversation

import (
	"testing"
	"time"

	"github.com/akillionvoice/callcore/internal/domain"
)

func TestUpdateAppliesAnalysis(t *testing.T) {
	s := NewState("c1")
	if s.Phase != domain.PhaseGreeting {
		t.Fatalf("initial phase = %s", s.Phase)
	}

	s.Update("my invoice is wrong", "Let me look into that.", &domain.TurnAnalysis{
		Intent:    "complaint",
		Sentiment: domain.SentimentNegative,
		Entities:  map[string]string{"invoice_number": "INV-1"},
		Topic:     "billing",
		Phase:     domain.PhaseDiscovery,
	})

	if s.TurnCount != 1 {
		t.Errorf("turn count = %d", s.TurnCount)
	}
	if s.Phase != domain.PhaseDiscovery {
		t.Errorf("phase = %s", s.Phase)
	}
	if s.CurrentTopic() != "billing" {
		t.Errorf("topic = %s", s.CurrentTopic())
	}
	if s.EntityMemory["invoice_number"] != "INV-1" {
		t.Errorf("entities = %v", s.EntityMemory)
	}
	if len(s.Intents) != 1 || s.Intents[0] != "complaint" {
		t.Errorf("intents = %v", s.Intents)
	}
}

func TestUpdateEntityLastWriteWins(t *testing.T) {
	s := NewState("c1")
	s.Update("", "", &domain.TurnAnalysis{Entities: map[string]string{"amount": "10"}})
	s.Update("", "", &domain.TurnAnalysis{Entities: map[string]string{"amount": "25"}})

	if s.EntityMemory["amount"] != "25" {
		t.Fatalf("amount = %s, want last write 25", s.EntityMemory["amount"])
	}
}

func TestUpdateTopicStackSkipsRepeats(t *testing.T) {
	s := NewState("c1")
	for _, topic := range []string{"billing", "billing", "support", "billing"} {
		s.Update("", "", &domain.TurnAnalysis{Topic: topic})
	}

	want := []string{"billing", "support", "billing"}
	if len(s.TopicStack) != len(want) {
		t.Fatalf("topic stack = %v", s.TopicStack)
	}
	for i, topic := range want {
		if s.TopicStack[i] != topic {
			t.Fatalf("topic stack = %v, want %v", s.TopicStack, want)
		}
	}
}

func TestUpdatePhaseCanJumpBackwards(t *testing.T) {
	s := NewState("c1")
	s.Update("", "", &domain.TurnAnalysis{Phase: domain.PhaseClosing})
	s.Update("", "", &domain.TurnAnalysis{Phase: domain.PhaseDiscovery})

	if s.Phase != domain.PhaseDiscovery {
		t.Fatalf("phase = %s, transitions must not be a strict automaton", s.Phase)
	}
}

func TestSentimentHistoryBounded(t *testing.T) {
	s := NewState("c1")
	for i := 0; i < 8; i++ {
		s.Update("", "", &domain.TurnAnalysis{Sentiment: domain.SentimentNegative})
	}
	if len(s.SentimentHistory()) != 5 {
		t.Fatalf("history length = %d, want 5", len(s.SentimentHistory()))
	}
}

func TestRecentSentiment(t *testing.T) {
	cases := []struct {
		name    string
		history []domain.Sentiment
		want    domain.Sentiment
	}{
		{
			name: "mixed history is neutral",
			history: []domain.Sentiment{
				domain.SentimentNegative, domain.SentimentNegative,
				domain.SentimentNeutral,
				domain.SentimentPositive, domain.SentimentPositive,
			},
			want: domain.SentimentNeutral,
		},
		{
			name: "all negative",
			history: []domain.Sentiment{
				domain.SentimentNegative, domain.SentimentNegative, domain.SentimentNegative,
			},
			want: domain.SentimentNegative,
		},
		{
			name: "mostly positive",
			history: []domain.Sentiment{
				domain.SentimentPositive, domain.SentimentPositive, domain.SentimentNeutral,
			},
			want: domain.SentimentPositive,
		},
		{
			name:    "empty history",
			history: nil,
			want:    domain.SentimentNeutral,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewState("c1")
			for _, sent := range tc.history {
				s.Update("", "", &domain.TurnAnalysis{Sentiment: sent})
			}
			if got := s.RecentSentiment(); got != tc.want {
				t.Fatalf("RecentSentiment() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTimingHeuristic(t *testing.T) {
	h := NewTimingHeuristic(500*time.Millisecond, 3)

	cases := []struct {
		name      string
		since     time.Duration
		utterance string
		want      bool
	}{
		{"quick and short", 200 * time.Millisecond, "wait no", true},
		{"quick but long", 200 * time.Millisecond, "I want to ask about something else", false},
		{"short but slow", 2 * time.Second, "wait no", false},
		{"agent has not spoken", 0, "hello", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := h.Detect(tc.since, tc.utterance); got != tc.want {
				t.Fatalf("Detect(%v, %q) = %v, want %v", tc.since, tc.utterance, got, tc.want)
			}
		})
	}
}

package domain

import "testing"

func TestParseTurnAnalysis(t *testing.T) {
	data := []byte(`{
		"intent": "complaint",
		"sentiment": "Negative",
		"entities": {"invoice_number": "INV-204", "amount": 42.5},
		"topic": "Billing",
		"urgency": "high",
		"phase": "resolution"
	}`)

	a, err := ParseTurnAnalysis(data)
	if err != nil {
		t.Fatalf("ParseTurnAnalysis failed: %v", err)
	}
	if a.Intent != "complaint" {
		t.Errorf("intent = %q", a.Intent)
	}
	if a.Sentiment != SentimentNegative {
		t.Errorf("sentiment = %q", a.Sentiment)
	}
	if a.Topic != "billing" {
		t.Errorf("topic = %q", a.Topic)
	}
	if a.Urgency != UrgencyHigh {
		t.Errorf("urgency = %q", a.Urgency)
	}
	if a.Phase != PhaseResolution {
		t.Errorf("phase = %q", a.Phase)
	}
	if a.Entities["invoice_number"] != "INV-204" {
		t.Errorf("entities = %v", a.Entities)
	}
	if a.Entities["amount"] != "42.5" {
		t.Errorf("numeric entity = %q", a.Entities["amount"])
	}
}

func TestParseTurnAnalysisRejectsUnknownEnums(t *testing.T) {
	cases := []string{
		`{"sentiment": "furious"}`,
		`{"urgency": "extreme"}`,
		`{"phase": "smalltalk"}`,
		`not json`,
	}
	for _, c := range cases {
		if _, err := ParseTurnAnalysis([]byte(c)); err == nil {
			t.Errorf("expected error for %s", c)
		}
	}
}

func TestParseTurnAnalysisAllFieldsOptional(t *testing.T) {
	a, err := ParseTurnAnalysis([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseTurnAnalysis failed: %v", err)
	}
	if a.Sentiment != "" || a.Phase != "" || a.Urgency != "" {
		t.Errorf("expected zero values, got %+v", a)
	}
}

func TestAgentProfileClone(t *testing.T) {
	p := &AgentProfile{AgentType: "billing", Keywords: []string{"invoice"}}
	c := p.Clone()
	c.Keywords[0] = "changed"
	if p.Keywords[0] != "invoice" {
		t.Fatal("Clone shares keyword backing array")
	}
}

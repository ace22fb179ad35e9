package store

import (
	"context"
	"fmt"
	"time"

	"github.com/akillionvoice/callcore/internal/domain"
)

// defaultProfiles is the stock agent directory used when the database is
// empty. Insertion order matters: the router breaks ties in this order, so
// the general agent goes last.
var defaultProfiles = []domain.AgentProfile{
	{
		AgentType:    "billing",
		Name:         "Billing Specialist",
		Description:  "Handles invoices, payments, refunds, and account charges",
		SystemPrompt: "You are a billing specialist for A Killion Voice. Help callers with invoices, payments, refunds, and account charges. Be precise with amounts and dates.",
		Keywords:     []string{"billing", "invoice", "payment", "charge", "refund", "bill", "receipt"},
		Priority:     2,
		MaxTurns:     20,
		Timeout:      30 * time.Second,
		FollowUpTemplate: "Thanks for calling A Killion Voice about your billing inquiry. {summary} " +
			"If you need further assistance with your account, please reply or call us back.",
	},
	{
		AgentType:    "support",
		Name:         "Technical Support",
		Description:  "Troubleshoots technical problems and service issues",
		SystemPrompt: "You are a technical support agent for A Killion Voice. Walk callers through troubleshooting steps one at a time. Confirm each step before moving on.",
		Keywords:     []string{"support", "technical", "broken", "error", "issue", "not working", "problem"},
		Priority:     2,
		MaxTurns:     25,
		Timeout:      30 * time.Second,
		FollowUpTemplate: "Thanks for calling A Killion Voice technical support. {summary} " +
			"We've provided troubleshooting steps to help resolve your issue. Reply if you need more assistance!",
	},
	{
		AgentType:    "sales",
		Name:         "Sales Representative",
		Description:  "Answers pricing and product questions for prospective customers",
		SystemPrompt: "You are a sales representative for A Killion Voice. Answer pricing and product questions enthusiastically and offer to set up a demo when it fits.",
		Keywords:     []string{"pricing", "price", "buy", "purchase", "demo", "sales", "upgrade"},
		Priority:     1,
		MaxTurns:     20,
		Timeout:      30 * time.Second,
		FollowUpTemplate: "Thanks for your interest in A Killion Voice services! {summary} " +
			"I'll follow up with more information about our solutions. Questions? Just reply!",
	},
	{
		AgentType:    "scheduling",
		Name:         "Scheduling Assistant",
		Description:  "Books, changes, and cancels appointments",
		SystemPrompt: "You are a scheduling assistant for A Killion Voice. Help callers book, change, or cancel appointments. Always confirm the date and time back to them.",
		Keywords:     []string{"appointment", "schedule", "booking", "reschedule", "cancel", "availability"},
		Priority:     2,
		MaxTurns:     15,
		Timeout:      30 * time.Second,
		FollowUpTemplate: "Thanks for scheduling with A Killion Voice! {summary} " +
			"We'll send appointment confirmations and reminders. Reply to make changes.",
	},
	{
		AgentType:    "general",
		Name:         "General Assistant",
		Description:  "Default agent for calls that match no specialty",
		SystemPrompt: "You are a helpful customer service representative for A Killion Voice. Be friendly, professional, and concise.",
		Keywords:     []string{"help", "question", "information"},
		Priority:     1,
		MaxTurns:     20,
		Timeout:      30 * time.Second,
		FollowUpTemplate: "Thanks for calling A Killion Voice! {summary} " +
			"We're here to help whenever you need us. Reply to this message for assistance.",
	},
}

// seedAgentProfiles inserts the stock directory when the table is empty.
func (s *SQLiteStore) seedAgentProfiles() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM agent_profiles`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count agent profiles: %w", err)
	}
	if count > 0 {
		return nil
	}

	ctx := context.Background()
	for i := range defaultProfiles {
		if err := s.SaveAgentProfile(ctx, &defaultProfiles[i]); err != nil {
			return err
		}
	}
	return nil
}

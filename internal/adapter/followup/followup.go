// Package followup delivers end-of-call summaries to the messaging
// collaborator. The core owns only the template substitution contract; actual
// SMS delivery happens behind a webhook.
package followup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/akillionvoice/callcore/internal/domain"
)

const defaultTemplate = "Thanks for calling! {summary} We're here to help whenever you need us."

// Notifier posts follow-up messages to the configured webhook. An empty
// webhook URL disables delivery; the call flow is unaffected either way.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// New creates a notifier.
func New(webhookURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// message is the payload handed to the messaging collaborator.
type message struct {
	CallID   string `json:"call_id"`
	CallerID string `json:"caller_id"`
	Body     string `json:"body"`
}

// SendFollowUp renders the agent's template with the call report and posts
// it. Errors are logged, never propagated: follow-up is best effort.
func (n *Notifier) SendFollowUp(ctx context.Context, profile *domain.AgentProfile, report *domain.CallReport) {
	if n.webhookURL == "" || report == nil {
		return
	}

	tmpl := defaultTemplate
	if profile != nil && profile.FollowUpTemplate != "" {
		tmpl = profile.FollowUpTemplate
	}

	body := RenderTemplate(tmpl, report)
	payload, err := json.Marshal(message{
		CallID:   report.CallID,
		CallerID: report.CallerID,
		Body:     body,
	})
	if err != nil {
		log.Printf("WARN: failed to encode follow-up for call %s: %v", report.CallID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		log.Printf("WARN: failed to build follow-up request for call %s: %v", report.CallID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Printf("WARN: follow-up delivery failed for call %s: %v", report.CallID, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("WARN: follow-up webhook returned %d for call %s", resp.StatusCode, report.CallID)
		return
	}
	log.Printf("Sent follow-up for call %s", report.CallID)
}

// RenderTemplate substitutes {summary} and {duration} placeholders.
func RenderTemplate(tmpl string, report *domain.CallReport) string {
	summary := "We discussed your inquiry and provided assistance."
	if report.Summary != nil && report.Summary.Summary != "" {
		summary = report.Summary.Summary
	}

	out := strings.ReplaceAll(tmpl, "{summary}", summary)
	out = strings.ReplaceAll(out, "{duration}", formatDuration(report.Duration))
	return out
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if minutes == 0 {
		return fmt.Sprintf("%d seconds", seconds)
	}
	return fmt.Sprintf("%d minutes %d seconds", minutes, seconds)
}

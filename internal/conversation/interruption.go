package conversation

import (
	"strings"
	"time"
)

// InterruptionDetector decides whether an utterance interrupted the agent's
// previous reply. Implementations are swappable; the timing heuristic below
// is the current one, a learned classifier can replace it behind the same
// interface.
type InterruptionDetector interface {
	Detect(sinceLastReply time.Duration, utterance string) bool
}

// TimingHeuristic flags short utterances that arrive very quickly after the
// agent spoke. Best effort, not a correctness guarantee.
type TimingHeuristic struct {
	// Window is the maximum delay after the agent's reply.
	Window time.Duration
	// MaxWords is the exclusive word-count bound for a quick interjection.
	MaxWords int
}

// NewTimingHeuristic returns the stock detector: under 500ms and fewer than
// three words.
func NewTimingHeuristic(window time.Duration, maxWords int) *TimingHeuristic {
	if window <= 0 {
		window = 500 * time.Millisecond
	}
	if maxWords <= 0 {
		maxWords = 3
	}
	return &TimingHeuristic{Window: window, MaxWords: maxWords}
}

// Detect implements InterruptionDetector. A zero or negative sinceLastReply
// means the agent has not spoken yet, which can never be an interruption.
func (h *TimingHeuristic) Detect(sinceLastReply time.Duration, utterance string) bool {
	if sinceLastReply <= 0 {
		return false
	}
	isQuick := sinceLastReply < h.Window
	isShort := len(strings.Fields(utterance)) < h.MaxWords
	return isQuick && isShort
}

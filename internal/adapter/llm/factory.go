package llm

import (
	"log"
	"os"
	"strings"
	"time"
)

// EnvCallcoreMode selects between the real provider client and the mock.
const EnvCallcoreMode = "CALLCORE_MODE"

// NewLLMClient returns the provider-backed Client unless CALLCORE_MODE=mock
// is set in the environment, in which case it returns a MockClient so the
// service can run without provider credentials.
func NewLLMClient(baseURL, apiKey string, timeout time.Duration) LLMClient {
	if strings.EqualFold(os.Getenv(EnvCallcoreMode), "mock") {
		log.Println("CALLCORE_MODE=mock, using mock LLM client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}

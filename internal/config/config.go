// Package config provides configuration for the call-orchestration core.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the core configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// LLM provider settings
	LLMBaseURL        string
	LLMAPIKey         string
	ConversationModel string
	AnalysisModel     string
	SummaryModel      string
	EmbeddingModel    string

	// Timeouts
	ConversationTimeout time.Duration
	AnalysisTimeout     time.Duration
	SummaryTimeout      time.Duration

	// Generation settings
	MaxResponseTokens int
	BaseTemperature   float64

	// Routing settings
	DefaultAgentType string
	// RoutingScoreCeiling is the score that maps to confidence 1.0. The
	// 100-point calibration is inherited from the routing rules this core
	// replaced; it is a named knob rather than a hidden literal.
	RoutingScoreCeiling float64
	FallbackConfidence  float64

	// Conversation settings
	HistoryWindow        int
	VoiceCharBudget      int
	InterruptionWindow   time.Duration
	InterruptionMaxWords int

	// Knowledge base (optional)
	QdrantURL            string
	QdrantAPIKey         string
	QdrantCollection     string
	KnowledgeWordBudget  int
	KnowledgeMinScore    float64
	RedisURL             string
	KnowledgeCacheTTL    time.Duration

	// Follow-up messaging (optional)
	FollowUpWebhookURL string

	// Fixed user-facing phrases
	FallbackPhrase    string
	TerminationPhrase string

	// Logging
	LogLevel string
}

const (
	defaultFallbackPhrase = "I'm sorry, I had trouble processing that. Could you please repeat your question?"

	defaultTerminationPhrase = "Thank you for calling. I need to end this call now, but please feel free to call back if you need more assistance."
)

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		DatabaseURL: getEnv("DATABASE_URL", "file:callcore.db?cache=shared&mode=rwc"),

		LLMBaseURL:        getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		ConversationModel: getEnv("CONVERSATION_MODEL", "anthropic/claude-3-sonnet"),
		AnalysisModel:     getEnv("ANALYSIS_MODEL", "openai/gpt-4o-mini"),
		SummaryModel:      getEnv("SUMMARY_MODEL", "openai/gpt-4o-mini"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		ConversationTimeout: time.Duration(getEnvInt("CONVERSATION_TIMEOUT_MS", 10000)) * time.Millisecond,
		AnalysisTimeout:     time.Duration(getEnvInt("ANALYSIS_TIMEOUT_MS", 3000)) * time.Millisecond,
		SummaryTimeout:      time.Duration(getEnvInt("SUMMARY_TIMEOUT_MS", 10000)) * time.Millisecond,

		MaxResponseTokens: getEnvInt("MAX_RESPONSE_TOKENS", 120),
		BaseTemperature:   getEnvFloat("BASE_TEMPERATURE", 0.8),

		DefaultAgentType:    getEnv("DEFAULT_AGENT_TYPE", "general"),
		RoutingScoreCeiling: getEnvFloat("ROUTING_SCORE_CEILING", 100),
		FallbackConfidence:  getEnvFloat("FALLBACK_CONFIDENCE", 0.1),

		HistoryWindow:        getEnvInt("HISTORY_WINDOW", 10),
		VoiceCharBudget:      getEnvInt("VOICE_CHAR_BUDGET", 300),
		InterruptionWindow:   time.Duration(getEnvInt("INTERRUPTION_WINDOW_MS", 500)) * time.Millisecond,
		InterruptionMaxWords: getEnvInt("INTERRUPTION_MAX_WORDS", 3),

		QdrantURL:           getEnv("QDRANT_URL", ""),
		QdrantAPIKey:        getEnv("QDRANT_API_KEY", ""),
		QdrantCollection:    getEnv("QDRANT_COLLECTION", "agent_knowledge"),
		KnowledgeWordBudget: getEnvInt("KNOWLEDGE_WORD_BUDGET", 500),
		KnowledgeMinScore:   getEnvFloat("KNOWLEDGE_MIN_SCORE", 0.7),
		RedisURL:            getEnv("REDIS_URL", ""),
		KnowledgeCacheTTL:   time.Duration(getEnvInt("KNOWLEDGE_CACHE_TTL_S", 300)) * time.Second,

		FollowUpWebhookURL: getEnv("FOLLOWUP_WEBHOOK_URL", ""),

		FallbackPhrase:    getEnv("FALLBACK_PHRASE", defaultFallbackPhrase),
		TerminationPhrase: getEnv("TERMINATION_PHRASE", defaultTerminationPhrase),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

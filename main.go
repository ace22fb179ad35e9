package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akillionvoice/callcore/internal/adapter/analysis"
	"github.com/akillionvoice/callcore/internal/adapter/followup"
	"github.com/akillionvoice/callcore/internal/adapter/knowledge"
	"github.com/akillionvoice/callcore/internal/adapter/llm"
	"github.com/akillionvoice/callcore/internal/assembler"
	"github.com/akillionvoice/callcore/internal/config"
	"github.com/akillionvoice/callcore/internal/conversation"
	"github.com/akillionvoice/callcore/internal/directory"
	"github.com/akillionvoice/callcore/internal/policy"
	"github.com/akillionvoice/callcore/internal/router"
	"github.com/akillionvoice/callcore/internal/service"
	"github.com/akillionvoice/callcore/internal/session"
	"github.com/akillionvoice/callcore/internal/store"
	"github.com/akillionvoice/callcore/internal/summary"
	transport "github.com/akillionvoice/callcore/internal/transport/http"
	"github.com/akillionvoice/callcore/internal/transport/ws"
	"github.com/akillionvoice/callcore/internal/voicetext"
)

// cleanupInterval drives the sweep for sessions that ended without a
// registry removal.
const cleanupInterval = time.Minute

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting callcore...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM Base URL: %s", cfg.LLMBaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize agent directory and router
	dir, err := directory.New(ctx, db, policyEngine)
	if err != nil {
		log.Fatalf("Failed to load agent directory: %v", err)
	}
	rtr := router.New(dir, cfg.RoutingScoreCeiling, cfg.FallbackConfidence, cfg.DefaultAgentType)
	if err := rtr.Validate(); err != nil {
		log.Fatalf("Agent directory is unusable: %v", err)
	}

	// Initialize LLM client
	llmClient := llm.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ConversationTimeout)

	// Optional knowledge base
	retriever := buildRetriever(cfg, llmClient)

	// Optional follow-up messaging
	var notifier *followup.Notifier
	if cfg.FollowUpWebhookURL != "" {
		notifier = followup.New(cfg.FollowUpWebhookURL, 10*time.Second)
		log.Printf("Follow-up webhook enabled")
	}

	// Session registry
	deps := &session.Deps{
		Router: rtr,
		Store:  db,
		LLM:    llmClient,
		Analyzer: analysis.New(llmClient, cfg.AnalysisModel, cfg.AnalysisTimeout),
		Assembler: assembler.New(cfg.HistoryWindow, cfg.KnowledgeWordBudget, assembler.ParamsPolicy{
			Base:        cfg.BaseTemperature,
			Exploratory: 0.8,
			Critical:    0.6,
			Negative:    0.5,
			MaxTokens:   cfg.MaxResponseTokens,
		}),
		Normalizer:          voicetext.New(cfg.VoiceCharBudget),
		Summarizer:          summary.NewGenerator(llmClient, cfg.SummaryModel, cfg.SummaryTimeout),
		Knowledge:           retriever,
		Interrupts:          conversation.NewTimingHeuristic(cfg.InterruptionWindow, cfg.InterruptionMaxWords),
		ConversationModel:   cfg.ConversationModel,
		ConversationTimeout: cfg.ConversationTimeout,
		FallbackPhrase:      cfg.FallbackPhrase,
		TerminationPhrase:   cfg.TerminationPhrase,
	}
	registry := session.NewRegistry(deps)

	// Event feed
	hub := ws.NewHub()
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	// Initialize service
	svc := service.New(registry, dir, notifier, hub)

	// Periodic sweep for sessions that ended without a hangup event
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-hubCtx.Done():
				return
			case <-ticker.C:
				svc.CleanupInactive()
			}
		}
	}()

	// Create HTTP server
	server := transport.NewServer(svc, ws.NewHandler(hub))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Callcore API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down callcore...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Callcore stopped")
}

// buildRetriever wires the optional Qdrant knowledge base, with a Redis
// cache in front when configured. Returns nil when knowledge is disabled.
func buildRetriever(cfg *config.Config, llmClient llm.LLMClient) knowledge.Retriever {
	if cfg.QdrantURL == "" {
		return nil
	}

	embedder := knowledge.NewLLMEmbedder(llmClient, cfg.EmbeddingModel)
	qdrantRetriever, err := knowledge.NewQdrantRetriever(knowledge.QdrantConfig{
		URL:            cfg.QdrantURL,
		CollectionName: cfg.QdrantCollection,
		APIKey:         cfg.QdrantAPIKey,
		MinScore:       float32(cfg.KnowledgeMinScore),
	}, embedder)
	if err != nil {
		log.Printf("WARN: knowledge base disabled: %v", err)
		return nil
	}
	log.Printf("Knowledge base enabled (collection %s)", cfg.QdrantCollection)

	if cfg.RedisURL == "" {
		return qdrantRetriever
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARN: knowledge cache disabled, invalid redis url: %v", err)
		return qdrantRetriever
	}
	log.Printf("Knowledge cache enabled")
	return knowledge.NewCachedRetriever(qdrantRetriever, redis.NewClient(opts), cfg.KnowledgeCacheTTL)
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/akillionvoice/callcore/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := s.seedAgentProfiles(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed agent profiles: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS agent_profiles (
			agent_type TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			system_prompt TEXT NOT NULL,
			keywords TEXT,
			priority INTEGER NOT NULL DEFAULT 1,
			max_turns INTEGER NOT NULL DEFAULT 20,
			timeout_seconds INTEGER NOT NULL DEFAULT 30,
			follow_up_template TEXT,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS calls (
			call_id TEXT PRIMARY KEY,
			caller_id TEXT NOT NULL,
			agent_type TEXT NOT NULL,
			routing_confidence REAL NOT NULL DEFAULT 0,
			routing_keywords TEXT,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			duration_seconds REAL,
			turn_count INTEGER NOT NULL DEFAULT 0,
			summary TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_status ON calls(status, started_at)`,
		`CREATE TABLE IF NOT EXISTS turns (
			turn_id TEXT PRIMARY KEY,
			call_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (call_id) REFERENCES calls(call_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_call ON turns(call_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			call_id TEXT PRIMARY KEY,
			summary TEXT NOT NULL,
			key_topics TEXT,
			sentiment TEXT NOT NULL,
			resolution_status TEXT NOT NULL,
			turn_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (call_id) REFERENCES calls(call_id)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ListAgentProfiles returns all profiles in insertion order. The order is
// load-bearing: the router breaks score ties by directory insertion order.
func (s *SQLiteStore) ListAgentProfiles(ctx context.Context) ([]domain.AgentProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_type, name, description, system_prompt, keywords, priority,
		       max_turns, timeout_seconds, follow_up_template, updated_at
		FROM agent_profiles ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.AgentProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// GetAgentProfile returns one profile, or ErrNotFound.
func (s *SQLiteStore) GetAgentProfile(ctx context.Context, agentType string) (*domain.AgentProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_type, name, description, system_prompt, keywords, priority,
		       max_turns, timeout_seconds, follow_up_template, updated_at
		FROM agent_profiles WHERE agent_type = ?`, agentType)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// SaveAgentProfile inserts or replaces a profile.
func (s *SQLiteStore) SaveAgentProfile(ctx context.Context, p *domain.AgentProfile) error {
	keywords, err := json.Marshal(p.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_profiles
			(agent_type, name, description, system_prompt, keywords, priority,
			 max_turns, timeout_seconds, follow_up_template, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_type) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			system_prompt = excluded.system_prompt,
			keywords = excluded.keywords,
			priority = excluded.priority,
			max_turns = excluded.max_turns,
			timeout_seconds = excluded.timeout_seconds,
			follow_up_template = excluded.follow_up_template,
			updated_at = excluded.updated_at`,
		p.AgentType, p.Name, p.Description, p.SystemPrompt, string(keywords),
		p.Priority, p.MaxTurns, int(p.Timeout/time.Second), p.FollowUpTemplate,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save agent profile: %w", err)
	}
	return nil
}

// CreateCall inserts a call record.
func (s *SQLiteStore) CreateCall(ctx context.Context, call *domain.CallRecord) error {
	keywords, err := json.Marshal(call.RoutingKeywords)
	if err != nil {
		return fmt.Errorf("failed to encode routing keywords: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calls (call_id, caller_id, agent_type, routing_confidence,
		                   routing_keywords, status, started_at, turn_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		call.CallID, call.CallerID, call.AgentType, call.RoutingConfidence,
		string(keywords), string(call.Status), call.StartedAt.UTC(), call.TurnCount)
	if err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}
	return nil
}

// GetCall returns one call record, or ErrNotFound.
func (s *SQLiteStore) GetCall(ctx context.Context, callID string) (*domain.CallRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT call_id, caller_id, agent_type, routing_confidence, routing_keywords,
		       status, started_at, ended_at, duration_seconds, turn_count, summary
		FROM calls WHERE call_id = ?`, callID)

	var (
		call     domain.CallRecord
		keywords sql.NullString
		status   string
		endedAt  sql.NullTime
		duration sql.NullFloat64
		summary  sql.NullString
	)
	err := row.Scan(&call.CallID, &call.CallerID, &call.AgentType,
		&call.RoutingConfidence, &keywords, &status, &call.StartedAt,
		&endedAt, &duration, &call.TurnCount, &summary)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	call.Status = domain.CallStatus(status)
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &call.RoutingKeywords); err != nil {
			return nil, fmt.Errorf("failed to decode routing keywords: %w", err)
		}
	}
	if endedAt.Valid {
		t := endedAt.Time
		call.EndedAt = &t
	}
	if duration.Valid {
		call.DurationSeconds = duration.Float64
	}
	if summary.Valid {
		call.Summary = summary.String
	}
	return &call, nil
}

// FinalizeCall records the end state of a call.
func (s *SQLiteStore) FinalizeCall(ctx context.Context, callID string, status domain.CallStatus, durationSeconds float64, turnCount int, summary string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE calls SET status = ?, ended_at = ?, duration_seconds = ?,
		                 turn_count = ?, summary = ?
		WHERE call_id = ?`,
		string(status), time.Now().UTC(), durationSeconds, turnCount, summary, callID)
	if err != nil {
		return fmt.Errorf("failed to finalize call: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTurn appends one conversation turn.
func (s *SQLiteStore) CreateTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (turn_id, call_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		turn.TurnID, turn.CallID, string(turn.Role), turn.Text, turn.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create turn: %w", err)
	}
	return nil
}

// GetTurns returns all turns of a call in order.
func (s *SQLiteStore) GetTurns(ctx context.Context, callID string) ([]domain.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT turn_id, call_id, role, content, created_at
		FROM turns WHERE call_id = ? ORDER BY created_at, rowid`, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var (
			turn domain.ConversationTurn
			role string
		)
		if err := rows.Scan(&turn.TurnID, &turn.CallID, &role, &turn.Text, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = domain.Role(role)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// SaveSummary persists the end-of-call summary report.
func (s *SQLiteStore) SaveSummary(ctx context.Context, callID string, report *domain.SummaryReport) error {
	topics, err := json.Marshal(report.KeyTopics)
	if err != nil {
		return fmt.Errorf("failed to encode key topics: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO summaries (call_id, summary, key_topics, sentiment,
		                       resolution_status, turn_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(call_id) DO UPDATE SET
			summary = excluded.summary,
			key_topics = excluded.key_topics,
			sentiment = excluded.sentiment,
			resolution_status = excluded.resolution_status,
			turn_count = excluded.turn_count`,
		callID, report.Summary, string(topics), string(report.Sentiment),
		string(report.ResolutionStatus), report.TurnCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.AgentProfile, error) {
	var (
		p              domain.AgentProfile
		description    sql.NullString
		keywords       sql.NullString
		timeoutSeconds int
		template       sql.NullString
	)
	err := row.Scan(&p.AgentType, &p.Name, &description, &p.SystemPrompt,
		&keywords, &p.Priority, &p.MaxTurns, &timeoutSeconds, &template, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan agent profile: %w", err)
	}
	p.Description = description.String
	p.FollowUpTemplate = template.String
	p.Timeout = time.Duration(timeoutSeconds) * time.Second
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &p.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode keywords: %w", err)
		}
	}
	return &p, nil
}

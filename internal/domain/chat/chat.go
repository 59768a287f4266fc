// Package chat defines the conversation domain types for the turn engine.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// Turn roles. System directives are never stored as turns; they travel as the
// composed instruction on the request itself.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Citation points at a legal source referenced by a model turn.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Attachment is metadata for a case document attached to a conversation.
// Content lives in the blob store and is fetched by path.
type Attachment struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	MIMEType string `json:"mime_type"`
}

// Turn is a single conversation entry. Immutable once created.
type Turn struct {
	Role        string       `json:"role"`
	Text        string       `json:"text"`
	Citations   []Citation   `json:"citations,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
}

// Conversation is an ordered sequence of turns stored under a deterministic key.
type Conversation struct {
	Key        string    `json:"key"`
	AccountID  string    `json:"account_id"`
	DomainArea string    `json:"domain_area"`
	Topic      string    `json:"topic"`
	Mode       string    `json:"mode"`
	AgentID    string    `json:"agent_id,omitempty"`
	Turns      []Turn    `json:"turns"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key derives the deterministic conversation key from its coordinates.
// The agent id segment is omitted when empty.
func Key(domainArea, topic, mode, agentID string) string {
	parts := []string{slug(domainArea), slug(topic), slug(mode)}
	if agentID != "" {
		parts = append(parts, slug(agentID))
	}
	return strings.Join(parts, ":")
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}

// Interaction modes offered by the product.
const (
	ModeAdvice   = "porada"
	ModeDocument = "pismo"
	ModeAnalysis = "analiza"
	ModeStrategy = "strategia"
	ModeAppHelp  = "apphelp"
)

// AppHelpTopic is the topic sentinel that marks in-app help conversations.
const AppHelpTopic = "Asystent Aplikacji"

// AppHelpKeySuffix marks in-app help conversations by key.
const AppHelpKeySuffix = "-apphelp"

// TurnRequest is the submitTurn payload.
type TurnRequest struct {
	History              []Turn `json:"history"`
	Mode                 string `json:"mode"`
	DomainArea           string `json:"domain_area"`
	Topic                string `json:"topic"`
	ConversationKey      string `json:"conversation_key"`
	Language             string `json:"language"`
	LocalOnly            bool   `json:"local_only"`
	AgentID              string `json:"agent_id,omitempty"`
	AgentInstructions    string `json:"agent_instructions,omitempty"`
	SupplementalArticles string `json:"supplemental_articles,omitempty"`
}

// Validate checks required submitTurn fields.
func (r *TurnRequest) Validate() error {
	if len(r.History) == 0 {
		return fmt.Errorf("history is required")
	}
	if r.ConversationKey == "" {
		return fmt.Errorf("conversation_key is required")
	}
	return nil
}

// Usage is the per-turn usage block returned to the caller.
type Usage struct {
	PromptTokens    int64   `json:"prompt_tokens"`
	CandidateTokens int64   `json:"candidate_tokens"`
	TotalTokens     int64   `json:"total_tokens"`
	Cost            float64 `json:"cost"`
	AppTokens       int64   `json:"app_tokens"`
}

// TurnResponse is the submitTurn result.
type TurnResponse struct {
	Text    string     `json:"text"`
	Sources []Citation `json:"sources,omitempty"`
	Usage   Usage      `json:"usage"`
}

// StrategicRequest is the submitStrategicTurn payload.
type StrategicRequest struct {
	History         []Turn `json:"history"`
	Language        string `json:"language"`
	ConversationKey string `json:"conversation_key"`
	LocalOnly       bool   `json:"local_only"`
}

// Validate checks required submitStrategicTurn fields.
func (r *StrategicRequest) Validate() error {
	if len(r.History) == 0 {
		return fmt.Errorf("history is required")
	}
	if r.ConversationKey == "" {
		return fmt.Errorf("conversation_key is required")
	}
	return nil
}

// SuggestionsRequest is the submitSuggestions payload.
type SuggestionsRequest struct {
	History    []Turn `json:"history"`
	DomainArea string `json:"domain_area"`
	Topic      string `json:"topic"`
	Language   string `json:"language"`
}

// Suggestions groups tactical guidance extracted from a conversation.
type Suggestions struct {
	DefenseTactics          []string `json:"defense_tactics"`
	AttackStrategies        []string `json:"attack_strategies"`
	EvidenceToGather        []string `json:"evidence_to_gather"`
	ImportantDeadlines      []string `json:"important_deadlines"`
	MitigatingCircumstances []string `json:"mitigating_circumstances"`
	AlternativeSolutions    []string `json:"alternative_solutions"`
}

// User roles inferred by submitSuggestions.
const (
	RolePlaintiff = "plaintiff"
	RoleDefendant = "defendant"
	RoleUnclear   = "unclear"
)

// SuggestionsResponse is the submitSuggestions result.
type SuggestionsResponse struct {
	Suggestions Suggestions `json:"suggestions"`
	UserRole    string      `json:"user_role"`
	Usage       Usage       `json:"usage"`
}

// ClassifyRequest is the submitCaseClassification payload.
type ClassifyRequest struct {
	Description string `json:"description"`
	Language    string `json:"language"`
	LocalOnly   bool   `json:"local_only"`
}

// Classification locates a case description in the product taxonomy.
type Classification struct {
	DomainArea string `json:"domain_area"`
	Topic      string `json:"topic"`
	Mode       string `json:"mode"`
}

// ClassifyResponse is the submitCaseClassification result. Result and
// ConversationKey are nil/empty when the description could not be classified.
type ClassifyResponse struct {
	Result          *Classification `json:"result"`
	Usage           Usage           `json:"usage"`
	ConversationKey string          `json:"conversation_key,omitempty"`
}

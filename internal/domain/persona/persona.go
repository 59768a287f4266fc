// Package persona resolves which prompt-construction strategy applies to a
// request. The kind is resolved once, early, and passed downward; call sites
// never re-derive it from raw request fields.
package persona

import (
	"strings"

	"github.com/velumlaw/counsel/internal/domain/chat"
)

// Kind selects one of the mutually exclusive directive strategies.
type Kind int

const (
	// KindStandardDomain composes safety core + domain pillar rules + mode
	// instructions for a regular legal conversation.
	KindStandardDomain Kind = iota
	// KindAppHelp is the fixed technical-guide persona for in-app help. It
	// dominates every other input except target language.
	KindAppHelp
	// KindStandaloneAgent uses only the agent's own identity and
	// instructions plus the safety core; pillar rules are excluded.
	KindStandaloneAgent
	// KindOverlayAgent layers agent instructions on top of the standard
	// domain composition.
	KindOverlayAgent
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindAppHelp:
		return "app_help"
	case KindStandaloneAgent:
		return "standalone_agent"
	case KindOverlayAgent:
		return "overlay_agent"
	default:
		return "standard_domain"
	}
}

// Directive is the resolved persona plus the inputs its composer needs.
type Directive struct {
	Kind              Kind
	DomainArea        string
	Topic             string
	Mode              string
	Language          string
	AgentID           string
	AgentInstructions string
	KnowledgeDigest   string
	HasAttachments    bool
}

// Agent is a stored standalone-agent record resolved by id.
type Agent struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Overlay      bool   `json:"overlay"`
}

// ResolveInput carries the request fields that determine the persona kind.
type ResolveInput struct {
	Mode            string
	Topic           string
	ConversationKey string
	// AgentInstructions is inline instruction text supplied on the request.
	AgentInstructions string
	// Agent is the stored agent record, when an agent id resolved to one.
	Agent *Agent
}

// Resolve picks the persona kind by strict precedence: app-help dominates,
// then standalone agents, then overlay agents, then the standard composition.
func Resolve(in ResolveInput) Kind {
	if IsAppHelp(in.Mode, in.Topic, in.ConversationKey) {
		return KindAppHelp
	}
	if in.AgentInstructions != "" {
		return KindStandaloneAgent
	}
	if in.Agent != nil {
		if in.Agent.Overlay {
			return KindOverlayAgent
		}
		return KindStandaloneAgent
	}
	return KindStandardDomain
}

// IsAppHelp is the single source of truth for in-app help detection:
// an explicit mode flag, the topic sentinel, or the key sentinel suffix.
func IsAppHelp(mode, topic, conversationKey string) bool {
	if mode == chat.ModeAppHelp {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(topic), chat.AppHelpTopic) {
		return true
	}
	return strings.HasSuffix(conversationKey, chat.AppHelpKeySuffix)
}

package service

import (
	"context"
	"strings"

	"github.com/velumlaw/counsel/internal/domain/persona"
)

// PromptComposer builds the system directive for a turn. Composition is a
// pure function of the resolved persona directive and the (optional)
// configuration overrides; it never fails — every lookup falls back to the
// built-in per-language tables.
type PromptComposer struct {
	settings *SettingsService
}

// NewPromptComposer creates a PromptComposer. settings may be nil; the
// composer then uses built-ins only.
func NewPromptComposer(settings *SettingsService) *PromptComposer {
	return &PromptComposer{settings: settings}
}

// Compose produces the directive text for the resolved persona.
func (p *PromptComposer) Compose(ctx context.Context, d persona.Directive) string {
	lang := normalizeLanguage(d.Language)

	switch d.Kind {
	case persona.KindAppHelp:
		// The technical-guide persona dominates every other input except
		// the target language.
		return p.lookup(ctx, "prompt.apphelp."+lang, appHelpPersona[lang]) +
			"\n\n" + languageDirective[lang]

	case persona.KindStandaloneAgent:
		return p.composeStandalone(ctx, d, lang)

	default:
		return p.composeDomain(ctx, d, lang)
	}
}

// composeStandalone builds a directive from the agent's own identity and the
// safety core only. Domain pillar rules are deliberately absent.
func (p *PromptComposer) composeStandalone(ctx context.Context, d persona.Directive, lang string) string {
	sections := []string{
		p.lookup(ctx, "prompt.safety."+lang, safetyCore[lang]),
		strings.TrimSpace(d.AgentInstructions),
	}
	if d.KnowledgeDigest != "" {
		sections = append(sections, knowledgeDigestHeader[lang]+"\n"+d.KnowledgeDigest)
	}
	if d.HasAttachments {
		sections = append(sections, attachmentMarker[lang])
	}
	sections = append(sections, languageDirective[lang])
	return joinSections(sections)
}

// composeDomain builds the standard composition: safety core + domain pillar
// + mode instructions, with overlay-agent instructions prepended when present.
func (p *PromptComposer) composeDomain(ctx context.Context, d persona.Directive, lang string) string {
	var sections []string

	if d.Kind == persona.KindOverlayAgent && d.AgentInstructions != "" {
		sections = append(sections, strings.TrimSpace(d.AgentInstructions))
	}

	sections = append(sections, p.lookup(ctx, "prompt.safety."+lang, safetyCore[lang]))
	sections = append(sections, p.pillar(ctx, d.DomainArea, lang))

	if mi := p.modeInstruction(ctx, d.Mode, lang); mi != "" {
		sections = append(sections, mi)
	}
	if d.KnowledgeDigest != "" {
		sections = append(sections, knowledgeDigestHeader[lang]+"\n"+d.KnowledgeDigest)
	}
	if d.HasAttachments {
		sections = append(sections, attachmentMarker[lang])
	}
	sections = append(sections, languageDirective[lang])

	return joinSections(sections)
}

// pillar returns the domain pillar rules for the area, config override
// first, then the built-in table, then the generic pillar.
func (p *PromptComposer) pillar(ctx context.Context, area, lang string) string {
	key := "prompt.domain." + strings.ToLower(strings.ReplaceAll(area, " ", "_")) + "." + lang
	if text, ok := p.override(ctx, key); ok {
		return text
	}
	if byLang, ok := domainPillars[area]; ok {
		if text, ok := byLang[lang]; ok {
			return text
		}
	}
	return genericPillar[lang]
}

// modeInstruction returns mode-specific instructions, or "" for unknown modes.
func (p *PromptComposer) modeInstruction(ctx context.Context, mode, lang string) string {
	if mode == "" {
		return ""
	}
	if text, ok := p.override(ctx, "prompt.mode."+mode+"."+lang); ok {
		return text
	}
	if byLang, ok := modeInstructions[mode]; ok {
		return byLang[lang]
	}
	return ""
}

// lookup returns the config override for key, else the built-in text.
func (p *PromptComposer) lookup(ctx context.Context, key, builtin string) string {
	if text, ok := p.override(ctx, key); ok {
		return text
	}
	return builtin
}

func (p *PromptComposer) override(ctx context.Context, key string) (string, bool) {
	if p.settings == nil {
		return "", false
	}
	return p.settings.PromptOverride(ctx, key)
}

func joinSections(sections []string) string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}

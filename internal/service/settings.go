package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/velumlaw/counsel/internal/domain/billing"
	"github.com/velumlaw/counsel/internal/port/cache"
	"github.com/velumlaw/counsel/internal/port/database"
)

// Dynamic-config document keys.
const (
	settingPricing = "billing.pricing"
	settingRouting = "models.routing"
)

// Built-in model routing, used when the routing document is unavailable.
var defaultRouting = ModelRouting{
	Default:   "gemini-2.5-flash",
	Strategic: "gemini-2.5-pro",
	ByMode:    map[string]string{},
}

// ModelRouting maps interaction modes to provider model names.
type ModelRouting struct {
	Default   string            `json:"default"`
	Strategic string            `json:"strategic"`
	ByMode    map[string]string `json:"by_mode"`
}

// ModelFor returns the model serving the given mode.
func (r ModelRouting) ModelFor(mode string) string {
	if m, ok := r.ByMode[mode]; ok && m != "" {
		return m
	}
	return r.Default
}

// SettingsService reads dynamic configuration documents through a tiered
// cache. Every read degrades to a built-in default; a config outage never
// fails a request.
type SettingsService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewSettingsService creates a SettingsService. c may be nil, in which case
// reads go straight to the store.
func NewSettingsService(store database.Store, c cache.Cache, ttl time.Duration) *SettingsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SettingsService{store: store, cache: c, ttl: ttl}
}

// raw fetches a settings document, cache first. A store failure is logged
// and reported as a miss.
func (s *SettingsService) raw(ctx context.Context, key string) (json.RawMessage, bool) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, "settings:"+key); err == nil && ok {
			return data, true
		}
	}

	data, err := s.store.GetSetting(ctx, key)
	if err != nil {
		slog.Debug("settings read degraded", "key", key, "error", err)
		return nil, false
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, "settings:"+key, data, s.ttl)
	}
	return data, true
}

// Pricing returns the active pricing document, falling back to the built-in
// table when the store is unreachable or the document is malformed.
func (s *SettingsService) Pricing(ctx context.Context) billing.PricingConfig {
	fallback := billing.DefaultPricing()

	data, ok := s.raw(ctx, settingPricing)
	if !ok {
		return fallback
	}

	var cfg billing.PricingConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("pricing document malformed, using built-in rates", "error", err)
		return fallback
	}
	if len(cfg.RatesByModel) == 0 {
		cfg.RatesByModel = fallback.RatesByModel
	}
	if cfg.ProfitMultiplier <= 0 {
		cfg.ProfitMultiplier = fallback.ProfitMultiplier
	}
	return cfg
}

// Routing returns the model routing table, falling back to built-in defaults.
func (s *SettingsService) Routing(ctx context.Context) ModelRouting {
	data, ok := s.raw(ctx, settingRouting)
	if !ok {
		return defaultRouting
	}

	var r ModelRouting
	if err := json.Unmarshal(data, &r); err != nil {
		slog.Warn("routing document malformed, using built-in routing", "error", err)
		return defaultRouting
	}
	if r.Default == "" {
		r.Default = defaultRouting.Default
	}
	if r.Strategic == "" {
		r.Strategic = defaultRouting.Strategic
	}
	if r.ByMode == nil {
		r.ByMode = map[string]string{}
	}
	return r
}

// PromptOverride returns the configured override for a prompt-table key
// (e.g. "prompt.safety.pl"). The document value is a JSON string.
func (s *SettingsService) PromptOverride(ctx context.Context, key string) (string, bool) {
	data, ok := s.raw(ctx, key)
	if !ok {
		return "", false
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil || text == "" {
		return "", false
	}
	return text, true
}

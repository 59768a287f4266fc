package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/velumlaw/counsel/internal/domain/billing"
)

func TestSettings_PricingFallsBackWhenStoreUnreachable(t *testing.T) {
	store := newFakeStore()
	// No pricing document stored: every read is a miss.
	s := NewSettingsService(store, nil, time.Minute)

	got := s.Pricing(context.Background())
	want := billing.DefaultPricing()
	if got.ProfitMultiplier != want.ProfitMultiplier {
		t.Fatalf("multiplier = %v", got.ProfitMultiplier)
	}
	if got.RatesByModel["gemini-2.5-flash"] != want.RatesByModel["gemini-2.5-flash"] {
		t.Fatalf("rates = %+v", got.RatesByModel)
	}
}

func TestSettings_PricingMalformedDocumentFallsBack(t *testing.T) {
	store := newFakeStore()
	store.settings[settingPricing] = json.RawMessage(`{"rates_by_model": "nope"`)
	s := NewSettingsService(store, nil, time.Minute)

	got := s.Pricing(context.Background())
	if got.ProfitMultiplier != billing.DefaultPricing().ProfitMultiplier {
		t.Fatalf("malformed document must yield built-ins, got %+v", got)
	}
}

func TestSettings_PricingDocumentFieldsRepaired(t *testing.T) {
	store := newFakeStore()
	store.settings[settingPricing] = json.RawMessage(`{"rates_by_model":{"custom-model":{"input":1,"output":2}}}`)
	s := NewSettingsService(store, nil, time.Minute)

	got := s.Pricing(context.Background())
	if got.RatesByModel["custom-model"].Output != 2 {
		t.Fatalf("document rates lost: %+v", got.RatesByModel)
	}
	// Missing multiplier is repaired from the built-in default.
	if got.ProfitMultiplier != 1.3 {
		t.Fatalf("multiplier = %v", got.ProfitMultiplier)
	}
}

func TestSettings_RoutingDefaultsAndByMode(t *testing.T) {
	store := newFakeStore()
	s := NewSettingsService(store, nil, time.Minute)

	r := s.Routing(context.Background())
	if r.Default != "gemini-2.5-flash" || r.Strategic != "gemini-2.5-pro" {
		t.Fatalf("built-in routing = %+v", r)
	}

	store.settings[settingRouting] = json.RawMessage(`{"by_mode":{"pismo":"gemini-2.5-pro"}}`)
	r = s.Routing(context.Background())
	if r.ModelFor("pismo") != "gemini-2.5-pro" {
		t.Fatalf("by-mode routing lost: %+v", r)
	}
	if r.ModelFor("porada") != "gemini-2.5-flash" {
		t.Fatalf("empty default must be repaired, got %q", r.ModelFor("porada"))
	}
}

func TestSettings_PromptOverride(t *testing.T) {
	store := newFakeStore()
	raw, _ := json.Marshal("tekst zastępczy")
	store.settings["prompt.mode.porada.pl"] = raw
	s := NewSettingsService(store, nil, time.Minute)

	text, ok := s.PromptOverride(context.Background(), "prompt.mode.porada.pl")
	if !ok || text != "tekst zastępczy" {
		t.Fatalf("override = %q ok=%v", text, ok)
	}
	if _, ok := s.PromptOverride(context.Background(), "prompt.mode.pismo.pl"); ok {
		t.Fatal("missing key must report no override")
	}
}

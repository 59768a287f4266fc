//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/velumlaw/counsel/internal/domain/billing"
	"github.com/velumlaw/counsel/internal/domain/chat"
)

func postJSON(t *testing.T, path, body string, out any) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, testServer.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, path string, out any) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, testServer.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestTurnPersistsConversationAndChargesLedger(t *testing.T) {
	before, err := testStore.GetLedger(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("ledger before: %v", err)
	}

	body := `{
		"history": [{"role": "user", "text": "czy mogę odwołać się od wypowiedzenia?"}],
		"mode": "porada",
		"domain_area": "Prawo Pracy",
		"topic": "Wypowiedzenie umowy o pracę",
		"conversation_key": "prawo-pracy:wypowiedzenie-umowy-o-prace:porada",
		"language": "pl"
	}`

	var turn chat.TurnResponse
	if code := postJSON(t, "/api/v1/chat/turn", body, &turn); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if turn.Text == "" {
		t.Fatal("expected answer text")
	}

	var conv chat.Conversation
	if code := getJSON(t, "/api/v1/conversations/prawo-pracy:wypowiedzenie-umowy-o-prace:porada", &conv); code != http.StatusOK {
		t.Fatalf("get conversation status = %d, want 200", code)
	}
	if len(conv.Turns) != 2 {
		t.Fatalf("turns = %d, want user + model", len(conv.Turns))
	}
	if conv.Turns[1].Role != chat.RoleModel {
		t.Fatalf("last turn role = %q", conv.Turns[1].Role)
	}

	after, err := testStore.GetLedger(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("ledger after: %v", err)
	}
	if after.SpentAmount <= before.SpentAmount {
		t.Fatalf("spent = %f, want > %f", after.SpentAmount, before.SpentAmount)
	}
	if after.TokensUsed <= before.TokensUsed {
		t.Fatalf("tokens = %d, want > %d", after.TokensUsed, before.TokensUsed)
	}
}

func TestLocalOnlyTurnChargesWithoutPersisting(t *testing.T) {
	before, err := testStore.GetLedger(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("ledger before: %v", err)
	}

	body := `{
		"history": [{"role": "user", "text": "opis poufnej sprawy"}],
		"mode": "porada",
		"domain_area": "Prawo Karne",
		"topic": "Poufna sprawa",
		"conversation_key": "prawo-karne:poufna-sprawa:porada",
		"language": "pl",
		"local_only": true
	}`
	if code := postJSON(t, "/api/v1/chat/turn", body, nil); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	if code := getJSON(t, "/api/v1/conversations/prawo-karne:poufna-sprawa:porada", nil); code != http.StatusNotFound {
		t.Fatalf("get conversation status = %d, want 404", code)
	}

	after, err := testStore.GetLedger(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("ledger after: %v", err)
	}
	if after.SpentAmount <= before.SpentAmount {
		t.Fatal("local-only turn must still be charged")
	}
}

func TestLedgerEndpoint(t *testing.T) {
	var ledger billing.Ledger
	if code := getJSON(t, "/api/v1/account/ledger", &ledger); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if ledger.AccountID != testAccount {
		t.Fatalf("account = %q, want %q", ledger.AccountID, testAccount)
	}
	if ledger.CreditLimit != 100 {
		t.Fatalf("credit limit = %f, want 100", ledger.CreditLimit)
	}
}

func TestRequestWithoutKeyIsRejected(t *testing.T) {
	resp, err := http.Get(testServer.URL + "/api/v1/account/ledger")
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	resp, err := http.Get(testServer.URL + "/health")
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/port/database"
)

// apiKeyPrefix marks credentials issued by this service.
const apiKeyPrefix = "csl"

// AuthService verifies API keys and resolves them to account ids.
// Successful verifications are cached briefly so that every turn does not
// pay a bcrypt comparison.
type AuthService struct {
	store      database.Store
	bcryptCost int

	mu    sync.Mutex
	cache map[string]authCacheEntry
}

type authCacheEntry struct {
	accountID string
	expiresAt time.Time
}

const authCacheTTL = 2 * time.Minute

// NewAuthService creates an AuthService.
func NewAuthService(store database.Store, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:      store,
		bcryptCost: bcryptCost,
		cache:      make(map[string]authCacheEntry),
	}
}

// VerifyKey resolves a presented credential of the form "csl.<keyID>.<secret>"
// to its account id. All failures map to ErrUnauthenticated.
func (s *AuthService) VerifyKey(ctx context.Context, presented string) (string, error) {
	parts := strings.Split(presented, ".")
	if len(parts) != 3 || parts[0] != apiKeyPrefix {
		return "", domain.ErrUnauthenticated
	}
	keyID, secret := parts[1], parts[2]

	s.mu.Lock()
	if e, ok := s.cache[presented]; ok && time.Now().Before(e.expiresAt) {
		s.mu.Unlock()
		return e.accountID, nil
	}
	s.mu.Unlock()

	accountID, hash, err := s.store.GetAPIKey(ctx, keyID)
	if err != nil {
		return "", domain.ErrUnauthenticated
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
		return "", domain.ErrUnauthenticated
	}

	s.mu.Lock()
	s.cache[presented] = authCacheEntry{accountID: accountID, expiresAt: time.Now().Add(authCacheTTL)}
	s.mu.Unlock()

	return accountID, nil
}

// MintKey generates a new credential and returns the plaintext key together
// with the key id and bcrypt hash to store. The plaintext is shown once.
func (s *AuthService) MintKey() (plaintext, keyID, hash string, err error) {
	idBytes := make([]byte, 6)
	secretBytes := make([]byte, 24)
	if _, err = rand.Read(idBytes); err != nil {
		return "", "", "", fmt.Errorf("generate key id: %w", err)
	}
	if _, err = rand.Read(secretBytes); err != nil {
		return "", "", "", fmt.Errorf("generate secret: %w", err)
	}
	keyID = base64.RawURLEncoding.EncodeToString(idBytes)
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)

	h, err := bcrypt.GenerateFromPassword([]byte(secret), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hash secret: %w", err)
	}
	return apiKeyPrefix + "." + keyID + "." + secret, keyID, string(h), nil
}

package telegram

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

type tokenEntry struct {
	token   string
	expires time.Time
}

// TokenStore caches one admin access token per chat. Entries expire with
// the token's exp claim and are dropped on read or by the sweeper.
type TokenStore struct {
	mu       sync.Mutex
	entries  map[int64]tokenEntry
	fallback time.Duration
	now      func() time.Time
	logger   *logrus.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTokenStore creates a store. fallback is the lifetime used for tokens
// without a readable exp claim.
func NewTokenStore(fallback time.Duration, logger *logrus.Logger) *TokenStore {
	return &TokenStore{
		entries:  make(map[int64]tokenEntry),
		fallback: fallback,
		now:      time.Now,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// expiry reads exp without verifying the signature. The API verifies the
// token on every call; here it only bounds the cache lifetime.
func (s *TokenStore) expiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return s.now().Add(s.fallback)
}

func (s *TokenStore) Put(chatID int64, token string) {
	expires := s.expiry(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chatID] = tokenEntry{token: token, expires: expires}
}

// Get returns the chat's token if it has not expired.
func (s *TokenStore) Get(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[chatID]
	if !ok {
		return "", false
	}
	if !s.now().Before(entry.expires) {
		delete(s.entries, chatID)
		return "", false
	}
	return entry.token, true
}

func (s *TokenStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chatID)
}

func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (s *TokenStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for chatID, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, chatID)
			removed++
		}
	}
	return removed
}

// Start runs Sweep every interval until Stop is called.
func (s *TokenStore) Start(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 {
					s.logger.WithFields(logrus.Fields{
						"removed":   removed,
						"remaining": s.Len(),
					}).Debug("Evicted expired admin tokens")
				}
			}
		}
	}()
}

func (s *TokenStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

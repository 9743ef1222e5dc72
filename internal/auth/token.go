package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// expiryBuffer refreshes tokens slightly before they actually expire so an
// in-flight request never races the deadline.
const expiryBuffer = 60 * time.Second

// TokenSource wraps oauth2 token refresh with persistence. Every time the
// underlying token is refreshed, onRefresh is called with the new token so
// the caller can store it.
type TokenSource struct {
	config    *oauth2.Config
	onRefresh func(*oauth2.Token) error

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenSource creates a token source that persists refreshed tokens
func NewTokenSource(config *oauth2.Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		config:    config,
		token:     token,
		onRefresh: onRefresh,
	}
}

// Token returns a valid token, refreshing and persisting it if needed.
// Implements oauth2.TokenSource.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token.Valid() && time.Until(ts.token.Expiry) > expiryBuffer {
		return ts.token, nil
	}

	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if newToken.AccessToken != ts.token.AccessToken {
		ts.token = newToken
		if ts.onRefresh != nil {
			if err := ts.onRefresh(newToken); err != nil {
				return nil, fmt.Errorf("persisting refreshed token: %w", err)
			}
		}
	}

	return ts.token, nil
}

// CurrentToken returns the currently held token without refreshing
func (ts *TokenSource) CurrentToken() *oauth2.Token {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token
}

// IsExpired reports whether the held token is past or near its expiry.
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return !ts.token.Valid() || time.Until(ts.token.Expiry) <= expiryBuffer
}

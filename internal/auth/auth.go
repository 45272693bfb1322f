// Package auth exposes bearer-token acquisition as a single capability.
// How a token is obtained (an OAuth consent flow, a refresh token, an
// environment variable) stays behind the TokenSource interface.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no token is available.
var ErrNoToken = errors.New("no access token available")

// TokenSource yields a bearer token or fails.
type TokenSource interface {
	AcquireToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) AcquireToken(ctx context.Context) (string, error) { return f(ctx) }

// Static returns a TokenSource that always yields token. An empty token
// yields ErrNoToken.
func Static(token string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) {
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	})
}

type oauth2Source struct {
	ts oauth2.TokenSource
}

// FromOAuth2 adapts an oauth2.TokenSource. The underlying source is wrapped
// with oauth2.ReuseTokenSource so valid tokens are cached.
func FromOAuth2(ts oauth2.TokenSource) TokenSource {
	return &oauth2Source{ts: oauth2.ReuseTokenSource(nil, ts)}
}

func (s *oauth2Source) AcquireToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := s.ts.Token()
	if err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", ErrNoToken
	}
	if !tok.Valid() {
		return "", fmt.Errorf("acquire token: %w", errExpired)
	}
	return tok.AccessToken, nil
}

var errExpired = errors.New("access token expired")

// StoredToken builds a TokenSource from a previously obtained access token
// and optional expiry.
func StoredToken(accessToken string, tok *oauth2.Token) TokenSource {
	if tok == nil {
		tok = &oauth2.Token{}
	}
	if accessToken != "" {
		tok.AccessToken = accessToken
	}
	if tok.AccessToken == "" {
		return Static("")
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	return FromOAuth2(oauth2.StaticTokenSource(tok))
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestStatic(t *testing.T) {
	tok, err := Static("abc").AcquireToken(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("expected abc, got %q (%v)", tok, err)
	}

	_, err = Static("").AcquireToken(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestStoredToken(t *testing.T) {
	ctx := context.Background()

	got, err := StoredToken("ya29.token", nil).AcquireToken(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ya29.token" {
		t.Errorf("expected ya29.token, got %q", got)
	}

	_, err = StoredToken("", nil).AcquireToken(ctx)
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}

	expired := &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}
	_, err = StoredToken("", expired).AcquireToken(ctx)
	if err == nil {
		t.Error("expected error for expired token")
	}
}

func TestFromOAuth2_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FromOAuth2(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"})).AcquireToken(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shiplane-dev/shiplane/internal/apperr"

	"golang.org/x/oauth2"
)

// fakeOAuthProvider exchanges any code except "bad" for a fixed identity.
type fakeOAuthProvider struct {
	user OAuthUser
}

func (p *fakeOAuthProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (p *fakeOAuthProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if code == "bad" {
		return nil, errors.New("invalid_grant")
	}
	return &oauth2.Token{AccessToken: "provider-token"}, nil
}

func (p *fakeOAuthProvider) FetchUser(_ context.Context, _ *oauth2.Token) (*OAuthUser, error) {
	user := p.user
	return &user, nil
}

func TestOAuthServiceFirstLoginCreatesUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	provider := &fakeOAuthProvider{user: OAuthUser{
		Email:       "Dev@Example.com",
		DisplayName: "Dev",
		AvatarURL:   "https://avatars.example.com/dev",
	}}
	svc := NewOAuthService(provider, env.users, env.tokens)

	result, err := svc.LoginWithCode(ctx, "good", "ua", "ip")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if result.User.Email != "dev@example.com" {
		t.Fatalf("email not normalized: %q", result.User.Email)
	}
	if result.User.AvatarURL == nil || *result.User.AvatarURL != provider.user.AvatarURL {
		t.Fatalf("avatar not stored: %v", result.User.AvatarURL)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("login did not issue tokens")
	}

	// Second login reuses the account.
	again, err := svc.LoginWithCode(ctx, "good", "ua", "ip")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.User.ID != result.User.ID {
		t.Fatalf("second login created a new user: %s vs %s", again.User.ID, result.User.ID)
	}
}

func TestOAuthServiceLoginLinksExistingPasswordAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	existing := env.mustUser(t, "dev@example.com")
	provider := &fakeOAuthProvider{user: OAuthUser{Email: "dev@example.com", DisplayName: "Dev"}}
	svc := NewOAuthService(provider, env.users, env.tokens)

	result, err := svc.LoginWithCode(ctx, "good", "ua", "ip")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.ID != existing.ID {
		t.Fatalf("oauth login did not match existing account: %s vs %s", result.User.ID, existing.ID)
	}
}

func TestOAuthServiceFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	provider := &fakeOAuthProvider{user: OAuthUser{DisplayName: "No Email"}}
	svc := NewOAuthService(provider, env.users, env.tokens)

	if _, err := svc.LoginWithCode(ctx, "", "ua", "ip"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("empty code: expected VALIDATION, got %v", err)
	}
	if _, err := svc.LoginWithCode(ctx, "bad", "ua", "ip"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("failed exchange: expected UNAUTHENTICATED, got %v", err)
	}
	if _, err := svc.LoginWithCode(ctx, "good", "ua", "ip"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("identity without email: expected UNAUTHENTICATED, got %v", err)
	}
}

func TestOAuthServiceDisabledWithoutProvider(t *testing.T) {
	env := newTestEnv(t)
	svc := NewOAuthService(nil, env.users, env.tokens)

	if svc.Enabled() {
		t.Fatal("provider-less service reports enabled")
	}
	if _, err := svc.LoginURL("state"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("login url: expected NOT_FOUND, got %v", err)
	}
	if _, err := svc.LoginWithCode(context.Background(), "good", "ua", "ip"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("login: expected NOT_FOUND, got %v", err)
	}
}

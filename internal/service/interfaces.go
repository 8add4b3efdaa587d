package service

import (
	"context"

	"golang.org/x/oauth2"
)

// OAuthUser is the minimal identity the provider hands back after a
// successful code exchange.
type OAuthUser struct {
	Email       string
	DisplayName string
	AvatarURL   string
}

// OAuthProvider abstracts the external OAuth dance so tests can swap in
// a fake without hitting the network.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUser(ctx context.Context, token *oauth2.Token) (*OAuthUser, error)
}

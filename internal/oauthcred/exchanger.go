// Package oauthcred implements the Credential Exchanger: it turns the
// AuthDescriptor resolved by internal/bootstrap into a source of bearer
// tokens for internal/hubclient and internal/runtime, refreshing them
// transparently via the OAuth2 client-credentials grant.
package oauthcred

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/nordaxis/hubagent/internal/bootstrap"
)

// Exchanger hands out access tokens for one authorization server, refreshing
// them automatically as they approach expiry.
type Exchanger struct {
	src oauth2.TokenSource
}

// New builds an Exchanger from a resolved AuthDescriptor. httpClient may be
// nil, in which case http.DefaultClient is used for the token endpoint.
func New(ctx context.Context, desc bootstrap.AuthDescriptor, httpClient *http.Client) (*Exchanger, error) {
	if desc.ClientID == "" || desc.ClientSecret == "" {
		return nil, fmt.Errorf("oauthcred: auth descriptor missing client credentials")
	}
	if desc.BaseURL == "" {
		return nil, fmt.Errorf("oauthcred: auth descriptor missing base_url")
	}

	cfg := clientcredentials.Config{
		ClientID:     desc.ClientID,
		ClientSecret: desc.ClientSecret,
		TokenURL:     desc.BaseURL + "/oauth/token",
		Scopes:       desc.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	return &Exchanger{src: cfg.TokenSource(ctx)}, nil
}

// Token returns a current, non-expired access token, refreshing against the
// token endpoint if the cached one has expired. Safe for concurrent use:
// oauth2.reuseTokenSource (returned by clientcredentials.Config.TokenSource)
// serializes refreshes internally.
func (e *Exchanger) Token(ctx context.Context) (string, error) {
	tok, err := e.src.Token()
	if err != nil {
		return "", fmt.Errorf("oauthcred: token exchange: %w", err)
	}
	return tok.AccessToken, nil
}

// HTTPClient returns an *http.Client whose RoundTripper attaches a fresh
// bearer token to every outbound request, for use by internal/hubclient.
func (e *Exchanger) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, e.src)
}

package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dos-ui/internal/domain"
	"dos-ui/internal/observability"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	// acrValues enforces the minimum CIS2 authentication assurance level.
	acrValues = "AAL3_ANY"
	// maxAgeSeconds bounds re-authentication freshness at the provider.
	maxAgeSeconds = "300"

	clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
)

// AuthorizationRequest is the outcome of building a sign-in redirect. The
// verifier and nonce must be retained so the callback can complete the
// exchange.
type AuthorizationRequest struct {
	URL          string
	CodeVerifier string
	Nonce        string
}

// Identity is the authenticated principal returned by a completed code
// exchange: verified ID-token claims plus the raw token set.
type Identity struct {
	UserID      string
	DisplayName string
	Orgs        []string
	Roles       []string
	Tokens      *domain.TokenSet
}

// Client drives the authorization-code-with-PKCE flow against CIS2.
// Configuration is resolved lazily on every call so it is always validated
// before use.
type Client struct {
	resolver *Resolver
}

// NewClient creates a Client on top of the given resolver.
func NewClient(resolver *Resolver) *Client {
	return &Client{resolver: resolver}
}

// AuthorizationRequest resolves the provider configuration and builds the
// browser-redirect URL starting the flow, bound to the supplied session
// state. No partial URL is ever returned.
func (c *Client) AuthorizationRequest(ctx context.Context, state string) (*AuthorizationRequest, error) {
	resolved, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	verifier := generateVerifier()
	nonce := generateNonce()
	authURL := buildAuthorizationURL(resolved.Endpoint, resolved.AuthConfig, state, nonce, challengeS256(verifier))

	observability.AuthorizationURLsBuilt.Inc()
	return &AuthorizationRequest{
		URL:          authURL,
		CodeVerifier: verifier,
		Nonce:        nonce,
	}, nil
}

func buildAuthorizationURL(endpoint oauth2.Endpoint, config *ClientConfig, state, nonce, challenge string) string {
	oauthConfig := &oauth2.Config{
		ClientID:    config.ClientID,
		RedirectURL: config.RedirectURI,
		Endpoint:    endpoint,
		Scopes:      strings.Fields(config.Scope),
	}

	return oauthConfig.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("acr_values", acrValues),
		oauth2.SetAuthURLParam("max_age", maxAgeSeconds),
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Exchange redeems an authorization code using the retained PKCE verifier
// and a private-key-JWT client assertion, verifies the returned ID token
// (including the nonce) and returns the normalised identity.
func (c *Client) Exchange(ctx context.Context, code, verifier, nonce string) (*Identity, error) {
	resolved, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	config := resolved.AuthConfig

	assertion, err := clientAssertion(resolved.PrivateKey, config.KeyID, config.ClientID, resolved.Endpoint.TokenURL)
	if err != nil {
		return nil, err
	}

	oauthConfig := &oauth2.Config{
		ClientID:    config.ClientID,
		RedirectURL: config.RedirectURI,
		Endpoint:    resolved.Endpoint,
		Scopes:      strings.Fields(config.Scope),
	}

	token, err := oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", verifier),
		oauth2.SetAuthURLParam("client_assertion_type", clientAssertionType),
		oauth2.SetAuthURLParam("client_assertion", assertion),
	)
	if err != nil {
		observability.FromContext(ctx).Error("CIS2 token exchange failed",
			"token_endpoint", resolved.Endpoint.TokenURL,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("CIS2 token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("CIS2 did not return an id_token")
	}

	idToken, err := resolved.Provider.Verifier(&gooidc.Config{ClientID: config.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("CIS2 id_token verification failed: %w", err)
	}
	if idToken.Nonce != nonce {
		return nil, errors.New("CIS2 id_token nonce mismatch")
	}

	var claims struct {
		Subject     string   `json:"sub"`
		Name        string   `json:"name"`
		DisplayName string   `json:"display_name"`
		Orgs        []string `json:"nhsid_user_orgs"`
		Roles       []string `json:"nhsid_nrbac_roles"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse CIS2 id_token claims: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("CIS2 id_token missing sub claim")
	}

	displayName := claims.DisplayName
	if displayName == "" {
		displayName = claims.Name
	}

	var expiresIn int64
	if !token.Expiry.IsZero() {
		expiresIn = int64(time.Until(token.Expiry).Seconds())
	}

	return &Identity{
		UserID:      claims.Subject,
		DisplayName: displayName,
		Orgs:        claims.Orgs,
		Roles:       claims.Roles,
		Tokens: &domain.TokenSet{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			IDToken:      rawIDToken,
			TokenType:    token.TokenType,
			ExpiresIn:    expiresIn,
		},
	}, nil
}

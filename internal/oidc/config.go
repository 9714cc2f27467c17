package oidc

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/url"
	"time"

	"dos-ui/internal/observability"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ClientConfig is the CIS2 client configuration stored as JSON in the
// parameter store.
type ClientConfig struct {
	IssuerURL   string `json:"issuerUrl"`
	ClientID    string `json:"clientId"`
	RedirectURI string `json:"redirectUri"`
	Scope       string `json:"scope"`
	KeyID       string `json:"keyId"`
}

// ValidateConfig checks that the fields discovery depends on are present.
func ValidateConfig(config *ClientConfig) error {
	if config.IssuerURL == "" || config.ClientID == "" {
		return fmt.Errorf("invalid CIS2 client config: issuerUrl and clientId are required")
	}
	return nil
}

// ParameterStore reads plain configuration values by name.
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// SecretStore reads secret values by name.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Resolver loads CIS2 client configuration and key material from the
// external parameter and secret stores and performs OIDC discovery.
// Nothing is cached; every resolution validates the configuration before
// use.
type Resolver struct {
	params      ParameterStore
	secrets     SecretStore
	project     string
	environment string
	workspace   string
}

// NewResolver creates a Resolver for the given deployment coordinates.
func NewResolver(params ParameterStore, secrets SecretStore, project, environment, workspace string) *Resolver {
	return &Resolver{
		params:      params,
		secrets:     secrets,
		project:     project,
		environment: environment,
		workspace:   workspace,
	}
}

func (r *Resolver) envPrefix() string {
	if r.workspace != "" {
		return r.environment + "-" + r.workspace
	}
	return r.environment
}

// AuthConfig fetches and validates the CIS2 client configuration.
func (r *Resolver) AuthConfig(ctx context.Context) (*ClientConfig, error) {
	name := fmt.Sprintf("/%s/%s/cis2-client-config", r.project, r.envPrefix())

	raw, err := r.params.GetParameter(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load CIS2 client config from %s: %w", name, err)
	}

	config := &ClientConfig{}
	if err := json.Unmarshal([]byte(raw), config); err != nil {
		return nil, fmt.Errorf("failed to parse CIS2 client config: %w", err)
	}
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("CIS2 client config loaded",
		"client_id", config.ClientID,
	)
	return config, nil
}

// PrivateKey fetches the PEM-encoded CIS2 signing key and parses it as a
// PKCS#8 RSA private key for RS512 signing.
func (r *Resolver) PrivateKey(ctx context.Context) (*rsa.PrivateKey, error) {
	name := fmt.Sprintf("/%s/%s/cis2-private-key", r.project, r.environment)

	value, err := r.secrets.GetSecret(ctx, name)
	if err != nil || value == "" {
		return nil, fmt.Errorf("CIS2 private key not found: %s", name)
	}

	block, _ := pem.Decode([]byte(value))
	if block == nil {
		return nil, fmt.Errorf("CIS2 private key is not valid PEM")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CIS2 private key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("CIS2 private key is not an RSA key")
	}
	return key, nil
}

// Resolved bundles the outcome of one configuration resolution: the
// discovered provider, the client configuration it was discovered with and
// the signing key for the client assertion.
type Resolved struct {
	Provider   *gooidc.Provider
	Endpoint   oauth2.Endpoint
	AuthConfig *ClientConfig
	PrivateKey *rsa.PrivateKey
}

// Resolve loads the client configuration and key material, then performs
// OIDC discovery against the issuer. Discovery failures propagate
// unchanged; there is no retry or fallback provider.
func (r *Resolver) Resolve(ctx context.Context) (*Resolved, error) {
	logger := observability.FromContext(ctx)

	config, err := r.AuthConfig(ctx)
	if err != nil {
		return nil, err
	}

	key, err := r.PrivateKey(ctx)
	if err != nil {
		return nil, err
	}

	issuerURL, err := url.Parse(config.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("malformed issuerUrl %q: %w", config.IssuerURL, err)
	}

	start := time.Now()
	provider, err := gooidc.NewProvider(ctx, issuerURL.String())
	observability.OIDCDiscoveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("CIS2 discovery failed",
			"issuer", issuerURL.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("CIS2 discovery failed for %s: %w", issuerURL, err)
	}

	endpoint := provider.Endpoint()
	logger.Debug("CIS2 discovery successful",
		"issuer", issuerURL.String(),
		"authorization_endpoint", endpoint.AuthURL,
		"token_endpoint", endpoint.TokenURL,
	)

	return &Resolved{
		Provider:   provider,
		Endpoint:   endpoint,
		AuthConfig: config,
		PrivateKey: key,
	}, nil
}

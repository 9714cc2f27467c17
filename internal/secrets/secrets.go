package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMAPI is the subset of the SSM client used here.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ParameterStore reads configuration values from SSM Parameter Store.
type ParameterStore struct {
	client SSMAPI
}

// NewParameterStore wraps an SSM client.
func NewParameterStore(client SSMAPI) *ParameterStore {
	return &ParameterStore{client: client}
}

// GetParameter fetches a decrypted parameter value by name.
func (p *ParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter not found: %s", name)
	}
	return *out.Parameter.Value, nil
}

// SecretStore reads secret values from Secrets Manager.
type SecretStore struct {
	client SecretsManagerAPI
}

// NewSecretStore wraps a Secrets Manager client.
func NewSecretStore(client SecretsManagerAPI) *SecretStore {
	return &SecretStore{client: client}
}

// GetSecret fetches a secret string by name.
func (s *SecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret not found: %s", name)
	}
	return *out.SecretString, nil
}

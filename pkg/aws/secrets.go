package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Secret ids for this service live under the settlement/ namespace.
const (
	secretDBCredentials = "settlement/DB_CREDENTIALS"
	secretJWTSigningKey = "settlement/JWT_SECRET"
)

// DBCredentials mirrors the JSON shape of the settlement/DB_CREDENTIALS
// secret. Empty fields mean the environment value stays in effect.
type DBCredentials struct {
	User     string `json:"POSTGRES_USER"`
	Password string `json:"POSTGRES_PASSWORD"`
	Database string `json:"POSTGRES_DB"`
	Host     string `json:"POSTGRES_HOST"`
	Port     string `json:"POSTGRES_PORT"`
}

// SecretsClient reads the settlement secrets with a small in-process cache.
// Rotation takes effect on process restart, not by TTL.
type SecretsClient struct {
	client *secretsmanager.Client
	cache  map[string]string
	mu     sync.RWMutex
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return &SecretsClient{
		client: secretsmanager.NewFromConfig(cfg),
		cache:  make(map[string]string),
	}
}

// GetDBCredentials fetches and decodes the database credentials secret.
func (s *SecretsClient) GetDBCredentials(ctx context.Context) (*DBCredentials, error) {
	raw, err := s.getSecret(ctx, secretDBCredentials)
	if err != nil {
		return nil, err
	}

	var creds DBCredentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("secret %s is not valid JSON: %w", secretDBCredentials, err)
	}
	return &creds, nil
}

// GetJWTSigningKey fetches the key the admin surface verifies tokens with.
func (s *SecretsClient) GetJWTSigningKey(ctx context.Context) (string, error) {
	return s.getSecret(ctx, secretJWTSigningKey)
}

func (s *SecretsClient) getSecret(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	if v, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &name})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	s.mu.Lock()
	s.cache[name] = *out.SecretString
	s.mu.Unlock()

	return *out.SecretString, nil
}

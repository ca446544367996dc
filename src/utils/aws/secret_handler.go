package aws_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

var ErrEmptySecret = errors.New("secret has no string value")

type SecretManager struct {
	svc secretsmanageriface.SecretsManagerAPI
}

func NewSecretManager(svc secretsmanageriface.SecretsManagerAPI) *SecretManager {
	return &SecretManager{svc: svc}
}

func (s *SecretManager) GetSecretValue(ctx context.Context, secretId string) (string, error) {
	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretId),
	}

	result, err := s.svc.GetSecretValueWithContext(ctx, input)
	if err != nil {
		return "", err
	}
	if result.SecretString == nil || *result.SecretString == "" {
		return "", ErrEmptySecret
	}

	return *result.SecretString, nil
}

// databaseSecret is the document RDS stores for managed credentials.
type databaseSecret struct {
	Engine   string      `json:"engine"`
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	DBName   string      `json:"dbname"`
}

// GetDatabaseURL reads a connection string from the secret. The secret may
// hold the URL itself or an RDS credentials document.
func (s *SecretManager) GetDatabaseURL(ctx context.Context, secretId string) (string, error) {
	value, err := s.GetSecretValue(ctx, secretId)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", secretId, err)
	}
	return ParseDatabaseSecret(value)
}

func ParseDatabaseSecret(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "{") {
		return value, nil
	}

	var secret databaseSecret
	if err := json.Unmarshal([]byte(value), &secret); err != nil {
		return "", fmt.Errorf("invalid database secret: %w", err)
	}
	if secret.Host == "" || secret.DBName == "" {
		return "", errors.New("database secret is missing host or dbname")
	}

	host := secret.Host
	if secret.Port != "" {
		host += ":" + secret.Port.String()
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(secret.Username, secret.Password),
		Host:   host,
		Path:   "/" + secret.DBName,
	}
	return u.String(), nil
}

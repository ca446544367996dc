package aws_handler

import (
	"errors"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

var ErrMissingRegion = errors.New("an AWS region is required to read the database secret")

// Options select where the secrets client connects. Endpoint is only set when
// talking to a local Secrets Manager emulator.
type Options struct {
	Region   string
	Endpoint string
}

// ClientConfig turns Options into the SDK configuration for the secrets client.
func ClientConfig(opts Options) (*aws.Config, error) {
	if opts.Region == "" {
		return nil, ErrMissingRegion
	}
	cfg := aws.NewConfig().WithRegion(opts.Region)
	if opts.Endpoint != "" {
		if _, err := url.ParseRequestURI(opts.Endpoint); err != nil {
			return nil, err
		}
		cfg = cfg.WithEndpoint(opts.Endpoint)
	}
	return cfg, nil
}

// NewDatabaseSecrets opens a session from the shared AWS config and returns the
// reader for the database connection secret.
func NewDatabaseSecrets(opts Options) (*SecretManager, error) {
	cfg, err := ClientConfig(opts)
	if err != nil {
		return nil, err
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}
	return NewSecretManager(secretsmanager.New(sess)), nil
}

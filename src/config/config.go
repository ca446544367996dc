package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Session   SessionConfig   `mapstructure:"session"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	AWS       AWSConfig       `mapstructure:"aws"`
}

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Testing     Environment = "TESTING"
)

type ServiceConfig struct {
	Env            Environment   `mapstructure:"env"`
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
}

type DatabasesConfig struct {
	SQL SQLConfig `mapstructure:"sql"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
	SecretID         string `mapstructure:"secretId"`
	MaxConns         int32  `mapstructure:"maxConns"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
	Secure bool          `mapstructure:"secure"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	ToFile   bool   `mapstructure:"toFile"`
	FilePath string `mapstructure:"filePath"`
}

type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

var ErrMissingSessionSecret = errors.New("SESSION_SECRET is required in production")

// IsProduction reports whether the connection string must come from the environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(string(c.Service.Env), string(Production))
}

// Validate rejects settings the server cannot run with. Outside production a
// missing session secret is replaced at startup.
func (c *Config) Validate() error {
	if c.IsProduction() && c.Session.Secret == "" {
		return ErrMissingSessionSecret
	}
	return nil
}

// DSN returns the connection string, building a keyword/value one from the
// individual settings when no URL is configured.
func (c SQLConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	dsn := fmt.Sprintf("dbname=%s sslmode=disable", c.Database)
	if c.Host != "" {
		dsn += " host=" + c.Host
	}
	if c.Port != "" {
		dsn += " port=" + c.Port
	}
	if c.Username != "" {
		dsn += " user=" + c.Username
	}
	if c.Password != "" {
		dsn += " password=" + c.Password
	}
	return dsn
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.env", string(Development))
	v.SetDefault("service.port", "5003")
	v.SetDefault("service.requestTimeout", 10*time.Second)
	v.SetDefault("databases.sql.database", "portfolio")
	v.SetDefault("databases.sql.maxConns", 5)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("logging.level", "info")
}

// LoadConfig reads appsettings.yaml from path, merges appsettings.<env>.yaml
// when env is set and applies environment overrides. In production the
// connection string is taken from DATABASE_URL.
func LoadConfig(path string, env string) (*Config, error) {
	var cfg Config

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	if env != "" {
		v.SetConfigName("appsettings." + env)
		if err := v.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
		v.Set("service.env", env)
	}

	_ = v.BindEnv("service.port", "PORT")
	_ = v.BindEnv("session.secret", "SESSION_SECRET")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("databases.sql.secretId", "DATABASE_SECRET_ID")
	_ = v.BindEnv("aws.region", "AWS_REGION")
	_ = v.BindEnv("aws.endpoint", "AWS_ENDPOINT_URL")
	if strings.EqualFold(env, string(Production)) {
		_ = v.BindEnv("databases.sql.connection_string", "DATABASE_URL")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

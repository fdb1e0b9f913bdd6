package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/api"
	"github.com/pseudomuto/transformctl/pkg/consts"
	"github.com/pseudomuto/transformctl/pkg/deploy"
	"go.uber.org/zap"
)

var (
	// ErrNoCredentials is returned when neither an API key nor OAuth client
	// credentials are configured.
	ErrNoCredentials = errors.New("either an API key or OAuth client credentials (client id, client secret, token url) are required")

	// ErrMixedCredentials is returned when an API key is combined with OAuth
	// settings.
	ErrMixedCredentials = errors.New("an API key cannot be combined with OAuth client credentials")

	// ErrIncompleteOAuth is returned when only some of the OAuth client
	// credentials are set.
	ErrIncompleteOAuth = errors.New("OAuth requires a client id, a client secret and a token url")

	// ErrNoProject is returned when no project name is configured.
	ErrNoProject = errors.New("a project name is required")
)

// Config holds the settings used to reach the transformations API. It is
// populated from global flags, which in turn read TRANSFORMATIONS_ variables
// from the environment or a .env file.
type Config struct {
	// Cluster selects the platform cluster, e.g. europe-west1-1.
	Cluster string

	// Project is the project that deployed resources live in.
	Project string

	APIKey       string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	Audience     string

	// Timeout bounds every request.
	Timeout time.Duration
}

// Validate checks that exactly one authentication mode is fully configured.
func (c *Config) Validate() error {
	if c.Project == "" {
		return ErrNoProject
	}

	oauth := c.ClientID != "" || c.ClientSecret != "" || c.TokenURL != "" || c.Audience != "" || len(c.Scopes) > 0
	switch {
	case c.APIKey != "" && oauth:
		return ErrMixedCredentials
	case c.APIKey != "":
		return nil
	case !oauth:
		return ErrNoCredentials
	case c.ClientID == "" || c.ClientSecret == "" || c.TokenURL == "":
		return ErrIncompleteOAuth
	}

	return nil
}

// ClusterName returns the configured cluster or the default one.
func (c *Config) ClusterName() string {
	if c.Cluster == "" {
		return consts.DefaultCluster
	}

	return c.Cluster
}

// BaseURL returns the API root for the cluster.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("https://%s.cognitedata.com", c.ClusterName())
}

// OAuthScopes returns the configured scopes. Without explicit scopes and
// without an audience, the cluster's default scope is used.
func (c *Config) OAuthScopes() []string {
	if len(c.Scopes) > 0 || c.Audience != "" {
		return c.Scopes
	}

	return deploy.DefaultScopes(c.ClusterName())
}

// API converts c into a client configuration. Call Validate first.
func (c *Config) API(log *zap.Logger) api.Config {
	cfg := api.Config{
		BaseURL: c.BaseURL(),
		Project: c.Project,
		APIKey:  c.APIKey,
		Timeout: c.Timeout,
		Logger:  log,
	}

	if c.APIKey == "" {
		cfg.OAuth = &api.OAuthConfig{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     c.TokenURL,
			Scopes:       c.OAuthScopes(),
			Audience:     c.Audience,
		}
	}

	return cfg
}

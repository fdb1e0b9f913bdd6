package cmd

import (
	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/api"
	"github.com/pseudomuto/transformctl/pkg/config"
	"github.com/pseudomuto/transformctl/pkg/deploy"
	"go.uber.org/zap"
)

// ClientFactory builds the API client used by a command. Commands call it only
// after the configuration has been validated.
type ClientFactory func(cfg *config.Config, log *zap.Logger) (deploy.Client, error)

// NewClient is the default ClientFactory.
func NewClient(cfg *config.Config, log *zap.Logger) (deploy.Client, error) {
	client, err := api.NewClient(cfg.API(log))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create API client")
	}

	return client, nil
}

package main

import (
	"context"
	"os"

	"github.com/pseudomuto/transformctl/pkg/cmd"
	"github.com/pseudomuto/transformctl/pkg/config"
	"github.com/pseudomuto/transformctl/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	app := fx.New(
		fx.Supply(os.Args, &cmd.Version{
			Version:   version,
			Commit:    commit,
			Timestamp: date,
		}),
		fx.Provide(func() context.Context { return context.Background() }),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		config.Module,
		logger.Module,
		cmd.Module,
	)

	app.Run()
}

package logger

import (
	"context"

	"github.com/pseudomuto/transformctl/pkg/config"
	"github.com/pseudomuto/transformctl/pkg/consts"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("logger", fx.Provide(
	func(lc fx.Lifecycle, env config.Env) (*zap.Logger, error) {
		level, _ := env.LookupEnv(consts.EnvLogLevel)

		log, err := Stderr(level)
		if err != nil {
			return nil, err
		}

		lc.Append(fx.StopHook(func(context.Context) {
			// Syncing stderr fails on some platforms; nothing useful can be done.
			_ = log.Sync()
		}))

		return log, nil
	},
))

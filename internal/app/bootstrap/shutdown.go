// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down background workers and DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if runtime.scheduler != nil {
		runtime.scheduler.Stop()
	}
	if runtime.deliverer != nil {
		runtime.deliverer.Stop()
	}

	if deps.HelpLinkMongoClient != nil {
		logger.Info("disconnecting HelpLink MongoDB client")
		if err := deps.HelpLinkMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}

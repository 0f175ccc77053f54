// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for HelpLink.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, onesignal_app_id, etc.
//   - Environment variables: HELPLINK_MONGO_URI, HELPLINK_ONESIGNAL_APP_ID, etc.
//   - Command-line flags: --mongo_uri, --onesignal_app_id, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "help_link", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// OneSignal push notifications
	{Name: "onesignal_app_id", Default: "", Desc: "OneSignal application id (blank disables push delivery)"},
	{Name: "onesignal_api_key", Default: "", Desc: "OneSignal REST API key"},

	// Notification outbox deliverer
	{Name: "notify_interval", Default: "5s", Desc: "How often the outbox deliverer polls for due notifications"},
	{Name: "notify_max_attempts", Default: 8, Desc: "Delivery attempts before a notification is marked failed"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL of the deployed API"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have access
// to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "HELPLINK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		OneSignalAppID:  appValues.String("onesignal_app_id"),
		OneSignalAPIKey: appValues.String("onesignal_api_key"),

		NotifyInterval:    appValues.Duration("notify_interval", 5*time.Second),
		NotifyMaxAttempts: appValues.Int("notify_max_attempts"),

		BaseURL: appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// HelpLink validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	// Push delivery needs both halves of the credential or neither.
	if (appCfg.OneSignalAppID == "") != (appCfg.OneSignalAPIKey == "") {
		return fmt.Errorf("onesignal_app_id and onesignal_api_key must be set together")
	}

	if appCfg.NotifyMaxAttempts <= 0 {
		return fmt.Errorf("notify_max_attempts must be positive")
	}

	return nil
}

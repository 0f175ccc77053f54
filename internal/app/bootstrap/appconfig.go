// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: WAFFLE's CoreConfig handles
// framework-level settings like HTTP ports, TLS, logging level, and CORS.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// OneSignal push notification configuration
	OneSignalAppID  string // OneSignal application id (blank disables delivery)
	OneSignalAPIKey string // OneSignal REST API key

	// Notification outbox deliverer settings
	NotifyInterval    time.Duration // How often the deliverer polls for due items
	NotifyMaxAttempts int           // Attempts before an item is retired as failed

	// Base URL of the deployed API (informational, used in notification data)
	BaseURL string
}

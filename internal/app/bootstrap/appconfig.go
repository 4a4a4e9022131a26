// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, body limits); AppConfig is everything specific to Astren: the Mongo
// connection, session signing, OAuth client credentials for the external
// task services, and worker cadence.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth redirect URIs
	BaseURL string // e.g., "https://astren.app" or "http://localhost:3000"

	// Microsoft OAuth (To Do sync)
	MicrosoftClientID     string
	MicrosoftClientSecret string

	// Google OAuth (Classroom sync)
	GoogleClientID     string
	GoogleClientSecret string

	// Background workers
	OverdueSweepInterval time.Duration // how often pendiente→vencida is materialized
}

// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything specific
// to the blood donation service lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Authentication
	JWTSecret     string        // HS256 signing secret for bearer tokens (≥32 chars)
	TokenTTL      time.Duration // Bearer token and session cookie lifetime
	SessionKey    string        // Secret key for signing session cookies
	SessionName   string        // Cookie name for sessions
	SessionDomain string        // Cookie domain (blank means current host)

	// Blood requests and search
	RequestTTL          time.Duration // How long a request stays active before expiring
	ExpirySweepInterval time.Duration // How often the expiry worker runs
	SearchDefaultLimit  int           // Donor search page size when the caller gives none

	// Rate limiting for login and register
	LoginRatePerMinute int

	// Store call deadlines; zero keeps the built-in tier
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Email notifications via SendGrid (disabled when the API key is blank)
	SendGridAPIKey string
	MailFrom       string
	MailFromName   string
	SiteName       string // Shown in email subjects and bodies

	// Broker events via RabbitMQ (disabled when the URL is blank)
	RabbitURL      string
	RabbitExchange string

	// Audit logging destinations: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string
}

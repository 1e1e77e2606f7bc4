// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting the service reads at startup. Values are
// parsed from UBOH_-prefixed environment variables.
type Config struct {
	// HTTP configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Optional TLS; both must be set to enable it
	TLSCert string `envconfig:"TLS_CERT" default:""`
	TLSKey  string `envconfig:"TLS_KEY" default:""`

	// MongoDB connection string
	MongoURI string `envconfig:"MONGODB_URI" required:"true"`

	// JWT verification. Either a single secret, or a rotation list in the
	// form "kid:secret,kid2:secret2" plus the kid used for signing.
	JWTSecret    string `envconfig:"JWT_SECRET" default:""`
	JWTKeys      string `envconfig:"JWT_KEYS" default:""`
	JWTActiveKid string `envconfig:"JWT_ACTIVE_KID" default:""`

	// Twilio SMS transport
	SMSAccountSID     string `envconfig:"SMS_ACCOUNT_SID" default:""`
	SMSAuthToken      string `envconfig:"SMS_AUTH_TOKEN" default:""`
	SMSSourceNumber   string `envconfig:"SMS_SOURCE_NUMBER" default:""`
	SMSPersonalNumber string `envconfig:"SMS_PERSONAL_NUMBER" default:""`

	// Requests per minute allowed for the sendSMS action, per caller
	RateLimitRPM int `envconfig:"RATE_LIMIT_RPM" default:"10"`
}

// New parses the environment into a Config and validates it.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("UBOH", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the cross-field rules envconfig cannot express.
func (c *Config) Validate() error {
	if c.JWTSecret == "" && c.JWTKeys == "" {
		return fmt.Errorf("either UBOH_JWT_SECRET or UBOH_JWT_KEYS must be set")
	}
	if c.JWTKeys != "" && c.JWTActiveKid == "" {
		return fmt.Errorf("UBOH_JWT_ACTIVE_KID must be set when UBOH_JWT_KEYS is used")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("UBOH_TLS_CERT and UBOH_TLS_KEY must be set together")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("UBOH_RATE_LIMIT_RPM must be positive")
	}
	return nil
}

// SMSConfigured reports whether the Twilio transport can be used.
func (c *Config) SMSConfigured() bool {
	return c.SMSAccountSID != "" && c.SMSAuthToken != "" &&
		c.SMSSourceNumber != "" && c.SMSPersonalNumber != ""
}

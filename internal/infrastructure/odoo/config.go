// Package odoo implements the remote side of the checkout bridge: the
// Odoo web JSON-RPC session, the generic call gateway and the order
// orchestration built on top of them.
package odoo

import (
	"errors"
	"strings"
)

// Defaults applied by Config.Validate.
const (
	// DefaultTimeoutSeconds bounds every remote call, including
	// authentication. A timed-out call is a transport failure.
	DefaultTimeoutSeconds = 10
	// DefaultSKUField is the product field SKUs are matched against.
	// "barcode" is the common alternative.
	DefaultSKUField = "default_code"
	// DefaultPartnerID is the walk-in customer used when a request does
	// not name a partner.
	DefaultPartnerID = 1
)

// Errors for Odoo configuration.
var (
	ErrConfigMissingBaseURL  = errors.New("odoo: base URL is required")
	ErrConfigMissingDatabase = errors.New("odoo: database is required")
	ErrConfigMissingUsername = errors.New("odoo: username is required")
	ErrConfigMissingPassword = errors.New("odoo: password is required")
)

// Config holds everything needed to talk to one Odoo instance.
type Config struct {
	// BaseURL is the Odoo web root, e.g. "http://odoo:8069".
	BaseURL string
	// Database is the Odoo database name used for authentication.
	Database string
	// Username is the login of the integration user.
	Username string
	// Password is the integration user's password or API key.
	Password string
	// TimeoutSeconds is the HTTP timeout for each remote call.
	TimeoutSeconds int
	// SKUField is the product.product field SKUs resolve against.
	SKUField string
	// DefaultPartnerID is the customer used when the request has none.
	DefaultPartnerID int64
	// DefaultPricelistID overrides Odoo's own pricelist selection when
	// set. Nil delegates pricing to the remote system.
	DefaultPricelistID *int64
}

// NewConfig creates a Config with defaults for the optional fields.
func NewConfig(baseURL, database, username, password string) *Config {
	return &Config{
		BaseURL:          baseURL,
		Database:         database,
		Username:         username,
		Password:         password,
		TimeoutSeconds:   DefaultTimeoutSeconds,
		SKUField:         DefaultSKUField,
		DefaultPartnerID: DefaultPartnerID,
	}
}

// Validate checks required fields and fills zero-valued optional ones
// with defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrConfigMissingBaseURL
	}
	if strings.TrimSpace(c.Database) == "" {
		return ErrConfigMissingDatabase
	}
	if strings.TrimSpace(c.Username) == "" {
		return ErrConfigMissingUsername
	}
	if strings.TrimSpace(c.Password) == "" {
		return ErrConfigMissingPassword
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.SKUField == "" {
		c.SKUField = DefaultSKUField
	}
	if c.DefaultPartnerID == 0 {
		c.DefaultPartnerID = DefaultPartnerID
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

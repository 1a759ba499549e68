package database

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Connection defaults for the managed Supabase instance.
const (
	DefaultPort           = 5432
	DefaultDatabase       = "postgres"
	DefaultUser           = "postgres.oqdnbpmmgntqtigstaow"
	DefaultSSLMode        = "prefer"
	DefaultConnectTimeout = 10 * time.Second
)

// Config holds the parameters for one database connection.
// No field is validated; bad values surface when the connection is opened.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// ConnectTimeout bounds connection establishment. Zero means no limit.
	ConnectTimeout time.Duration
}

// DefaultConfig returns the fixed Supabase parameters with the given host and password.
func DefaultConfig(host, password string) *Config {
	return &Config{
		Host:           host,
		Port:           DefaultPort,
		User:           DefaultUser,
		Password:       password,
		Database:       DefaultDatabase,
		SSLMode:        DefaultSSLMode,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// DSN renders cfg as a postgres:// URL. User, password and database name are
// escaped, so any characters are safe in them.
func (c *Config) DSN() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// Redacted renders the DSN with the password masked, for logging.
func (c *Config) Redacted() string {
	masked := *c
	if masked.Password != "" {
		masked.Password = "xxxxx"
	}
	return masked.DSN()
}

// Package config assembles the run configuration from flags and environment.
//
// Values are read once at start-up into a Config that is passed down
// explicitly; no other package looks up the environment.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/koustreak/schemadrift/internal/database"
	"github.com/koustreak/schemadrift/internal/errs"
	"github.com/koustreak/schemadrift/internal/logger"
	"github.com/koustreak/schemadrift/internal/reference"
	"github.com/koustreak/schemadrift/internal/report"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys shared by flags, environment bindings and defaults.
const (
	KeyHost            = "host"
	KeyPassword        = "password"
	KeySchema          = "schema"
	KeySSLMode         = "sslmode"
	KeyConnectTimeout  = "connect-timeout"
	KeyReferenceDir    = "reference-dir"
	KeyReferenceBucket = "reference-bucket"
	KeyReferencePrefix = "reference-prefix"
	KeyFormat          = "format"
	KeyListen          = "listen"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"

	keyMinioEndpoint  = "minio.endpoint"
	keyMinioAccessKey = "minio.access_key"
	keyMinioSecretKey = "minio.secret_key"
	keyMinioUseSSL    = "minio.use_ssl"
	keyMinioRegion    = "minio.region"
)

// envBindings maps config keys to the environment variables they read.
var envBindings = map[string]string{
	KeyHost:           "SUPABASE_HOST",
	KeyPassword:       "SUPABASE_DB_PASSWORD",
	keyMinioEndpoint:  "MINIO_ENDPOINT",
	keyMinioAccessKey: "MINIO_ACCESS_KEY",
	keyMinioSecretKey: "MINIO_SECRET_KEY",
	keyMinioUseSSL:    "MINIO_USE_SSL",
	keyMinioRegion:    "MINIO_REGION",
}

type Config struct {
	Database database.Config
	Schema   string

	ReferenceDir string
	// Bucket is used instead of ReferenceDir when Bucket.Bucket is set.
	Bucket reference.BucketConfig

	Format string
	// Listen, when set, serves reports over HTTP instead of printing one.
	Listen string

	Log logger.Config
}

// UseBucket reports whether reference files come from object storage.
func (c Config) UseBucket() bool {
	return c.Bucket.Bucket != ""
}

// Flags registers the command-line flags on fs.
func Flags(fs *pflag.FlagSet) {
	fs.String(KeySchema, report.DefaultSchema, "database schema (namespace) holding the table")
	fs.String(KeySSLMode, database.DefaultSSLMode, "postgres sslmode (disable, allow, prefer, require, verify-ca, verify-full)")
	fs.Duration(KeyConnectTimeout, database.DefaultConnectTimeout, "time limit for establishing the database connection")
	fs.String(KeyReferenceDir, reference.DefaultDir, "directory holding <table>.sql reference files")
	fs.String(KeyReferenceBucket, "", "read reference files from this MinIO/S3 bucket instead of --reference-dir")
	fs.String(KeyReferencePrefix, "", "object key prefix inside --reference-bucket")
	fs.StringP(KeyFormat, "o", report.FormatText, "output format: "+strings.Join(report.Formats, ", "))
	fs.String(KeyListen, "", "serve reports over HTTP on this address instead of printing one (e.g. :8080)")
	fs.String(KeyLogLevel, "info", "log level: debug, info, warn, error")
	fs.String(KeyLogFormat, "console", "log format: console, json")
}

// Load reads the configuration from v. Flags must already be bound to v
// (viper.BindPFlags) when they should take part.
func Load(v *viper.Viper) (Config, error) {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	v.SetDefault(KeySchema, report.DefaultSchema)
	v.SetDefault(KeySSLMode, database.DefaultSSLMode)
	v.SetDefault(KeyConnectTimeout, database.DefaultConnectTimeout)
	v.SetDefault(KeyReferenceDir, reference.DefaultDir)
	v.SetDefault(KeyFormat, report.FormatText)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")

	db := database.DefaultConfig(v.GetString(KeyHost), v.GetString(KeyPassword))
	db.SSLMode = v.GetString(KeySSLMode)
	db.ConnectTimeout = v.GetDuration(KeyConnectTimeout)

	cfg := Config{
		Database:     *db,
		Schema:       v.GetString(KeySchema),
		ReferenceDir: v.GetString(KeyReferenceDir),
		Bucket: reference.BucketConfig{
			Endpoint:  v.GetString(keyMinioEndpoint),
			AccessKey: v.GetString(keyMinioAccessKey),
			SecretKey: v.GetString(keyMinioSecretKey),
			UseSSL:    v.GetBool(keyMinioUseSSL),
			Region:    v.GetString(keyMinioRegion),
			Bucket:    v.GetString(KeyReferenceBucket),
			Prefix:    v.GetString(KeyReferencePrefix),
		},
		Format: strings.ToLower(v.GetString(KeyFormat)),
		Listen: v.GetString(KeyListen),
		Log: logger.Config{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings this tool controls. Connection parameters are
// not checked: bad ones surface as a connection failure.
func (c Config) Validate() error {
	if !slices.Contains(report.Formats, c.Format) {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown format %q, want one of %s", c.Format, strings.Join(report.Formats, ", ")))
	}
	if c.UseBucket() && c.Bucket.Endpoint == "" {
		return errs.New(errs.ErrKindInvalidInput, "--reference-bucket requires MINIO_ENDPOINT")
	}
	if c.Database.ConnectTimeout < 0 {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("negative connect timeout %s", c.Database.ConnectTimeout))
	}
	return nil
}

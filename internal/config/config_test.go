package config

import (
	"testing"
	"time"

	"github.com/koustreak/schemadrift/internal/errs"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (Config, error) {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))

	v := viper.New()
	require.NoError(t, v.BindPFlags(fs))
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_HOST", "aws-0-eu-central-1.pooler.supabase.com")
	t.Setenv("SUPABASE_DB_PASSWORD", "s3cret")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "aws-0-eu-central-1.pooler.supabase.com", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.Database)
	assert.Equal(t, "postgres.oqdnbpmmgntqtigstaow", cfg.Database.User)
	assert.Equal(t, "prefer", cfg.Database.SSLMode)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)

	assert.Equal(t, "public", cfg.Schema)
	assert.Equal(t, "current-schema/tables", cfg.ReferenceDir)
	assert.False(t, cfg.UseBucket())
	assert.Equal(t, "text", cfg.Format)
	assert.Empty(t, cfg.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_MissingEnvIsNotAnError(t *testing.T) {
	t.Setenv("SUPABASE_HOST", "")
	t.Setenv("SUPABASE_DB_PASSWORD", "")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Empty(t, cfg.Database.Host)
	assert.Empty(t, cfg.Database.Password)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := load(t,
		"--schema", "legal",
		"--reference-dir", "/srv/schemas",
		"-o", "YAML",
		"--connect-timeout", "3s",
		"--sslmode", "require",
		"--listen", ":8080",
		"--log-level", "debug",
		"--log-format", "json",
	)
	require.NoError(t, err)

	assert.Equal(t, "legal", cfg.Schema)
	assert.Equal(t, "/srv/schemas", cfg.ReferenceDir)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Bucket(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	t.Setenv("MINIO_SECRET_KEY", "minioadmin")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := load(t, "--reference-bucket", "schemas", "--reference-prefix", "tables")
	require.NoError(t, err)

	assert.True(t, cfg.UseBucket())
	assert.Equal(t, "localhost:9000", cfg.Bucket.Endpoint)
	assert.Equal(t, "minioadmin", cfg.Bucket.AccessKey)
	assert.True(t, cfg.Bucket.UseSSL)
	assert.Equal(t, "schemas", cfg.Bucket.Bucket)
	assert.Equal(t, "tables", cfg.Bucket.Prefix)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"--format", "xml"}},
		{"bucket without endpoint", []string{"--reference-bucket", "schemas"}},
		{"negative timeout", []string{"--connect-timeout=-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MINIO_ENDPOINT", "")

			_, err := load(t, tt.args...)
			assert.True(t, errs.IsInvalidInput(err), "got %v", err)
		})
	}
}

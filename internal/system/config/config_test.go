package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  hostname: localhost
  port: 9446
database:
  consent:
    type: mysql
    hostname: db.local
    port: 3306
    user: wso2
    password: secret
    database: consent_mgt
sca:
  required: true
  supported_approaches:
    - name: REDIRECT
      default: true
    - name: DECOUPLED
  supported_methods:
    - type: SMS_OTP
      identifier: sms-otp
      version: "1.0"
      name: SMS OTP on Mobile
      mapped_approach: REDIRECT
      default: true
    - type: PUSH_OTP
      identifier: push-otp
      name: Push notification
      mapped_approach: DECOUPLED
idempotency:
  enabled: true
  allowed_time_duration_hours: 24
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deployment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "localhost:9446", cfg.Server.GetServerAddress())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "wso2:secret@tcp(db.local:3306)/consent_mgt?parseTime=true&multiStatements=true&clientFoundRows=true",
		cfg.Database.Consent.GetDSN())

	require.Len(t, cfg.SCA.GetSupportedScaApproaches(), 2)
	require.Len(t, cfg.SCA.GetSupportedScaMethods(), 2)
	assert.True(t, cfg.SCA.SupportedMethods[0].Default)
	assert.Equal(t, "DECOUPLED", cfg.SCA.SupportedMethods[1].MappedApproach)

	assert.True(t, cfg.Idempotency.Enabled)
	assert.Equal(t, 24, cfg.Idempotency.GetIdempotencyAllowedDurationHours())
	assert.Equal(t, "X-Request-ID", cfg.Idempotency.HeaderName)
	assert.Equal(t, CacheTypeMemory, cfg.Idempotency.Cache.Type)
	assert.False(t, cfg.Consent.MultipleRecurringConsentEnabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	db := DatabaseConfig{Type: "postgres", Hostname: "pg", Port: 5432, User: "u", Password: "p@ss", Database: "consent"}
	assert.Equal(t, "postgres://u:p%40ss@pg:5432/consent?sslmode=disable", db.GetDSN())
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabasesConfig{Consent: DatabaseConfig{Type: "mysql", Hostname: "h", Database: "d"}},
			SCA: SCAConfig{
				SupportedApproaches: []ScaApproachConfig{{Name: ScaApproachRedirect, Default: true}},
				SupportedMethods:    []ScaMethodConfig{{Identifier: "SMS_OTP", MappedApproach: ScaApproachRedirect}},
			},
			Idempotency: IdempotencyConfig{Cache: IdempotencyCacheConfig{Type: CacheTypeMemory}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "bad db type", mutate: func(c *Config) { c.Database.Consent.Type = "oracle" }, wantErr: "unsupported database type"},
		{
			name: "two default approaches",
			mutate: func(c *Config) {
				c.SCA.SupportedApproaches = append(c.SCA.SupportedApproaches, ScaApproachConfig{Name: ScaApproachDecoupled, Default: true})
			},
			wantErr: "at most one default SCA approach",
		},
		{
			name: "two default methods",
			mutate: func(c *Config) {
				c.SCA.SupportedMethods[0].Default = true
				c.SCA.SupportedMethods = append(c.SCA.SupportedMethods, ScaMethodConfig{Identifier: "X", MappedApproach: ScaApproachRedirect, Default: true})
			},
			wantErr: "at most one default SCA method",
		},
		{
			name:    "method maps to unknown approach",
			mutate:  func(c *Config) { c.SCA.SupportedMethods[0].MappedApproach = ScaApproachEmbedded },
			wantErr: "unconfigured approach",
		},
		{
			name:    "idempotency without window",
			mutate:  func(c *Config) { c.Idempotency.Enabled = true; c.Idempotency.HeaderName = "X-Request-ID" },
			wantErr: "must be positive",
		},
		{
			name:    "redis cache without url",
			mutate:  func(c *Config) { c.Idempotency.Cache.Type = CacheTypeRedis },
			wantErr: "redis url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

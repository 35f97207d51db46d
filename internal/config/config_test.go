package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://localhost/mentors")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
		assert.Equal(t, "", cfg.RedisAddr)
		assert.Equal(t, 4, cfg.NotifyMaxAttempts)
		assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
		assert.Equal(t, 9, cfg.Policy.Availability.StartHour)
		assert.Equal(t, 17, cfg.Policy.Availability.EndHour)
		assert.Equal(t, time.UTC, cfg.Policy.Availability.Location)
		assert.False(t, cfg.IsProduction)
	})

	t.Run("Missing DB_DSN", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := Load()
		assert.ErrorContains(t, err, "DB_DSN")
	})

	t.Run("Invalid duration", func(t *testing.T) {
		setRequired(t)
		t.Setenv("NOTIFY_MAX_BACKOFF", "soon")

		_, err := Load()
		assert.ErrorContains(t, err, "NOTIFY_MAX_BACKOFF")
	})

	t.Run("SMTP host requires password", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SMTP_HOST", "smtp.example.com")
		t.Setenv("SMTP_PASSWORD", "")

		_, err := Load()
		assert.ErrorContains(t, err, "SMTP_PASSWORD")
	})
}

func TestLoadPolicy(t *testing.T) {
	t.Run("YAML file then env override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		content := "availability:\n  start_hour: 8\n  end_hour: 20\n  timezone: Asia/Taipei\nmentor:\n  max_hourly_rate: 250\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		t.Setenv("AVAILABILITY_END_HOUR", "18")

		p, err := loadPolicy(path)
		require.NoError(t, err)
		assert.Equal(t, 8, p.Availability.StartHour)
		assert.Equal(t, 18, p.Availability.EndHour)
		assert.Equal(t, "Asia/Taipei", p.Availability.Location.String())
		assert.Equal(t, 250.0, p.Mentor.MaxHourlyRate)
		assert.Equal(t, 5.0, p.Mentor.MaxRating)
	})

	t.Run("Inverted hours rejected", func(t *testing.T) {
		t.Setenv("AVAILABILITY_START_HOUR", "17")
		t.Setenv("AVAILABILITY_END_HOUR", "9")

		_, err := loadPolicy("")
		assert.ErrorContains(t, err, "availability hours")
	})

	t.Run("Unknown timezone rejected", func(t *testing.T) {
		t.Setenv("AVAILABILITY_TIMEZONE", "Mars/Olympus")

		_, err := loadPolicy("")
		assert.ErrorContains(t, err, "timezone")
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := loadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

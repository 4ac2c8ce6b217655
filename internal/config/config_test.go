package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "simplepay", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "https://util.devi.tools/api/v2", cfg.AuthorizeURL)
	assert.Equal(t, 2*time.Second, cfg.AuthorizeTimeout)
	assert.Equal(t, 3, cfg.AuthorizeAttempts)
	assert.Equal(t, "approved", cfg.AuthorizeApproval)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.True(t, cfg.SeedDemoAccounts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("AUTHORIZE_TIMEOUT", "500ms")
	t.Setenv("AUTHORIZE_ATTEMPTS", "5")
	t.Setenv("AUTHORIZE_APPROVAL", "Autorizado")
	t.Setenv("SEED_DEMO_ACCOUNTS", "false")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.AuthorizeTimeout)
	assert.Equal(t, 5, cfg.AuthorizeAttempts)
	assert.Equal(t, "Autorizado", cfg.AuthorizeApproval)
	assert.False(t, cfg.SeedDemoAccounts)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("AUTHORIZE_TIMEOUT", "soon")
	t.Setenv("AUTHORIZE_ATTEMPTS", "many")
	t.Setenv("SEED_DEMO_ACCOUNTS", "yep")

	cfg := Load()

	assert.Equal(t, 2*time.Second, cfg.AuthorizeTimeout)
	assert.Equal(t, 3, cfg.AuthorizeAttempts)
	assert.True(t, cfg.SeedDemoAccounts)
}

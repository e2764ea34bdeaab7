package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StateDriverSQLite, cfg.StateDriver)
	assert.Equal(t, "Sheet1", cfg.CategorySheetName)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 0, cfg.HistoryLimit)
	assert.Equal(t, "Nitto Sodai", cfg.StoreName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ORDER_HISTORY_LIMIT", "25")
	t.Setenv("FETCH_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
}

func TestValidate(t *testing.T) {
	base := Config{StateDriver: StateDriverSQLite, DBDSN: "x.db"}
	assert.NoError(t, base.Validate())

	redisNoURL := base
	redisNoURL.StateDriver = StateDriverRedis
	assert.Error(t, redisNoURL.Validate())

	unknown := base
	unknown.StateDriver = "etcd"
	assert.Error(t, unknown.Validate())

	negative := base
	negative.HistoryLimit = -1
	assert.Error(t, negative.Validate())
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "http://localhost:5000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 10, cfg.Table.DefaultPageSize)
	assert.Equal(t, []int{5, 10, 25, 50}, cfg.Table.PageSizeOptions)
	assert.Equal(t, 20, cfg.Sales.QuoteGoal)
	assert.Equal(t, 1, cfg.Sales.MonthRange)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.ChartCacheTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salesboard.yaml")
	content := `
server:
  address: ":9090"
api:
  mock: false
  base_url: "https://ventas.example.com/api/v1"
  timeout: 3s
table:
  default_page_size: 25
sales:
  quote_goal: 30
  document_date: "2025-06-14"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SALESBOARD_LOG_LEVEL", "debug")
	t.Setenv("SALESBOARD_TASKS_DB_PATH", "/tmp/tasks.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.False(t, cfg.API.Mock)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 25, cfg.Table.DefaultPageSize)
	assert.Equal(t, 30, cfg.Sales.QuoteGoal)
	assert.Equal(t, "/tmp/tasks.db", cfg.Tasks.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())

	date, err := cfg.Sales.Date()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC), date)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Table.DefaultPageSize = 7
	cfg.Sales.QuoteGoal = 0
	cfg.Sales.DocumentDate = "14/06/2025"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "default_page_size 7")
	assert.Contains(t, msg, "quote_goal")
	assert.Contains(t, msg, "document_date")
	assert.Contains(t, msg, "log.level")
}

func TestValidateRequiresBaseURLWithoutMock(t *testing.T) {
	cfg := Default()
	cfg.API.Mock = false
	cfg.API.BaseURL = ""
	assert.Error(t, cfg.Validate())
}

package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, uint32(logx.DebugLevel), ParseLevel("DEBUG"))
	assert.Equal(t, uint32(logx.InfoLevel), ParseLevel("info"))
	assert.Equal(t, uint32(logx.ErrorLevel), ParseLevel("warn"))
	assert.Equal(t, uint32(logx.SevereLevel), ParseLevel("fatal"))
	assert.Equal(t, uint32(logx.InfoLevel), ParseLevel("nonsense"))
}

func TestSetupConsole(t *testing.T) {
	require.NoError(t, Setup(config.LoggingConfig{Level: "error", Format: "json"}))
	require.NoError(t, Setup(config.LoggingConfig{Level: "info"}))
}

func TestConfigSummaryLines(t *testing.T) {
	assert.Equal(t, []string{"Configuration: <nil>"}, ConfigSummaryLines(nil))

	cfg := &config.Config{
		Store:  config.StoreConfig{Driver: "postgres", DSN: "postgres://x"},
		Cache:  config.CacheConfig{TTLSec: 3600},
		Source: config.SourceConfig{ReportURL: "http://r", TimeoutSec: 10},
	}
	cfg.Forecast.AI = config.AIConfig{Enabled: true, Model: "gpt-4o-mini"}

	joined := strings.Join(ConfigSummaryLines(cfg), "\n")
	assert.Contains(t, joined, "Catalog: built-in")
	assert.Contains(t, joined, "Store: postgres (configured)")
	assert.Contains(t, joined, "Cache TTL: 1h0m0s")
	assert.Contains(t, joined, "Report feed: disabled")
	assert.Contains(t, joined, "AI forecasts: gpt-4o-mini (key not configured)")
	assert.NotContains(t, joined, "postgres://x")
}

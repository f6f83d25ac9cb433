package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/finbot/core/config"
)

func noEnv(string) string { return "" }

func TestResolveSettingsDefaults(t *testing.T) {
	set := resolveSettings(nil, noEnv)
	assert.Equal(t, slog.LevelInfo, set.level)
	assert.Equal(t, formatJSON, set.format)
	assert.Equal(t, defaultKeyOrder, set.keyOrder)
	assert.Equal(t, "", set.profile)
	assert.Equal(t, defaultDebugNum, set.sampleNum)
	assert.Equal(t, defaultDebugDen, set.sampleDen)
	assert.False(t, set.trace)

	assert.Equal(t, "prod", resolveSettings(&coreconfig.Config{}, noEnv).profile)
}

func TestResolveSettingsFromConfig(t *testing.T) {
	cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:       "Warning",
		Profile:     "dev",
		KeysOrder:   "ts, event ,,level",
		DebugSample: "25%",
	}}
	set := resolveSettings(cfg, func(k string) string {
		if k == "LOG_TRACE" {
			return "yes"
		}
		return ""
	})

	assert.Equal(t, slog.LevelWarn, set.level)
	assert.Equal(t, formatKV, set.format, "dev profile defaults to key=value")
	assert.Equal(t, []string{"ts", "event", "level"}, set.keyOrder)
	assert.Equal(t, 25, set.sampleNum)
	assert.Equal(t, 100, set.sampleDen)
	assert.True(t, set.trace)

	cfg.Logging.Format = "json"
	assert.Equal(t, formatJSON, resolveSettings(cfg, noEnv).format)
}

func TestParseDebugSample(t *testing.T) {
	n, d := parseDebugSample("")
	assert.Equal(t, []int{defaultDebugNum, defaultDebugDen}, []int{n, d})
	n, d = parseDebugSample("1/10")
	assert.Equal(t, []int{1, 10}, []int{n, d})
	n, d = parseDebugSample("-1/10")
	assert.Equal(t, []int{defaultDebugNum, defaultDebugDen}, []int{n, d})
}

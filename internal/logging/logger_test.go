package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manpreetbhatti/codesync/internal/config"
)

func TestNewLoggerIsCachedPerComponent(t *testing.T) {
	a := NewLogger("relay")
	b := NewLogger("relay")
	c := NewLogger("jobs")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "relay", a.Data["component"])
}

func TestConfigureJSONOutput(t *testing.T) {
	t.Setenv("CODESYNC_LOG_LEVEL", "")

	var buf bytes.Buffer
	Configure(config.LoggingConfig{Level: "debug", Format: "json"}, WithOutput(&buf))
	t.Cleanup(func() { Configure(config.LoggingConfig{}, WithOutput(&bytes.Buffer{})) })

	NewLogger("json-test").WithField("room", "alpha").Debug("room created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "room created", entry["msg"])
	assert.Equal(t, "alpha", entry["room"])
	assert.Equal(t, "json-test", entry["component"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureEnvLevelWins(t *testing.T) {
	t.Setenv("CODESYNC_LOG_LEVEL", "error")

	Configure(config.LoggingConfig{Level: "debug"}, WithOutput(&bytes.Buffer{}))
	assert.Equal(t, logrus.ErrorLevel, Base().GetLevel())

	Configure(config.LoggingConfig{Level: "debug"}, WithLevel(logrus.TraceLevel))
	assert.Equal(t, logrus.TraceLevel, Base().GetLevel())
}

func TestConfigureBadLevelFallsBackToInfo(t *testing.T) {
	t.Setenv("CODESYNC_LOG_LEVEL", "")

	Configure(config.LoggingConfig{Level: "loud"}, WithOutput(&bytes.Buffer{}))
	assert.Equal(t, logrus.InfoLevel, Base().GetLevel())
}

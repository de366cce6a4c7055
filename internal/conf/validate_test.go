package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Upstream.Timeout = 30
	s.Watcher.PollInterval = 60
	s.Watcher.BackoffFloor = 1
	s.Watcher.BackoffCap = 120
	s.Notify.PayloadLimit = 1950
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "regbot.db"
	return s
}

func TestValidateSettingsAccepts(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejectsBackoffInversion(t *testing.T) {
	s := validSettings()
	s.Watcher.BackoffFloor = 60
	s.Watcher.BackoffCap = 10
	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backoffcap")
}

func TestValidateSettingsRequiresExactlyOneBackend(t *testing.T) {
	s := validSettings()
	s.Output.MySQL.Enabled = true
	assert.Error(t, ValidateSettings(s), "both backends enabled")

	s = validSettings()
	s.Output.SQLite.Enabled = false
	assert.Error(t, ValidateSettings(s), "no backend enabled")
}

func TestValidateSettingsRequiresSQLitePath(t *testing.T) {
	s := validSettings()
	s.Output.SQLite.Path = ""
	assert.Error(t, ValidateSettings(s))
}

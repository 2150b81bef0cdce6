package bsm_test

import (
	"errors"
	"testing"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "home_survival", bsm.DeviceID("home", "survival"))
	assert.Equal(t, "home_survival_status", bsm.EntityUID("home", "survival", "status"))
}

func TestParseDeviceID(t *testing.T) {
	t.Parallel()

	managers := []string{"home", "remote_lab"}

	managerID, serverName, err := bsm.ParseDeviceID("home_survival", managers)
	require.NoError(t, err)
	assert.Equal(t, "home", managerID)
	assert.Equal(t, "survival", serverName)

	managerID, serverName, err = bsm.ParseDeviceID("remote_lab_creative_world", managers)
	require.NoError(t, err)
	assert.Equal(t, "remote_lab", managerID)
	assert.Equal(t, "creative_world", serverName)

	_, _, err = bsm.ParseDeviceID("unknown_survival", managers)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bsm.ErrNoTarget))

	_, _, err = bsm.ParseDeviceID("", managers)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bsm.ErrNoTarget))
}

func TestParseEntityUID(t *testing.T) {
	t.Parallel()

	managers := []string{"home"}
	keys := []string{"status", "cpu_percent", "memory_mb"}

	managerID, serverName, err := bsm.ParseEntityUID("home_creative_world_cpu_percent", managers, keys)
	require.NoError(t, err)
	assert.Equal(t, "home", managerID)
	assert.Equal(t, "creative_world", serverName)

	managerID, serverName, err = bsm.ParseEntityUID("home_survival_restart", managers, keys)
	require.NoError(t, err)
	assert.Equal(t, "home", managerID)
	assert.Equal(t, "survival", serverName)

	_, _, err = bsm.ParseEntityUID("home_survival", []string{"home_survival"}, keys)
	require.Error(t, err)
}

func TestMatch(t *testing.T) {
	t.Parallel()

	assert.True(t, bsm.Match("home", "survival", "survival"))
	assert.True(t, bsm.Match("home", "survival", "surv*"))
	assert.False(t, bsm.Match("home", "survival", "creative"))

	assert.True(t, bsm.Match("home", "survival", "home:*"))
	assert.False(t, bsm.Match("remote", "survival", "home:*"))
	assert.True(t, bsm.Match("remote", "survival", "home,remote:surv*"))

	assert.True(t, bsm.MatchSome("home", "survival", []string{"creative", "surv*"}))
	assert.False(t, bsm.MatchSome("home", "survival", []string{}))
}

func TestSanitizeHostPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    string
		expected string
	}{
		{"bedrock.local:11325", "bedrock.local:11325"},
		{"bedrock.local:11325.0", "bedrock.local:11325"},
		{"bedrock.local", "bedrock.local"},
		{"bedrock.local:abc", "bedrock.local:abc"},
		{"bedrock.local:0", "bedrock.local:0"},
		{"[::1]:11325.0", "[::1]:11325"},
		{"[::1]", "[::1]"},
		{"", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, bsm.SanitizeHostPort(test.value), test.value)
	}
}

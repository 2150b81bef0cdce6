package ha_test

import (
	"testing"

	"github.com/bsmkit/bsmc/pkg/ha"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopics(t *testing.T) {
	t.Parallel()

	topics := ha.Topics{Prefix: "bsm"}

	assert.Equal(t, "bsm/bridge/availability", topics.Availability())
	assert.Equal(t, "bsm/home_survival/availability", topics.DeviceAvailability("home_survival"))
	assert.Equal(t, "bsm/home_survival/status/state", topics.State("home_survival", "status"))
	assert.Equal(t, "bsm/home_survival/server/set", topics.Command("home_survival", "server"))
	assert.Equal(t, "bsm/+/+/set", topics.CommandPattern())

	deviceID, key, found := topics.ParseCommand("bsm/home_survival/restart/set")
	require.True(t, found)
	assert.Equal(t, "home_survival", deviceID)
	assert.Equal(t, "restart", key)

	_, _, found = topics.ParseCommand("other/home_survival/restart/set")
	assert.False(t, found)
	_, _, found = topics.ParseCommand("bsm/home_survival/status/state")
	assert.False(t, found)
}

func TestNewDiscoverySensor(t *testing.T) {
	t.Parallel()

	topics := ha.Topics{Prefix: "bsm"}
	device := &ha.Device{Identifiers: []string{"home_survival"}, Name: "survival"}
	desc, found := lo.Find(ha.ServerEntities(), func(e ha.EntityDesc) bool { return e.Key == ha.KeyStatus })
	require.True(t, found)

	discovery := ha.NewDiscovery(desc, topics, "home_survival", device)

	assert.Equal(t, "home_survival_status", discovery.UniqueID)
	assert.Equal(t, "bsm/home_survival/status/state", discovery.StateTopic)
	assert.Equal(t, "bsm/home_survival/status/attributes", discovery.AttributesTopic)
	assert.Equal(t, []ha.Availability{
		{Topic: "bsm/bridge/availability"},
		{Topic: "bsm/home_survival/availability"},
	}, discovery.Availability)
	assert.Equal(t, "all", discovery.AvailabilityMode)
	assert.Empty(t, discovery.CommandTopic)
}

func TestNewDiscoverySwitchAndButton(t *testing.T) {
	t.Parallel()

	topics := ha.Topics{Prefix: "bsm"}

	serverSwitch, found := lo.Find(ha.ServerEntities(), func(e ha.EntityDesc) bool { return e.Key == ha.KeyServer })
	require.True(t, found)
	discovery := ha.NewDiscovery(serverSwitch, topics, "home_survival", nil)
	assert.Equal(t, "ON", discovery.PayloadOn)
	assert.Equal(t, "OFF", discovery.PayloadOff)
	assert.Equal(t, "bsm/home_survival/server/set", discovery.CommandTopic)
	assert.NotEmpty(t, discovery.StateTopic)

	restart, found := lo.Find(ha.ServerEntities(), func(e ha.EntityDesc) bool { return e.Key == ha.KeyRestart })
	require.True(t, found)
	discovery = ha.NewDiscovery(restart, topics, "home_survival", nil)
	assert.Equal(t, "PRESS", discovery.PayloadPress)
	assert.Empty(t, discovery.StateTopic)
}

func TestConfigTopic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "homeassistant/sensor/home_survival_status/config",
		ha.ConfigTopic("homeassistant", ha.ComponentSensor, "home_survival_status"))
}

func TestEntityKeys(t *testing.T) {
	t.Parallel()

	keys := ha.EntityKeys()
	assert.Contains(t, keys, ha.KeyCPUPercent)
	assert.Contains(t, keys, ha.KeyGlobalPlayers)
	assert.Equal(t, lo.Uniq(keys), keys)

	commandKeys := ha.CommandKeys()
	assert.Contains(t, commandKeys, ha.KeyServer)
	assert.NotContains(t, commandKeys, ha.KeyStatus)
}

package pkg

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/bsmkit/bsmc/pkg/mqttx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mqttRecorder struct {
	mutex    sync.Mutex
	messages map[string]string
}

func newMQTTRecorder() *mqttRecorder {
	return &mqttRecorder{messages: map[string]string{}}
}

func (r *mqttRecorder) Publish(topic string, payload []byte, _ bool) error {
	return r.PublishString(topic, string(payload), false)
}

func (r *mqttRecorder) PublishString(topic string, payload string, _ bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.messages[topic] = payload
	return nil
}

func (r *mqttRecorder) Subscribe(string, mqttx.MessageHandler) error {
	return nil
}

func (r *mqttRecorder) Close() {}

func (r *mqttRecorder) message(topic string) (string, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	payload, found := r.messages[topic]
	return payload, found
}

func (r *mqttRecorder) topics() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	result := make([]string, 0, len(r.messages))
	for topic := range r.messages {
		result = append(result, topic)
	}
	return result
}

func newTestBridge(t *testing.T) (*Bridge, *mqttRecorder, Server) {
	t.Helper()
	bridge := NewBridge(NewBSM(cfg.NewConfig()))
	recorder := newMQTTRecorder()
	bridge.mqtt = recorder
	manager, err := bridge.bsm.ManagerRegistry().Transient("home", "localhost:11325", "admin", "secret")
	require.NoError(t, err)
	return bridge, recorder, NewServer(manager, "survival")
}

func TestBridgeMarksDeviceOfflineOnFailedPoll(t *testing.T) {
	t.Parallel()

	bridge, recorder, server := newTestBridge(t)

	snapshot := &bsm.Snapshot{
		Taken:   time.Now(),
		Message: "manager 'home': cannot connect to API: connection refused",
	}
	bridge.publishServerState(server, snapshot)

	availability, found := recorder.message("bsm/home_survival/availability")
	require.True(t, found)
	assert.Equal(t, mqttx.PayloadOffline, availability)
	for _, topic := range recorder.topics() {
		assert.False(t, strings.HasSuffix(topic, "/state"),
			"unreachable manager must not overwrite state topic '%s'", topic)
	}
}

func TestBridgeDistinguishesStoppedFromUnreachable(t *testing.T) {
	t.Parallel()

	bridge, recorder, server := newTestBridge(t)

	// A clean poll of a stopped server stays online and reports "Stopped".
	bridge.publishServerState(server, &bsm.Snapshot{Taken: time.Now()})

	availability, _ := recorder.message("bsm/home_survival/availability")
	assert.Equal(t, mqttx.PayloadOnline, availability)
	state, _ := recorder.message("bsm/home_survival/status/state")
	assert.Equal(t, bsm.StateStopped, state)
	power, _ := recorder.message("bsm/home_survival/server/state")
	assert.Equal(t, "OFF", power)

	// A failed poll afterwards only flips availability.
	bridge.publishServerState(server, &bsm.Snapshot{Taken: time.Now(), Message: "timeout"})

	availability, _ = recorder.message("bsm/home_survival/availability")
	assert.Equal(t, mqttx.PayloadOffline, availability)
	state, _ = recorder.message("bsm/home_survival/status/state")
	assert.Equal(t, bsm.StateStopped, state)
}

func TestBridgePublishesRunningState(t *testing.T) {
	t.Parallel()

	bridge, recorder, server := newTestBridge(t)

	bridge.publishServerState(server, &bsm.Snapshot{
		Taken:   time.Now(),
		Running: true,
		Process: &bsm.ProcessInfo{PID: 4242, CPUPercent: 12.5, MemoryMB: 1024, Uptime: "1:02:03"},
	})

	availability, _ := recorder.message("bsm/home_survival/availability")
	assert.Equal(t, mqttx.PayloadOnline, availability)
	state, _ := recorder.message("bsm/home_survival/status/state")
	assert.Equal(t, bsm.StateRunning, state)
	power, _ := recorder.message("bsm/home_survival/server/state")
	assert.Equal(t, "ON", power)
	cpu, _ := recorder.message("bsm/home_survival/cpu_percent/state")
	assert.Equal(t, "12.5", cpu)
}

func TestBridgeMarksManagerOfflineOnFailedPoll(t *testing.T) {
	t.Parallel()

	bridge, recorder, server := newTestBridge(t)
	manager := server.Manager()

	bridge.publishManagerState(manager, &bsm.ManagerSnapshot{Taken: time.Now(), Message: "auth failed"})

	availability, found := recorder.message("bsm/home/availability")
	require.True(t, found)
	assert.Equal(t, mqttx.PayloadOffline, availability)
	_, found = recorder.message("bsm/home/global_players/state")
	assert.False(t, found)

	bridge.publishManagerState(manager, &bsm.ManagerSnapshot{Taken: time.Now()})

	availability, _ = recorder.message("bsm/home/availability")
	assert.Equal(t, mqttx.PayloadOnline, availability)
	players, _ := recorder.message("bsm/home/global_players/state")
	assert.Equal(t, "0", players)
}

package pkg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/ha"
	"github.com/bsmkit/bsmc/pkg/mqttx"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Bridge runs the long-lived daemon: it polls every configured manager and
// mirrors servers onto MQTT using the discovery convention, while accepting
// entity commands and service calls back over MQTT.
type Bridge struct {
	bsm             *BSM
	mqtt            mqttPublisher
	topics          ha.Topics
	discoveryPrefix string

	coordinators map[string]*Coordinator
	dispatcher   *ServiceDispatcher
}

// mqttPublisher is the part of mqttx.Client the bridge uses.
type mqttPublisher interface {
	Publish(topic string, payload []byte, retained bool) error
	PublishString(topic string, payload string, retained bool) error
	Subscribe(topic string, handler mqttx.MessageHandler) error
	Close()
}

func NewBridge(b *BSM) *Bridge {
	cv := b.Config().Values()
	result := &Bridge{
		bsm:             b,
		topics:          ha.Topics{Prefix: cv.Bridge.TopicPrefix},
		discoveryPrefix: cv.Bridge.DiscoveryPrefix,
		coordinators:    map[string]*Coordinator{},
	}
	result.dispatcher = NewServiceDispatcher(result)
	return result
}

func (b *Bridge) BSM() *BSM {
	return b.bsm
}

func (b *Bridge) Topics() ha.Topics {
	return b.topics
}

func (b *Bridge) Dispatcher() *ServiceDispatcher {
	return b.dispatcher
}

// Run connects to the broker, announces all devices and polls until the
// context ends.
func (b *Bridge) Run(ctx context.Context) error {
	cv := b.bsm.Config().Values()
	managers, err := b.bsm.ManagerRegistry().Some()
	if err != nil {
		return err
	}

	mqttClient, err := mqttx.Connect(mqttx.Opts{
		BrokerURL:         cv.Bridge.BrokerURL,
		ClientID:          cv.Bridge.ClientID,
		User:              cv.Bridge.User,
		Password:          cv.Bridge.Password,
		QOS:               cv.Bridge.QOS,
		AvailabilityTopic: b.topics.Availability(),
	})
	if err != nil {
		return err
	}
	b.mqtt = mqttClient
	defer b.mqtt.Close()

	group, groupCtx := errgroup.WithContext(ctx)
	for _, manager := range managers {
		manager.CheckAppVersion(ctx)

		servers, err := manager.Servers(ctx)
		if err != nil {
			return fmt.Errorf("%s: cannot list servers: %w", manager, err)
		}
		log.Infof("%s: bridging %d server(s)", manager, len(servers))

		b.announceManager(manager)
		managerCoordinator := manager.Coordinator()
		managerCoordinator.OnUpdate(func(snapshot *bsm.ManagerSnapshot) {
			b.publishManagerState(manager, snapshot)
		})
		group.Go(func() error { return runIgnoringCancel(groupCtx, managerCoordinator.Run) })

		for _, server := range servers {
			coordinator := NewCoordinator(server, cv.Manager.ServerInterval)
			b.coordinators[server.DeviceID()] = coordinator
			b.announceServer(ctx, manager, server)
			coordinator.OnUpdate(func(snapshot *bsm.Snapshot) {
				b.publishServerState(server, snapshot)
			})
			group.Go(func() error { return runIgnoringCancel(groupCtx, coordinator.Run) })
		}
	}

	if err := b.mqtt.Subscribe(b.topics.CommandPattern(), b.handleCommand); err != nil {
		return err
	}
	if err := b.mqtt.Subscribe(b.topics.ServiceCall(), b.dispatcher.Handle); err != nil {
		return err
	}

	return group.Wait()
}

func runIgnoringCancel(ctx context.Context, run func(context.Context) error) error {
	err := run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func (b *Bridge) managerDevice(manager *Manager) *ha.Device {
	device := &ha.Device{
		Identifiers:  []string{manager.ID()},
		Name:         fmt.Sprintf("Bedrock Server Manager (%s)", manager.ID()),
		Manufacturer: "Bedrock Server Manager",
		Model:        "Manager",
	}
	if snapshot := manager.Coordinator().Snapshot(); snapshot != nil && snapshot.Info.AppVersion != "" {
		device.SoftwareVersion = snapshot.Info.AppVersion
	}
	return device
}

func (b *Bridge) announceManager(manager *Manager) {
	device := b.managerDevice(manager)
	for _, desc := range ha.ManagerEntities() {
		b.publishDiscovery(desc, manager.ID(), device)
	}
}

func (b *Bridge) announceServer(ctx context.Context, manager *Manager, server Server) {
	device := &ha.Device{
		Identifiers:  []string{server.DeviceID()},
		Name:         server.Name(),
		Manufacturer: "Bedrock Server Manager",
		Model:        "Bedrock Server",
		ViaDevice:    manager.ID(),
	}
	if version, err := server.Version(ctx); err == nil && version != "" {
		device.SoftwareVersion = version
	}
	for _, desc := range ha.ServerEntities() {
		b.publishDiscovery(desc, server.DeviceID(), device)
	}
}

func (b *Bridge) publishDiscovery(desc ha.EntityDesc, deviceID string, device *ha.Device) {
	payload := ha.NewDiscovery(desc, b.topics, deviceID, device)
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("bridge: cannot marshal discovery payload of '%s_%s': %s", deviceID, desc.Key, err)
		return
	}
	topic := ha.ConfigTopic(b.discoveryPrefix, desc.Component, payload.UniqueID)
	if err := b.mqtt.Publish(topic, data, true); err != nil {
		log.Warnf("bridge: cannot publish discovery of '%s': %s", payload.UniqueID, err)
	}
}

func (b *Bridge) publishServerState(server Server, snapshot *bsm.Snapshot) {
	deviceID := server.DeviceID()

	// A failed poll only flips the device offline; the retained state topics
	// keep the last known values so an unreachable manager never shows up as
	// a cleanly stopped server.
	if !snapshot.Available() {
		b.publishAvailability(deviceID, false)
		return
	}
	b.publishAvailability(deviceID, true)

	b.publishState(deviceID, ha.KeyStatus, snapshot.StateText())
	attributes := map[string]any{
		"taken": snapshot.Taken,
		"notes": snapshot.Notes,
	}
	if snapshot.Process != nil {
		attributes["pid"] = snapshot.Process.PID
		attributes["uptime"] = snapshot.Process.Uptime
		attributes["memory"] = snapshot.Process.Memory()
	}
	if snapshot.Properties != nil {
		attributes["properties"] = snapshot.Properties
	}
	b.publishAttributes(deviceID, ha.KeyStatus, attributes)

	if snapshot.Running && snapshot.Process != nil {
		b.publishState(deviceID, ha.KeyCPUPercent, strconv.FormatFloat(snapshot.Process.CPUPercent, 'f', 1, 64))
		b.publishState(deviceID, ha.KeyMemoryMB, strconv.FormatFloat(snapshot.Process.MemoryMB, 'f', 1, 64))
	} else {
		b.publishState(deviceID, ha.KeyCPUPercent, "")
		b.publishState(deviceID, ha.KeyMemoryMB, "")
	}

	b.publishState(deviceID, ha.KeyAllowlist, strconv.Itoa(len(snapshot.Allowlist)))
	b.publishAttributes(deviceID, ha.KeyAllowlist, map[string]any{"players": snapshot.AllowlistNames()})

	if snapshot.Running {
		b.publishState(deviceID, ha.KeyServer, "ON")
	} else {
		b.publishState(deviceID, ha.KeyServer, "OFF")
	}
}

func (b *Bridge) publishManagerState(manager *Manager, snapshot *bsm.ManagerSnapshot) {
	if !snapshot.Available() {
		b.publishAvailability(manager.ID(), false)
		return
	}
	b.publishAvailability(manager.ID(), true)

	b.publishState(manager.ID(), ha.KeyGlobalPlayers, strconv.Itoa(len(snapshot.Players)))
	b.publishAttributes(manager.ID(), ha.KeyGlobalPlayers, map[string]any{
		"players":     snapshot.PlayerNames(),
		"os_type":     snapshot.Info.OSType,
		"app_version": snapshot.Info.AppVersion,
		"notes":       snapshot.Notes,
	})
}

func (b *Bridge) publishAvailability(deviceID string, online bool) {
	payload := mqttx.PayloadOffline
	if online {
		payload = mqttx.PayloadOnline
	}
	if err := b.mqtt.PublishString(b.topics.DeviceAvailability(deviceID), payload, true); err != nil {
		log.Warnf("bridge: cannot publish availability of '%s': %s", deviceID, err)
	}
}

func (b *Bridge) publishState(deviceID string, key string, state string) {
	if err := b.mqtt.PublishString(b.topics.State(deviceID, key), state, true); err != nil {
		log.Warnf("bridge: cannot publish state of '%s_%s': %s", deviceID, key, err)
	}
}

func (b *Bridge) publishAttributes(deviceID string, key string, attributes map[string]any) {
	data, err := json.Marshal(attributes)
	if err != nil {
		log.Errorf("bridge: cannot marshal attributes of '%s_%s': %s", deviceID, key, err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Attributes(deviceID, key), data, true); err != nil {
		log.Warnf("bridge: cannot publish attributes of '%s_%s': %s", deviceID, key, err)
	}
}

// handleCommand routes one entity command to the matching action and then
// schedules an immediate poll so the new state shows up promptly.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	deviceID, key, found := b.topics.ParseCommand(topic)
	if !found {
		return fmt.Errorf("bridge: cannot parse command topic '%s'", topic)
	}
	ctx := context.Background()
	registry := b.bsm.ManagerRegistry()

	if manager, err := registry.ByID(deviceID); err == nil {
		return b.handleManagerCommand(ctx, manager, key)
	}

	managerID, serverName, err := bsm.ParseDeviceID(deviceID, registry.IDs())
	if err != nil {
		return err
	}
	manager, err := registry.ByID(managerID)
	if err != nil {
		return err
	}
	server := NewServer(manager, serverName)

	var result bsm.ActionResult
	switch key {
	case ha.KeyServer:
		if string(payload) == "ON" {
			result = server.Start(ctx)
		} else {
			result = server.Stop(ctx)
		}
	case ha.KeyRestart:
		result = server.Restart(ctx)
	case ha.KeyUpdate:
		result = server.Update(ctx)
	case ha.KeyBackupAll:
		result = server.TriggerBackup(ctx, "all", "")
	case ha.KeyExportWorld:
		result = server.ExportWorld(ctx)
	case ha.KeyPruneBackups:
		result = server.PruneBackups(ctx, -1)
	default:
		return fmt.Errorf("bridge: unknown command '%s' for %s", key, server)
	}
	b.logResult(server.String(), key, result)

	if coordinator, ok := b.coordinators[deviceID]; ok {
		coordinator.RequestRefresh()
	}
	return nil
}

func (b *Bridge) handleManagerCommand(ctx context.Context, manager *Manager, key string) error {
	var result bsm.ActionResult
	switch key {
	case ha.KeyScanPlayers:
		result = manager.ScanPlayers(ctx)
	case ha.KeyPruneDownloads:
		result = manager.PruneDownloads(ctx, "", -1)
	default:
		return fmt.Errorf("bridge: unknown command '%s' for %s", key, manager)
	}
	b.logResult(manager.String(), key, result)
	manager.Coordinator().RequestRefresh()
	return nil
}

func (b *Bridge) logResult(subject string, key string, result bsm.ActionResult) {
	switch result.Outcome {
	case bsm.OutcomeOK:
		log.Infof("%s: command '%s' succeeded", subject, key)
	case bsm.OutcomeNotRunning:
		log.Infof("%s: command '%s' skipped, server is not running", subject, key)
	default:
		log.Errorf("%s: command '%s' failed (%s): %s", subject, key, result.Outcome, result.Message)
	}
}

package ha

import "github.com/samber/lo"

// Component names of the discovery convention.
const (
	ComponentSensor = "sensor"
	ComponentSwitch = "switch"
	ComponentButton = "button"
)

// Entity keys; the unique ID of an entity is '{deviceID}_{key}'.
const (
	KeyStatus       = "status"
	KeyCPUPercent   = "cpu_percent"
	KeyMemoryMB     = "memory_mb"
	KeyAllowlist    = "allowlist"
	KeyServer       = "server"
	KeyRestart      = "restart"
	KeyUpdate       = "update"
	KeyBackupAll    = "backup_all"
	KeyExportWorld  = "export_world"
	KeyPruneBackups = "prune_backups"

	KeyGlobalPlayers  = "global_players"
	KeyScanPlayers    = "scan_players"
	KeyPruneDownloads = "prune_downloads"
)

// EntityDesc describes one entity of a device, enough to render its
// discovery payload and route its commands.
type EntityDesc struct {
	Key            string
	Component      string
	Name           string
	Icon           string
	DeviceClass    string
	StateClass     string
	Unit           string
	EntityCategory string
	WithAttributes bool
}

// ServerEntities lists the entities every server device carries.
func ServerEntities() []EntityDesc {
	return []EntityDesc{
		{Key: KeyStatus, Component: ComponentSensor, Name: "Status", Icon: "mdi:minecraft", WithAttributes: true},
		{Key: KeyCPUPercent, Component: ComponentSensor, Name: "CPU Usage", Unit: "%", StateClass: "measurement", Icon: "mdi:cpu-64-bit", EntityCategory: "diagnostic"},
		{Key: KeyMemoryMB, Component: ComponentSensor, Name: "Memory Usage", Unit: "MB", StateClass: "measurement", Icon: "mdi:memory", EntityCategory: "diagnostic"},
		{Key: KeyAllowlist, Component: ComponentSensor, Name: "Allowlisted Players", Icon: "mdi:account-multiple", WithAttributes: true},
		{Key: KeyServer, Component: ComponentSwitch, Name: "Server", Icon: "mdi:server"},
		{Key: KeyRestart, Component: ComponentButton, Name: "Restart", DeviceClass: "restart"},
		{Key: KeyUpdate, Component: ComponentButton, Name: "Update", DeviceClass: "update", EntityCategory: "config"},
		{Key: KeyBackupAll, Component: ComponentButton, Name: "Backup All", Icon: "mdi:content-save-all", EntityCategory: "config"},
		{Key: KeyExportWorld, Component: ComponentButton, Name: "Export World", Icon: "mdi:earth-arrow-right", EntityCategory: "config"},
		{Key: KeyPruneBackups, Component: ComponentButton, Name: "Prune Backups", Icon: "mdi:delete-sweep", EntityCategory: "config"},
	}
}

// ManagerEntities lists the entities of the manager device itself.
func ManagerEntities() []EntityDesc {
	return []EntityDesc{
		{Key: KeyGlobalPlayers, Component: ComponentSensor, Name: "Global Players", Icon: "mdi:account-group", WithAttributes: true},
		{Key: KeyScanPlayers, Component: ComponentButton, Name: "Scan Player Logs", Icon: "mdi:account-search", EntityCategory: "config"},
		{Key: KeyPruneDownloads, Component: ComponentButton, Name: "Prune Download Cache", Icon: "mdi:folder-download", EntityCategory: "config"},
	}
}

// EntityKeys lists every known entity key; unique ID parsing tries them as
// suffixes since keys may contain the ID delimiter.
func EntityKeys() []string {
	all := append(ServerEntities(), ManagerEntities()...)
	return lo.Map(all, func(e EntityDesc, _ int) string { return e.Key })
}

// CommandKeys lists the keys accepting commands.
func CommandKeys() []string {
	all := append(ServerEntities(), ManagerEntities()...)
	actionable := lo.Filter(all, func(e EntityDesc, _ int) bool {
		return e.Component == ComponentSwitch || e.Component == ComponentButton
	})
	return lo.Map(actionable, func(e EntityDesc, _ int) string { return e.Key })
}

// NewDiscovery renders the discovery payload of one entity.
func NewDiscovery(desc EntityDesc, topics Topics, deviceID string, device *Device) Discovery {
	result := Discovery{
		Name:     desc.Name,
		UniqueID: deviceID + "_" + desc.Key,
		Availability: []Availability{
			{Topic: topics.Availability()},
			{Topic: topics.DeviceAvailability(deviceID)},
		},
		AvailabilityMode: "all",
		DeviceClass:      desc.DeviceClass,
		StateClass:       desc.StateClass,
		Unit:             desc.Unit,
		Icon:             desc.Icon,
		EntityCategory:   desc.EntityCategory,
		Device:           device,
	}
	switch desc.Component {
	case ComponentSensor:
		result.StateTopic = topics.State(deviceID, desc.Key)
	case ComponentSwitch:
		result.StateTopic = topics.State(deviceID, desc.Key)
		result.CommandTopic = topics.Command(deviceID, desc.Key)
		result.PayloadOn = "ON"
		result.PayloadOff = "OFF"
	case ComponentButton:
		result.CommandTopic = topics.Command(deviceID, desc.Key)
		result.PayloadPress = "PRESS"
	}
	if desc.WithAttributes {
		result.AttributesTopic = topics.Attributes(deviceID, desc.Key)
	}
	return result
}

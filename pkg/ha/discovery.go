// Package ha renders the MQTT discovery convention of Home Assistant:
// retained config payloads under a discovery prefix announce entities, state
// topics carry their values.
package ha

// Discovery is the config payload announcing one entity. Field names follow
// the abbreviated keys of the convention.
type Discovery struct {
	Name             string         `json:"name"`
	UniqueID         string         `json:"uniq_id"`
	StateTopic       string         `json:"stat_t,omitempty"`
	CommandTopic     string         `json:"cmd_t,omitempty"`
	AttributesTopic  string         `json:"json_attr_t,omitempty"`
	Availability     []Availability `json:"avty"`
	AvailabilityMode string         `json:"avty_mode,omitempty"`
	PayloadOn        string         `json:"pl_on,omitempty"`
	PayloadOff       string         `json:"pl_off,omitempty"`
	PayloadPress     string         `json:"pl_prs,omitempty"`
	DeviceClass      string         `json:"dev_cla,omitempty"`
	StateClass       string         `json:"stat_cla,omitempty"`
	Unit             string         `json:"unit_of_meas,omitempty"`
	Icon             string         `json:"ic,omitempty"`
	EntityCategory   string         `json:"ent_cat,omitempty"`
	Device           *Device        `json:"dev,omitempty"`
}

// Availability is one availability source of an entity. Entities reference
// both the bridge topic and their device topic, joined with the "all" mode,
// so a device whose polls fail goes unavailable even while the bridge runs.
type Availability struct {
	Topic string `json:"t"`
}

// Device groups entities under one device entry; ViaDevice chains server
// devices below their manager device.
type Device struct {
	Identifiers     []string `json:"ids"`
	Name            string   `json:"name"`
	Manufacturer    string   `json:"mf,omitempty"`
	Model           string   `json:"mdl,omitempty"`
	SoftwareVersion string   `json:"sw,omitempty"`
	ViaDevice       string   `json:"via_device,omitempty"`
}

// ConfigTopic builds the discovery config topic of an entity.
func ConfigTopic(discoveryPrefix string, component string, uniqueID string) string {
	return discoveryPrefix + "/" + component + "/" + uniqueID + "/config"
}

package ha

import "strings"

// Topics derives every MQTT topic of the bridge from one root prefix.
// Device IDs contain no slashes so each occupies a single topic level.
type Topics struct {
	Prefix string
}

func (t Topics) Availability() string {
	return t.Prefix + "/bridge/availability"
}

// DeviceAvailability is the per-device availability topic, driven by the
// success of the device's own polls rather than the bridge connection.
func (t Topics) DeviceAvailability(deviceID string) string {
	return t.Prefix + "/" + deviceID + "/availability"
}

func (t Topics) State(deviceID string, key string) string {
	return t.Prefix + "/" + deviceID + "/" + key + "/state"
}

func (t Topics) Attributes(deviceID string, key string) string {
	return t.Prefix + "/" + deviceID + "/" + key + "/attributes"
}

func (t Topics) Command(deviceID string, key string) string {
	return t.Prefix + "/" + deviceID + "/" + key + "/set"
}

// CommandPattern matches every command topic of the bridge.
func (t Topics) CommandPattern() string {
	return t.Prefix + "/+/+/set"
}

// ParseCommand recovers (deviceID, key) from a command topic.
func (t Topics) ParseCommand(topic string) (string, string, bool) {
	rest, found := strings.CutPrefix(topic, t.Prefix+"/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != "set" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ServiceCall is the topic on which service invocations arrive.
func (t Topics) ServiceCall() string {
	return t.Prefix + "/service/call"
}

// ServiceResult carries the aggregate outcome of one service invocation.
func (t Topics) ServiceResult(correlationID string) string {
	return t.Prefix + "/service/result/" + correlationID
}

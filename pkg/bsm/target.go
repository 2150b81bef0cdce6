package bsm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bsmkit/bsmc/pkg/common/stringsx"
)

const IDDelimiter = "_"

var ErrNoTarget = fmt.Errorf("no server target resolved")

// DeviceID encodes the identity of a server device exposed outward:
// '{managerID}_{serverName}'.
func DeviceID(managerID, serverName string) string {
	return managerID + IDDelimiter + serverName
}

// EntityUID encodes the identity of a single entity: '{managerID}_{serverName}_{key}'.
func EntityUID(managerID, serverName, key string) string {
	return DeviceID(managerID, serverName) + IDDelimiter + key
}

// ParseDeviceID recovers (managerID, serverName) from a device identifier.
// Manager ids may themselves contain the delimiter, so parsing walks the set
// of known ids instead of splitting blindly.
func ParseDeviceID(id string, managerIDs []string) (string, string, error) {
	for _, managerID := range managerIDs {
		prefix := managerID + IDDelimiter
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return managerID, id[len(prefix):], nil
		}
	}
	return "", "", fmt.Errorf("%w: device id '%s' does not match any configured manager", ErrNoTarget, id)
}

// ParseEntityUID recovers (managerID, serverName) from an entity unique id.
// Entity keys may contain the delimiter, so known keys are tried as suffixes
// before falling back to stripping the last segment.
func ParseEntityUID(uid string, managerIDs []string, keys []string) (string, string, error) {
	managerID, rest, err := ParseDeviceID(uid, managerIDs)
	if err != nil {
		return "", "", err
	}
	for _, key := range keys {
		suffix := IDDelimiter + key
		if strings.HasSuffix(rest, suffix) && len(rest) > len(suffix) {
			return managerID, strings.TrimSuffix(rest, suffix), nil
		}
	}
	serverName := stringsx.BeforeLast(rest, IDDelimiter)
	if serverName == "" || serverName == rest {
		return "", "", fmt.Errorf("%w: entity uid '%s' has no entity key part", ErrNoTarget, uid)
	}
	return managerID, serverName, nil
}

// Match checks a server against a target pattern. A plain pattern globs the
// server name only; a 'manager:server' pattern additionally globs the manager
// id. Both sides accept comma-separated alternatives.
func Match(managerID, serverName, pattern string) bool {
	if !strings.Contains(pattern, ":") {
		return stringsx.MatchAnyPattern(serverName, strings.Split(pattern, ","))
	}
	parts := strings.SplitN(pattern, ":", 2)
	if !stringsx.MatchAnyPattern(managerID, strings.Split(parts[0], ",")) {
		return false
	}
	return stringsx.MatchAnyPattern(serverName, strings.Split(parts[1], ","))
}

func MatchSome(managerID, serverName string, patterns []string) bool {
	for _, pattern := range patterns {
		if Match(managerID, serverName, pattern) {
			return true
		}
	}
	return false
}

// SanitizeHostPort normalizes a 'host:port' id; ports deserialized as floats
// ('11325.0') come back as plain integers. Malformed values pass through.
func SanitizeHostPort(value string) string {
	if value == "" {
		return ""
	}
	sep := strings.LastIndex(value, ":")
	if sep < 0 {
		return value
	}
	if strings.HasPrefix(value, "[") && !strings.Contains(value, "]:") {
		return value // bracketed IPv6 without port
	}
	host, portPart := value[:sep], value[sep+1:]
	if host == "" {
		return value
	}
	port, err := strconv.ParseFloat(portPart, 64)
	if err != nil || port != float64(int(port)) {
		return value
	}
	if port < 1 || port > 65535 {
		return value
	}
	return fmt.Sprintf("%s:%d", host, int(port))
}

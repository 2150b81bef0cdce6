// Package bsm defines the wire schemas and value types of the Bedrock Server
// Manager HTTP API. Responses are parsed into these types at the client
// boundary so that downstream code never inspects raw JSON maps.
package bsm

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

const (
	StatusSuccess       = "success"
	StatusError         = "error"
	StatusConfirmNeeded = "confirm_needed"
)

// Envelope is the common part of every API response body.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e Envelope) IsError() bool {
	return e.Status == StatusError
}

type LoginResponse struct {
	Envelope    `yaml:",inline"`
	AccessToken string `json:"access_token" yaml:"access_token"`
}

type ServerListResponse struct {
	Envelope `yaml:",inline"`
	Servers  []ServerListItem `json:"servers"`
}

func (r ServerListResponse) Names() []string {
	return lo.Map(r.Servers, func(item ServerListItem, _ int) string { return item.Name })
}

// ServerListItem accepts both the current object form ({"name": "..."}) and
// the legacy bare-string form still emitted by older managers.
type ServerListItem struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (i *ServerListItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		i.Name = name
		return nil
	}
	type plain ServerListItem
	var item plain
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("cannot parse server list item: %w", err)
	}
	*i = ServerListItem(item)
	return nil
}

// ProcessInfo describes the OS process of a running server. It is absent when
// the server is stopped.
type ProcessInfo struct {
	PID        int     `json:"pid"`
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb" yaml:"memory_mb"`
	Uptime     string  `json:"uptime"`
}

func (p ProcessInfo) Memory() string {
	return humanize.Bytes(uint64(p.MemoryMB * 1024 * 1024))
}

type StatusInfoResponse struct {
	Envelope `yaml:",inline"`
	Process  *ProcessInfo `json:"process_info" yaml:"process_info"`
}

type VersionResponse struct {
	Envelope         `yaml:",inline"`
	InstalledVersion string `json:"installed_version" yaml:"installed_version"`
}

type WorldNameResponse struct {
	Envelope  `yaml:",inline"`
	WorldName string `json:"world_name" yaml:"world_name"`
}

type AllowlistPlayer struct {
	Name               string `json:"name"`
	IgnoresPlayerLimit bool   `json:"ignoresPlayerLimit" yaml:"ignores_player_limit"`
}

type AllowlistResponse struct {
	Envelope `yaml:",inline"`
	Players  []AllowlistPlayer `json:"existing_players" yaml:"existing_players"`
}

type PropertiesResponse struct {
	Envelope   `yaml:",inline"`
	Properties map[string]string `json:"properties"`
}

type PlayerPermission struct {
	Name            string `json:"name"`
	XUID            string `json:"xuid"`
	PermissionLevel string `json:"permission_level" yaml:"permission_level"`
}

type PermissionsResponse struct {
	Envelope    `yaml:",inline"`
	Permissions []PlayerPermission `json:"permissions"`
}

type BackupListResponse struct {
	Envelope `yaml:",inline"`
	Backups  []string `json:"backups"`
}

type ManagerInfo struct {
	OSType     string `json:"os_type" yaml:"os_type"`
	AppVersion string `json:"app_version" yaml:"app_version"`
}

type InfoResponse struct {
	Envelope `yaml:",inline"`
	Info     ManagerInfo `json:"info"`
}

type GlobalPlayer struct {
	Name string `json:"name"`
	XUID string `json:"xuid"`
}

type PlayersResponse struct {
	Envelope `yaml:",inline"`
	Players  []GlobalPlayer `json:"players"`
}

type ActionResponse struct {
	Envelope `yaml:",inline"`
}

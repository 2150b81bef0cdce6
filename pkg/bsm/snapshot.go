package bsm

import (
	"time"

	"github.com/samber/lo"
)

const (
	StateRunning = "Running"
	StateStopped = "Stopped"
)

// Snapshot is the merged result of one poll tick for a single server. It is
// the sole consistency boundary between the coordinator and its readers:
// built fresh each tick, never mutated after publication.
type Snapshot struct {
	Taken   time.Time `json:"taken" yaml:"taken"`
	Running bool      `json:"running" yaml:"running"`

	Process     *ProcessInfo       `json:"process" yaml:"process"`
	Allowlist   []AllowlistPlayer  `json:"allowlist" yaml:"allowlist"`
	Properties  map[string]string  `json:"properties" yaml:"properties"`
	Permissions []PlayerPermission `json:"permissions" yaml:"permissions"`
	Backups     []string           `json:"backups" yaml:"backups"`

	Message string `json:"message" yaml:"message"`
	// Notes records best-effort sub-fetches that failed this tick.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Available reports whether the critical fetch of the tick succeeded. A
// snapshot of an unreachable or auth-broken manager is not available, which
// is distinct from a cleanly stopped server.
func (s Snapshot) Available() bool {
	return s.Message == ""
}

func (s Snapshot) StateText() string {
	if s.Running {
		return StateRunning
	}
	return StateStopped
}

func (s Snapshot) AllowlistNames() []string {
	return lo.Map(s.Allowlist, func(p AllowlistPlayer, _ int) string { return p.Name })
}

// ManagerSnapshot is the merged result of one manager-wide poll tick.
type ManagerSnapshot struct {
	Taken   time.Time      `json:"taken" yaml:"taken"`
	Info    ManagerInfo    `json:"info" yaml:"info"`
	Players []GlobalPlayer `json:"players" yaml:"players"`

	Message string   `json:"message" yaml:"message"`
	Notes   []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

func (s ManagerSnapshot) Available() bool {
	return s.Message == ""
}

func (s ManagerSnapshot) PlayerNames() []string {
	return lo.Map(s.Players, func(p GlobalPlayer, _ int) string { return p.Name })
}

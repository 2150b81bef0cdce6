package pkg

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bsmkit/bsmc/pkg/bsm"
)

// Server represents a single Bedrock server hosted by a manager. Action
// methods return an outcome value instead of failing on business conditions
// like a stopped process.
type Server struct {
	manager *Manager
	name    string
}

func NewServer(manager *Manager, name string) Server {
	return Server{manager: manager, name: name}
}

type ServerState struct {
	Manager string `yaml:"manager" json:"manager"`
	Name    string `yaml:"name" json:"name"`
	Device  string `yaml:"device" json:"device"`
}

func (s Server) State() ServerState {
	return ServerState{
		Manager: s.manager.ID(),
		Name:    s.name,
		Device:  s.DeviceID(),
	}
}

func (s Server) Manager() *Manager {
	return s.manager
}

func (s Server) Name() string {
	return s.name
}

func (s Server) DeviceID() string {
	return bsm.DeviceID(s.manager.ID(), s.name)
}

func (s Server) path(suffix string) string {
	return bsm.ServerPath(s.name, suffix)
}

// Validate checks that the server exists on the manager.
func (s Server) Validate(ctx context.Context) error {
	return s.manager.http.Get(ctx, s.path("/validate"), nil)
}

// StatusInfo fetches the process details; the process part is nil when the
// server is stopped.
func (s Server) StatusInfo(ctx context.Context) (*bsm.StatusInfoResponse, error) {
	var reply bsm.StatusInfoResponse
	if err := s.manager.http.Get(ctx, s.path("/status_info"), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s Server) Version(ctx context.Context) (string, error) {
	var reply bsm.VersionResponse
	if err := s.manager.http.Get(ctx, s.path("/version"), &reply); err != nil {
		return "", err
	}
	return reply.InstalledVersion, nil
}

func (s Server) WorldName(ctx context.Context) (string, error) {
	var reply bsm.WorldNameResponse
	if err := s.manager.http.Get(ctx, s.path("/world_name"), &reply); err != nil {
		return "", err
	}
	return reply.WorldName, nil
}

func (s Server) Allowlist(ctx context.Context) ([]bsm.AllowlistPlayer, error) {
	var reply bsm.AllowlistResponse
	if err := s.manager.http.Get(ctx, s.path("/allowlist"), &reply); err != nil {
		return nil, err
	}
	return reply.Players, nil
}

func (s Server) Properties(ctx context.Context) (map[string]string, error) {
	var reply bsm.PropertiesResponse
	if err := s.manager.http.Get(ctx, s.path("/properties"), &reply); err != nil {
		return nil, err
	}
	return reply.Properties, nil
}

func (s Server) Permissions(ctx context.Context) ([]bsm.PlayerPermission, error) {
	var reply bsm.PermissionsResponse
	if err := s.manager.http.Get(ctx, s.path("/permissions"), &reply); err != nil {
		return nil, err
	}
	return reply.Permissions, nil
}

func (s Server) Backups(ctx context.Context) ([]string, error) {
	var reply bsm.BackupListResponse
	if err := s.manager.http.Get(ctx, s.path("/backup/list"), &reply); err != nil {
		return nil, err
	}
	return reply.Backups, nil
}

func (s Server) Start(ctx context.Context) bsm.ActionResult {
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/start"), nil, nil) })
}

func (s Server) Stop(ctx context.Context) bsm.ActionResult {
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/stop"), nil, nil) })
}

func (s Server) Restart(ctx context.Context) bsm.ActionResult {
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/restart"), nil, nil) })
}

func (s Server) Update(ctx context.Context) bsm.ActionResult {
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/update"), nil, nil) })
}

// SendCommand runs a console command inside the server process.
func (s Server) SendCommand(ctx context.Context, command string) bsm.ActionResult {
	body := map[string]string{"command": command}
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/send_command"), body, nil) })
}

// TriggerBackup starts a backup of the given type ("all", "world" or
// "config"); config backups additionally name the file to back up.
func (s Server) TriggerBackup(ctx context.Context, backupType string, fileToBackup string) bsm.ActionResult {
	body := map[string]string{"backup_type": backupType}
	if fileToBackup != "" {
		body["file_to_backup"] = fileToBackup
	}
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/backup/action"), body, nil) })
}

// RestoreBackup restores a single backup file of the given type.
func (s Server) RestoreBackup(ctx context.Context, restoreType string, backupFile string) bsm.ActionResult {
	body := map[string]string{"restore_type": restoreType, "backup_file": backupFile}
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/restore/action"), body, nil) })
}

// RestoreLatestAll restores the newest backup of everything.
func (s Server) RestoreLatestAll(ctx context.Context) bsm.ActionResult {
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/restore/all"), nil, nil) })
}

func (s Server) ExportWorld(ctx context.Context) bsm.ActionResult {
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/world/export"), nil, nil) })
}

// PruneBackups trims old backups, keeping the given number of newest ones
// when keep is non-negative.
func (s Server) PruneBackups(ctx context.Context, keep int) bsm.ActionResult {
	var body map[string]any
	if keep >= 0 {
		body = map[string]any{"keep": keep}
	}
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/backups/prune"), body, nil) })
}

func (s Server) AddToAllowlist(ctx context.Context, players []string, ignoresPlayerLimit bool) bsm.ActionResult {
	body := map[string]any{"players": players, "ignoresPlayerLimit": ignoresPlayerLimit}
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/allowlist/add"), body, nil) })
}

func (s Server) RemoveFromAllowlist(ctx context.Context, playerName string) bsm.ActionResult {
	return s.action(func() error {
		return s.manager.http.Delete(ctx, s.path("/allowlist/player/"+url.PathEscape(playerName)), nil)
	})
}

// SetPermissions assigns permission levels by player XUID.
func (s Server) SetPermissions(ctx context.Context, permissions map[string]string) bsm.ActionResult {
	body := map[string]any{"permissions": permissions}
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/permissions/set"), body, nil) })
}

// UpdateProperties changes server.properties values. The manager applies them
// on next start.
func (s Server) UpdateProperties(ctx context.Context, properties map[string]string) bsm.ActionResult {
	body := map[string]any{"properties": properties}
	return s.action(func() error { return s.manager.http.Post(ctx, s.path("/properties"), body, nil) })
}

// Delete removes the server and its data from the manager permanently.
func (s Server) Delete(ctx context.Context) bsm.ActionResult {
	return s.action(func() error { return s.manager.http.Delete(ctx, s.path("/delete"), nil) })
}

func (s Server) action(call func() error) bsm.ActionResult {
	err := call()
	if err == nil {
		return bsm.ActionResult{Outcome: bsm.OutcomeOK}
	}
	return bsm.ActionResult{Outcome: bsm.ClassifyError(err), Message: err.Error()}
}

func (s Server) String() string {
	return fmt.Sprintf("server '%s'", s.DeviceID())
}

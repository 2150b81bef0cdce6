package pkg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/common/lox"
	"github.com/bsmkit/bsmc/pkg/ha"
	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Service names accepted by the dispatcher.
const (
	ServiceSendCommand         = "send_command"
	ServiceTriggerBackup       = "trigger_backup"
	ServiceRestoreBackup       = "restore_backup"
	ServiceRestoreLatestAll    = "restore_latest_all"
	ServiceExportWorld         = "export_world"
	ServicePruneBackups        = "prune_backups"
	ServiceAddToAllowlist      = "add_to_allowlist"
	ServiceRemoveFromAllowlist = "remove_from_allowlist"
	ServiceSetPermissions      = "set_permissions"
	ServiceUpdateProperties    = "update_properties"
	ServiceStart               = "start"
	ServiceStop                = "stop"
	ServiceRestart             = "restart"
	ServiceUpdate              = "update"
	ServiceDeleteServer        = "delete_server"
	ServiceInstallServer       = "install_server"
	ServiceScanPlayers         = "scan_players"
	ServicePruneDownloads      = "prune_downloads"
)

// ServiceCall is one invocation arriving over MQTT.
type ServiceCall struct {
	Service       string         `json:"service"`
	CorrelationID string         `json:"correlation_id"`
	Target        ServiceTarget  `json:"target"`
	Data          map[string]any `json:"data"`
}

// ServiceTarget selects the servers a call applies to. Devices and entities
// use the outward IDs; patterns glob server names, optionally prefixed with
// a manager glob ('manager:server'). Manager-level services ignore server
// targets and use Managers (all configured when empty).
type ServiceTarget struct {
	Devices  []string `json:"devices"`
	Entities []string `json:"entities"`
	Patterns []string `json:"patterns"`
	Managers []string `json:"managers"`
}

// ServiceResult aggregates the per-server outcomes of one call.
type ServiceResult struct {
	Service       string               `json:"service"`
	CorrelationID string               `json:"correlation_id"`
	Succeeded     bool                 `json:"succeeded"`
	Outcomes      []ServiceCallOutcome `json:"outcomes"`
	Error         string               `json:"error,omitempty"`
}

type ServiceCallOutcome struct {
	Device  string `json:"device"`
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
}

// ServiceDispatcher validates service calls, resolves their targets and fans
// the work out over the matching servers in parallel.
type ServiceDispatcher struct {
	bridge *Bridge
}

func NewServiceDispatcher(bridge *Bridge) *ServiceDispatcher {
	return &ServiceDispatcher{bridge: bridge}
}

// Handle consumes one service call payload from MQTT.
func (d *ServiceDispatcher) Handle(_ string, payload []byte) error {
	var call ServiceCall
	if err := json.Unmarshal(payload, &call); err != nil {
		return fmt.Errorf("service call cannot be parsed: %w", err)
	}
	result := d.Dispatch(context.Background(), call)
	if result.Error != "" {
		log.Errorf("service '%s' (%s) failed: %s", call.Service, result.CorrelationID, result.Error)
	} else {
		log.Infof("service '%s' (%s) finished on %d target(s)", call.Service, result.CorrelationID, len(result.Outcomes))
	}
	d.publishResult(result)
	return nil
}

func (d *ServiceDispatcher) publishResult(result ServiceResult) {
	if d.bridge.mqtt == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Errorf("cannot marshal result of service '%s': %s", result.Service, err)
		return
	}
	topic := d.bridge.topics.ServiceResult(result.CorrelationID)
	if err := d.bridge.mqtt.Publish(topic, data, false); err != nil {
		log.Warnf("cannot publish result of service '%s': %s", result.Service, err)
	}
}

// Dispatch runs one validated call synchronously and returns the aggregate.
func (d *ServiceDispatcher) Dispatch(ctx context.Context, call ServiceCall) ServiceResult {
	result := ServiceResult{Service: call.Service, CorrelationID: call.CorrelationID}
	if result.CorrelationID == "" {
		result.CorrelationID = uuid.NewString()
	}

	if d.isManagerService(call.Service) {
		return d.dispatchManagers(ctx, call, result)
	}

	action, err := d.serverAction(call)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	servers, err := d.ResolveServers(ctx, call.Target)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	outcomes, _ := lox.ParallelMap(servers, func(server Server) (ServiceCallOutcome, error) {
		actionResult := action(ctx, server)
		d.refresh(server.DeviceID())
		return ServiceCallOutcome{
			Device:  server.DeviceID(),
			Outcome: actionResult.Outcome.String(),
			Message: actionResult.Message,
		}, nil
	})
	result.Outcomes = outcomes
	result.Succeeded = lo.EveryBy(outcomes, func(o ServiceCallOutcome) bool {
		return o.Outcome != bsm.OutcomeError.String() && o.Outcome != bsm.OutcomeNotFound.String()
	})
	return result
}

func (d *ServiceDispatcher) isManagerService(service string) bool {
	switch service {
	case ServiceInstallServer, ServiceScanPlayers, ServicePruneDownloads:
		return true
	}
	return false
}

func (d *ServiceDispatcher) dispatchManagers(ctx context.Context, call ServiceCall, result ServiceResult) ServiceResult {
	managers, err := d.resolveManagers(call.Target)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	action, err := d.managerAction(call)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	outcomes, _ := lox.ParallelMap(managers, func(manager *Manager) (ServiceCallOutcome, error) {
		actionResult := action(ctx, manager)
		manager.Coordinator().RequestRefresh()
		return ServiceCallOutcome{
			Device:  manager.ID(),
			Outcome: actionResult.Outcome.String(),
			Message: actionResult.Message,
		}, nil
	})
	result.Outcomes = outcomes
	result.Succeeded = lo.EveryBy(outcomes, func(o ServiceCallOutcome) bool {
		return o.Outcome == bsm.OutcomeOK.String()
	})
	return result
}

// ResolveServers turns a target selector into concrete servers. Every
// selector kind contributes; duplicates collapse. An empty resolution is an
// error so a mistyped ID never silently does nothing.
func (d *ServiceDispatcher) ResolveServers(ctx context.Context, target ServiceTarget) ([]Server, error) {
	registry := d.bridge.bsm.ManagerRegistry()
	managerIDs := registry.IDs()
	entityKeys := ha.EntityKeys()

	seen := map[string]Server{}
	add := func(managerID string, serverName string) error {
		manager, err := registry.ByID(managerID)
		if err != nil {
			return err
		}
		server := NewServer(manager, serverName)
		seen[server.DeviceID()] = server
		return nil
	}

	for _, deviceID := range target.Devices {
		managerID, serverName, err := bsm.ParseDeviceID(deviceID, managerIDs)
		if err != nil {
			return nil, err
		}
		if err := add(managerID, serverName); err != nil {
			return nil, err
		}
	}
	for _, entityUID := range target.Entities {
		managerID, serverName, err := bsm.ParseEntityUID(entityUID, managerIDs, entityKeys)
		if err != nil {
			return nil, err
		}
		if err := add(managerID, serverName); err != nil {
			return nil, err
		}
	}
	if len(target.Patterns) > 0 {
		for _, manager := range registry.All() {
			names, err := manager.ServerNames(ctx)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				if bsm.MatchSome(manager.ID(), name, target.Patterns) {
					if err := add(manager.ID(), name); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: selector matches no servers", bsm.ErrNoTarget)
	}
	return lo.Values(seen), nil
}

func (d *ServiceDispatcher) resolveManagers(target ServiceTarget) ([]*Manager, error) {
	registry := d.bridge.bsm.ManagerRegistry()
	if len(target.Managers) == 0 {
		return registry.Some()
	}
	managers := make([]*Manager, 0, len(target.Managers))
	for _, id := range target.Managers {
		manager, err := registry.ByID(id)
		if err != nil {
			return nil, err
		}
		managers = append(managers, manager)
	}
	return managers, nil
}

func (d *ServiceDispatcher) serverAction(call ServiceCall) (func(context.Context, Server) bsm.ActionResult, error) {
	data := call.Data
	switch call.Service {
	case ServiceSendCommand:
		command := cast.ToString(data["command"])
		if command == "" {
			return nil, fmt.Errorf("service '%s' requires a non-empty 'command'", call.Service)
		}
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.SendCommand(ctx, command) }, nil
	case ServiceTriggerBackup:
		backupType := cast.ToString(data["backup_type"])
		if backupType == "" {
			backupType = "all"
		}
		fileToBackup := cast.ToString(data["file_to_backup"])
		if backupType == "config" && fileToBackup == "" {
			return nil, fmt.Errorf("service '%s' requires 'file_to_backup' for config backups", call.Service)
		}
		return func(ctx context.Context, s Server) bsm.ActionResult {
			return s.TriggerBackup(ctx, backupType, fileToBackup)
		}, nil
	case ServiceRestoreBackup:
		restoreType := cast.ToString(data["restore_type"])
		backupFile := cast.ToString(data["backup_file"])
		if restoreType == "" || backupFile == "" {
			return nil, fmt.Errorf("service '%s' requires 'restore_type' and 'backup_file'", call.Service)
		}
		return func(ctx context.Context, s Server) bsm.ActionResult {
			return s.RestoreBackup(ctx, restoreType, backupFile)
		}, nil
	case ServiceRestoreLatestAll:
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.RestoreLatestAll(ctx) }, nil
	case ServiceExportWorld:
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.ExportWorld(ctx) }, nil
	case ServicePruneBackups:
		keep := -1
		if _, present := data["keep"]; present {
			keep = cast.ToInt(data["keep"])
		}
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.PruneBackups(ctx, keep) }, nil
	case ServiceAddToAllowlist:
		players := cast.ToStringSlice(data["players"])
		if len(players) == 0 {
			return nil, fmt.Errorf("service '%s' requires a non-empty 'players' list", call.Service)
		}
		ignoresLimit := cast.ToBool(data["ignores_player_limit"])
		return func(ctx context.Context, s Server) bsm.ActionResult {
			return s.AddToAllowlist(ctx, players, ignoresLimit)
		}, nil
	case ServiceRemoveFromAllowlist:
		playerName := cast.ToString(data["player_name"])
		if playerName == "" {
			return nil, fmt.Errorf("service '%s' requires a non-empty 'player_name'", call.Service)
		}
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.RemoveFromAllowlist(ctx, playerName) }, nil
	case ServiceSetPermissions:
		permissions := cast.ToStringMapString(data["permissions"])
		if len(permissions) == 0 {
			return nil, fmt.Errorf("service '%s' requires a non-empty 'permissions' map", call.Service)
		}
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.SetPermissions(ctx, permissions) }, nil
	case ServiceUpdateProperties:
		properties := cast.ToStringMapString(data["properties"])
		if len(properties) == 0 {
			return nil, fmt.Errorf("service '%s' requires a non-empty 'properties' map", call.Service)
		}
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.UpdateProperties(ctx, properties) }, nil
	case ServiceStart:
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.Start(ctx) }, nil
	case ServiceStop:
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.Stop(ctx) }, nil
	case ServiceRestart:
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.Restart(ctx) }, nil
	case ServiceUpdate:
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.Update(ctx) }, nil
	case ServiceDeleteServer:
		if !cast.ToBool(data["confirm"]) {
			return nil, fmt.Errorf("service '%s' requires 'confirm: true'; deletion is permanent", call.Service)
		}
		return func(ctx context.Context, s Server) bsm.ActionResult { return s.Delete(ctx) }, nil
	}
	return nil, fmt.Errorf("unknown service '%s'", call.Service)
}

func (d *ServiceDispatcher) managerAction(call ServiceCall) (func(context.Context, *Manager) bsm.ActionResult, error) {
	data := call.Data
	switch call.Service {
	case ServiceScanPlayers:
		return func(ctx context.Context, m *Manager) bsm.ActionResult { return m.ScanPlayers(ctx) }, nil
	case ServicePruneDownloads:
		directory := cast.ToString(data["directory"])
		keep := -1
		if _, present := data["keep"]; present {
			keep = cast.ToInt(data["keep"])
		}
		return func(ctx context.Context, m *Manager) bsm.ActionResult { return m.PruneDownloads(ctx, directory, keep) }, nil
	case ServiceInstallServer:
		serverName := cast.ToString(data["server_name"])
		serverVersion := cast.ToString(data["server_version"])
		if serverName == "" || serverVersion == "" {
			return nil, fmt.Errorf("service '%s' requires 'server_name' and 'server_version'", call.Service)
		}
		overwrite := cast.ToBool(data["overwrite"])
		return func(ctx context.Context, m *Manager) bsm.ActionResult {
			return m.InstallServer(ctx, serverName, serverVersion, overwrite)
		}, nil
	}
	return nil, fmt.Errorf("unknown manager service '%s'", call.Service)
}

func (d *ServiceDispatcher) refresh(deviceID string) {
	if coordinator, ok := d.bridge.coordinators[deviceID]; ok {
		coordinator.RequestRefresh()
	}
}

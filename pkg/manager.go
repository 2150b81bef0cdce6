package pkg

import (
	"context"
	"fmt"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/common/stringsx"
	"github.com/hashicorp/go-version"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Manager represents a single remote Bedrock Server Manager application.
type Manager struct {
	registry *ManagerRegistry

	id        string
	user      string
	password  string
	verifySSL bool

	serverPatterns []string

	http        *HTTP
	coordinator *ManagerCoordinator
}

type ManagerState struct {
	ID      string   `yaml:"id" json:"id"`
	URL     string   `yaml:"url" json:"url"`
	Servers []string `yaml:"servers" json:"servers"`
}

func (m *Manager) State() ManagerState {
	return ManagerState{
		ID:      m.id,
		URL:     m.http.BaseURL(),
		Servers: m.serverPatterns,
	}
}

func (m *Manager) ID() string {
	return m.id
}

func (m *Manager) User() string {
	return m.user
}

func (m *Manager) Password() string {
	return m.password
}

func (m *Manager) VerifySSL() bool {
	return m.verifySSL
}

func (m *Manager) HTTP() *HTTP {
	return m.http
}

func (m *Manager) Registry() *ManagerRegistry {
	return m.registry
}

func (m *Manager) Coordinator() *ManagerCoordinator {
	return m.coordinator
}

// ServerNames lists servers known to the manager API, narrowed to the
// configured selection patterns (all when none configured).
func (m *Manager) ServerNames(ctx context.Context) ([]string, error) {
	var reply bsm.ServerListResponse
	if err := m.http.Get(ctx, bsm.ServersPath, &reply); err != nil {
		return nil, err
	}
	names := reply.Names()
	if len(m.serverPatterns) > 0 {
		names = lo.Filter(names, func(name string, _ int) bool {
			return stringsx.MatchAnyPattern(name, m.serverPatterns)
		})
	}
	return names, nil
}

// ServerNamesAll lists every server on the manager regardless of selection,
// which the setup wizard needs.
func (m *Manager) ServerNamesAll(ctx context.Context) ([]string, error) {
	var reply bsm.ServerListResponse
	if err := m.http.Get(ctx, bsm.ServersPath, &reply); err != nil {
		return nil, err
	}
	return reply.Names(), nil
}

func (m *Manager) Servers(ctx context.Context) ([]Server, error) {
	names, err := m.ServerNames(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(names, func(name string, _ int) Server { return NewServer(m, name) }), nil
}

func (m *Manager) ServerByName(ctx context.Context, name string) (*Server, error) {
	names, err := m.ServerNames(ctx)
	if err != nil {
		return nil, err
	}
	if !lo.Contains(names, name) {
		return nil, fmt.Errorf("manager '%s': %w: '%s'", m.id, bsm.ErrServerNotFound, name)
	}
	server := NewServer(m, name)
	return &server, nil
}

// Info fetches manager application details (OS type, app version).
func (m *Manager) Info(ctx context.Context) (*bsm.InfoResponse, error) {
	var reply bsm.InfoResponse
	if err := m.http.Get(ctx, bsm.InfoPath, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// GlobalPlayers fetches the players known across all servers of the manager.
func (m *Manager) GlobalPlayers(ctx context.Context) (*bsm.PlayersResponse, error) {
	var reply bsm.PlayersResponse
	if err := m.http.Get(ctx, bsm.PlayersGetPath, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ScanPlayers asks the manager to rescan server logs for player identities.
func (m *Manager) ScanPlayers(ctx context.Context) bsm.ActionResult {
	return m.action(func() error { return m.http.Post(ctx, bsm.PlayersScanPath, nil, nil) })
}

// PruneDownloads trims the manager's download cache, keeping the given number
// of newest files when keep is non-negative.
func (m *Manager) PruneDownloads(ctx context.Context, directory string, keep int) bsm.ActionResult {
	body := map[string]any{"directory": directory}
	if keep >= 0 {
		body["keep"] = keep
	}
	return m.action(func() error { return m.http.Post(ctx, bsm.DownloadsPrunePath, body, nil) })
}

// InstallServer provisions a new server on the manager.
func (m *Manager) InstallServer(ctx context.Context, serverName string, serverVersion string, overwrite bool) bsm.ActionResult {
	body := map[string]any{
		"server_name":    serverName,
		"server_version": serverVersion,
		"overwrite":      overwrite,
	}
	return m.action(func() error { return m.http.Post(ctx, bsm.ServerInstallPath, body, nil) })
}

// CheckAppVersion warns when the manager application is older than the oldest
// supported version. Unknown versions only log.
func (m *Manager) CheckAppVersion(ctx context.Context) {
	info, err := m.Info(ctx)
	if err != nil {
		log.Warnf("manager '%s': cannot determine app version: %s", m.id, err)
		return
	}
	current := info.Info.AppVersion
	if current == "" || current == bsm.AppVersionUnknown {
		log.Debugf("manager '%s': app version unknown", m.id)
		return
	}
	currentVer, err := version.NewVersion(current)
	if err != nil {
		log.Debugf("manager '%s': cannot parse app version '%s': %s", m.id, current, err)
		return
	}
	minVer := version.Must(version.NewVersion(bsm.AppVersionMin))
	if currentVer.LessThan(minVer) {
		log.Warnf("manager '%s': app version '%s' is older than supported minimum '%s'", m.id, current, bsm.AppVersionMin)
	}
}

func (m *Manager) action(call func() error) bsm.ActionResult {
	err := call()
	if err == nil {
		return bsm.ActionResult{Outcome: bsm.OutcomeOK}
	}
	return bsm.ActionResult{Outcome: bsm.ClassifyError(err), Message: err.Error()}
}

func (m *Manager) String() string {
	return fmt.Sprintf("manager '%s'", m.id)
}

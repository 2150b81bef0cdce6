package pkg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/common/stringsx"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// ManagerRegistry holds the managers built from configuration and narrows
// them by the current ID filter.
type ManagerRegistry struct {
	bsm *BSM

	Managers []*Manager
}

func NewManagerRegistry(b *BSM) *ManagerRegistry {
	result := new(ManagerRegistry)
	result.bsm = b
	result.Managers = result.newFromConfig()
	return result
}

func (mr *ManagerRegistry) newFromConfig() []*Manager {
	cv := mr.bsm.Config().Values()
	var managers []*Manager
	for id, mc := range cv.Manager.Config {
		manager, err := mr.newManager(id, mc.HTTPURL, mc.User, mc.Password, mc.VerifySSL, mc.Servers)
		if err != nil {
			log.Errorf("skipping misconfigured manager '%s': %s", id, err)
			continue
		}
		managers = append(managers, manager)
	}
	sort.SliceStable(managers, func(i, j int) bool { return managers[i].id < managers[j].id })
	return managers
}

func (mr *ManagerRegistry) newManager(id string, url string, user string, password string, verifySSL *bool, servers []string) (*Manager, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("manager ID cannot be blank")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("manager URL cannot be blank")
	}
	if !strings.Contains(url, "://") {
		url = "http://" + bsm.SanitizeHostPort(url)
	}
	result := new(Manager)
	result.registry = mr
	result.id = id
	result.user = user
	result.password = password
	result.verifySSL = verifySSL == nil || *verifySSL
	result.serverPatterns = servers
	result.http = NewHTTP(result, strings.TrimSuffix(url, "/"))
	result.coordinator = NewManagerCoordinator(result)
	return result, nil
}

// Transient builds a manager not defined in configuration yet; the setup
// wizard uses it to validate connection details before saving them.
func (mr *ManagerRegistry) Transient(id string, url string, user string, password string) (*Manager, error) {
	return mr.newManager(id, url, user, password, nil, nil)
}

func (mr *ManagerRegistry) One() (*Manager, error) {
	managers := mr.All()
	if len(managers) == 0 {
		return nil, fmt.Errorf("no manager that matches the current filters")
	}
	if len(managers) > 1 {
		return nil, fmt.Errorf("more than one manager is matching current filters")
	}
	return managers[0], nil
}

func (mr *ManagerRegistry) Some() ([]*Manager, error) {
	result := mr.All()
	if len(result) == 0 {
		return result, fmt.Errorf("no managers defined")
	}
	return result, nil
}

func (mr *ManagerRegistry) All() []*Manager {
	filterID := mr.bsm.Config().Values().Manager.Filter.ID
	if filterID == "" {
		return mr.Managers
	}
	return lo.Filter(mr.Managers, func(m *Manager, _ int) bool {
		return stringsx.MatchPattern(m.id, filterID)
	})
}

func (mr *ManagerRegistry) ByID(id string) (*Manager, error) {
	manager, found := lo.Find(mr.Managers, func(m *Manager) bool { return m.id == id })
	if !found {
		return nil, fmt.Errorf("manager not found by ID '%s'", id)
	}
	return manager, nil
}

func (mr *ManagerRegistry) IDs() []string {
	return lo.Map(mr.Managers, func(m *Manager, _ int) string { return m.id })
}

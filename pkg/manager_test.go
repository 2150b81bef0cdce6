package pkg_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bsmkit/bsmc/pkg"
	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerSelectionSurvivesConfigRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("GET /api/servers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success", "servers": ["alpha", "beta"]}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	file := filepath.Join(t.TempDir(), "bsm.yml")
	t.Setenv(cfg.FileEnvVar, file)

	save := func(servers []string) *pkg.Manager {
		config := cfg.NewConfig()
		values := config.Values()
		values.Manager.Config = map[string]cfg.ManagerConfig{
			"home": {HTTPURL: server.URL, User: "admin", Password: "secret", Servers: servers},
		}
		require.NoError(t, config.Save(values))

		manager, err := pkg.NewBSM(cfg.NewConfig()).ManagerRegistry().ByID("home")
		require.NoError(t, err)
		return manager
	}

	// Selecting a subset narrows the bridged servers to that subset.
	manager := save([]string{"alpha"})
	names, err := manager.ServerNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names)

	// The full server list stays reachable for reconfiguration.
	all, err := manager.ServerNamesAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, all)

	// Clearing the selection restores every server.
	manager = save(nil)
	names, err = manager.ServerNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}

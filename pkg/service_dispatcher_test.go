package pkg_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/bsmkit/bsmc/pkg"
	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, mux *http.ServeMux) *pkg.ServiceDispatcher {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	config := cfg.NewConfig()
	config.Values().Manager.Config = map[string]cfg.ManagerConfig{
		"home": {HTTPURL: server.URL, User: "admin", Password: "secret"},
	}
	return pkg.NewBridge(pkg.NewBSM(config)).Dispatcher()
}

func dispatcherFixtureMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("GET /api/servers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success", "servers": ["survival", "creative"]}`)
	})
	mux.HandleFunc("POST /api/server/survival/send_command", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success", "message": "Command sent."}`)
	})
	mux.HandleFunc("POST /api/server/creative/send_command", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status": "error", "message": "Server 'creative' is not running."}`)
	})
	return mux
}

func TestDispatchSendCommandByPattern(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t, dispatcherFixtureMux())

	result := dispatcher.Dispatch(context.Background(), pkg.ServiceCall{
		Service: pkg.ServiceSendCommand,
		Target:  pkg.ServiceTarget{Patterns: []string{"*"}},
		Data:    map[string]any{"command": "say hello"},
	})

	require.Empty(t, result.Error)
	assert.True(t, result.Succeeded)
	assert.NotEmpty(t, result.CorrelationID)
	require.Len(t, result.Outcomes, 2)

	outcomes := lo.SliceToMap(result.Outcomes, func(o pkg.ServiceCallOutcome) (string, string) {
		return o.Device, o.Outcome
	})
	assert.Equal(t, bsm.OutcomeOK.String(), outcomes["home_survival"])
	assert.Equal(t, bsm.OutcomeNotRunning.String(), outcomes["home_creative"])
}

func TestDispatchSendCommandByDevice(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t, dispatcherFixtureMux())

	result := dispatcher.Dispatch(context.Background(), pkg.ServiceCall{
		Service: pkg.ServiceSendCommand,
		Target:  pkg.ServiceTarget{Devices: []string{"home_survival"}},
		Data:    map[string]any{"command": "say hello"},
	})

	require.Empty(t, result.Error)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "home_survival", result.Outcomes[0].Device)
}

func TestDispatchRequiresTarget(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t, dispatcherFixtureMux())

	result := dispatcher.Dispatch(context.Background(), pkg.ServiceCall{
		Service: pkg.ServiceSendCommand,
		Data:    map[string]any{"command": "say hello"},
	})

	assert.Contains(t, result.Error, "no server target")
	assert.Empty(t, result.Outcomes)
}

func TestDispatchRejectsUnknownDevice(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t, dispatcherFixtureMux())

	result := dispatcher.Dispatch(context.Background(), pkg.ServiceCall{
		Service: pkg.ServiceSendCommand,
		Target:  pkg.ServiceTarget{Devices: []string{"elsewhere_survival"}},
		Data:    map[string]any{"command": "say hello"},
	})

	assert.NotEmpty(t, result.Error)
}

func TestDispatchValidatesData(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t, dispatcherFixtureMux())

	tests := []struct {
		service string
		data    map[string]any
	}{
		{pkg.ServiceSendCommand, nil},
		{pkg.ServiceRestoreBackup, map[string]any{"restore_type": "world"}},
		{pkg.ServiceAddToAllowlist, map[string]any{"players": []string{}}},
		{pkg.ServiceRemoveFromAllowlist, nil},
		{pkg.ServiceDeleteServer, map[string]any{"confirm": false}},
		{"no_such_service", nil},
	}
	for _, test := range tests {
		result := dispatcher.Dispatch(context.Background(), pkg.ServiceCall{
			Service: test.service,
			Target:  pkg.ServiceTarget{Devices: []string{"home_survival"}},
			Data:    test.data,
		})
		assert.NotEmpty(t, result.Error, test.service)
	}
}

func TestDispatchResolvesEntityTargets(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t, dispatcherFixtureMux())

	result := dispatcher.Dispatch(context.Background(), pkg.ServiceCall{
		Service:       pkg.ServiceSendCommand,
		CorrelationID: "fixed-id",
		Target: pkg.ServiceTarget{
			Entities: []string{"home_survival_cpu_percent", "home_creative_status"},
		},
		Data: map[string]any{"command": "say hello"},
	})

	require.Empty(t, result.Error)
	assert.Equal(t, "fixed-id", result.CorrelationID)
	devices := lo.Map(result.Outcomes, func(o pkg.ServiceCallOutcome, _ int) string { return o.Device })
	sort.Strings(devices)
	assert.Equal(t, []string{"home_creative", "home_survival"}, devices)
}

func TestDispatchManagerService(t *testing.T) {
	t.Parallel()

	mux := dispatcherFixtureMux()
	mux.HandleFunc("POST /api/players/scan", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success", "message": "Scan complete."}`)
	})
	dispatcher := newTestDispatcher(t, mux)

	result := dispatcher.Dispatch(context.Background(), pkg.ServiceCall{Service: pkg.ServiceScanPlayers})

	require.Empty(t, result.Error)
	assert.True(t, result.Succeeded)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "home", result.Outcomes[0].Device)
}

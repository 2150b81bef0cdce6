package pkg_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bsmkit/bsmc/pkg"
	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, handler http.Handler) *pkg.Manager {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	b := pkg.NewBSM(cfg.NewConfig())
	manager, err := b.ManagerRegistry().Transient("test", server.URL, "admin", "secret")
	require.NoError(t, err)
	return manager
}

func loginHandler(token string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var credentials map[string]string
		_ = json.NewDecoder(r.Body).Decode(&credentials)
		if credentials["username"] != "admin" || credentials["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"status": "error", "message": "bad credentials"}`)
			return
		}
		fmt.Fprintf(w, `{"status": "success", "access_token": "%s"}`, token)
	}
}

func TestHTTPAuthenticatesLazily(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("GET /api/servers", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"status": "success", "servers": ["survival", {"name": "creative", "status": "RUNNING"}]}`)
	})

	manager := newTestManager(t, mux)
	names, err := manager.ServerNames(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"survival", "creative"}, names)
}

func TestHTTPRetriesOnceOnTokenRejection(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		loginHandler(fmt.Sprintf("token-%d", logins.Load()))(w, r)
	})
	mux.HandleFunc("GET /api/servers", func(w http.ResponseWriter, r *http.Request) {
		// only the second token works, simulating expiry of the first
		if r.Header.Get("Authorization") != "Bearer token-2" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"status": "error", "message": "token expired"}`)
			return
		}
		fmt.Fprint(w, `{"status": "success", "servers": ["survival"]}`)
	})

	manager := newTestManager(t, mux)
	names, err := manager.ServerNames(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"survival"}, names)
	assert.EqualValues(t, 2, logins.Load())
}

func TestHTTPFailsAfterSecondRejection(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("GET /api/servers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	manager := newTestManager(t, mux)
	_, err := manager.ServerNames(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, bsm.ErrInvalidAuth)
}

func TestHTTPRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	b := pkg.NewBSM(cfg.NewConfig())
	manager, err := b.ManagerRegistry().Transient("test", server.URL, "admin", "wrong")
	require.NoError(t, err)

	_, err = manager.HTTP().Authenticate(context.Background(), true)
	assert.ErrorIs(t, err, bsm.ErrInvalidAuth)
}

func TestServerStopNotRunningIsSuccess(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("POST /api/server/survival/stop", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status": "error", "message": "Server 'survival' is not running."}`)
	})

	manager := newTestManager(t, mux)
	result := pkg.NewServer(manager, "survival").Stop(context.Background())

	assert.Equal(t, bsm.OutcomeNotRunning, result.Outcome)
	assert.True(t, result.Succeeded())
}

func TestServerErrorEnvelopeInOKReply(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("POST /api/server/survival/send_command", func(w http.ResponseWriter, r *http.Request) {
		// some managers report business failures with HTTP 200
		fmt.Fprint(w, `{"status": "error", "message": "Server 'survival' is not running."}`)
	})

	manager := newTestManager(t, mux)
	result := pkg.NewServer(manager, "survival").SendCommand(context.Background(), "list")

	assert.Equal(t, bsm.OutcomeNotRunning, result.Outcome)
}

func TestServerActionNotFound(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("POST /api/server/ghost/start", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status": "error", "message": "Server 'ghost' not found."}`)
	})

	manager := newTestManager(t, mux)
	result := pkg.NewServer(manager, "ghost").Start(context.Background())

	assert.Equal(t, bsm.OutcomeNotFound, result.Outcome)
	assert.False(t, result.Succeeded())
}

func TestServerStatusInfo(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("GET /api/server/survival/status_info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success", "process_info": {"pid": 4242, "cpu_percent": 12.5, "memory_mb": 1024.5, "uptime": "1:02:03"}}`)
	})

	manager := newTestManager(t, mux)
	status, err := pkg.NewServer(manager, "survival").StatusInfo(context.Background())

	require.NoError(t, err)
	require.NotNil(t, status.Process)
	assert.Equal(t, 4242, status.Process.PID)
	assert.Equal(t, 12.5, status.Process.CPUPercent)
}

func TestHTTPHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", loginHandler("token-1"))
	mux.HandleFunc("GET /api/servers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success", "servers": ["survival"]}`)
	})

	manager := newTestManager(t, mux)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := manager.ServerNames(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, bsm.ErrCannotConnect)
}

package pkg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsmkit/bsmc/pkg/bsm"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Coordinator polls one server on a fixed interval and publishes merged
// snapshots. The status fetch is critical; the remaining fetches are
// best-effort and only leave a note on the snapshot when they fail.
type Coordinator struct {
	server   Server
	interval time.Duration

	mutex    sync.RWMutex
	snapshot *bsm.Snapshot

	listenerMutex sync.Mutex
	listeners     []func(*bsm.Snapshot)

	refresh chan struct{}
}

func NewCoordinator(server Server, interval time.Duration) *Coordinator {
	return &Coordinator{
		server:   server,
		interval: interval,
		refresh:  make(chan struct{}, 1),
	}
}

func (c *Coordinator) Server() Server {
	return c.server
}

// Snapshot returns the last published snapshot, nil before the first tick.
func (c *Coordinator) Snapshot() *bsm.Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.snapshot
}

// OnUpdate registers a callback fired after each published snapshot.
func (c *Coordinator) OnUpdate(listener func(*bsm.Snapshot)) {
	c.listenerMutex.Lock()
	defer c.listenerMutex.Unlock()
	c.listeners = append(c.listeners, listener)
}

// RequestRefresh schedules an immediate poll outside the regular interval.
// Never blocks; a refresh already pending is enough.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Run polls until the context ends. The first tick happens immediately.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		case <-c.refresh:
			c.tick(ctx)
		}
	}
}

func (c *Coordinator) tick(ctx context.Context) {
	snapshot, err := c.Refresh(ctx)
	if err != nil {
		if errors.Is(err, bsm.ErrInvalidAuth) {
			log.Errorf("%s: poll skipped, authentication failed: %s", c.server, err)
		} else {
			log.Warnf("%s: poll failed: %s", c.server, err)
		}
	}
	c.publish(snapshot)
}

// Refresh performs one full poll. All fetches of the tick share one deadline
// so a stalled manager cannot drag a tick past the request timeout. The
// returned snapshot is always usable; when the critical status fetch fails it
// marks the server unavailable and carries the failure message.
func (c *Coordinator) Refresh(ctx context.Context) (*bsm.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.server.manager.registry.bsm.Config().Values().Manager.RequestTimeout)
	defer cancel()

	snapshot := &bsm.Snapshot{Taken: time.Now()}

	status, err := c.server.StatusInfo(ctx)
	if err != nil && !errors.Is(err, bsm.ErrServerNotRunning) {
		snapshot.Message = err.Error()
		return snapshot, err
	}
	if status != nil && status.Process != nil {
		snapshot.Running = true
		snapshot.Process = status.Process
	}

	var noteMutex sync.Mutex
	note := func(part string, err error) {
		noteMutex.Lock()
		defer noteMutex.Unlock()
		snapshot.Notes = append(snapshot.Notes, fmt.Sprintf("%s unavailable: %s", part, err))
		log.Debugf("%s: cannot fetch %s: %s", c.server, part, err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		allowlist, err := c.server.Allowlist(groupCtx)
		if err != nil {
			note("allowlist", err)
			return nil
		}
		snapshot.Allowlist = allowlist
		return nil
	})
	group.Go(func() error {
		properties, err := c.server.Properties(groupCtx)
		if err != nil {
			note("properties", err)
			return nil
		}
		snapshot.Properties = properties
		return nil
	})
	group.Go(func() error {
		permissions, err := c.server.Permissions(groupCtx)
		if err != nil {
			note("permissions", err)
			return nil
		}
		snapshot.Permissions = permissions
		return nil
	})
	group.Go(func() error {
		backups, err := c.server.Backups(groupCtx)
		if err != nil {
			note("backups", err)
			return nil
		}
		snapshot.Backups = backups
		return nil
	})
	_ = group.Wait()

	return snapshot, nil
}

func (c *Coordinator) publish(snapshot *bsm.Snapshot) {
	c.mutex.Lock()
	c.snapshot = snapshot
	c.mutex.Unlock()

	c.listenerMutex.Lock()
	listeners := append([]func(*bsm.Snapshot){}, c.listeners...)
	c.listenerMutex.Unlock()
	for _, listener := range listeners {
		listener(snapshot)
	}
}

func (c *Coordinator) String() string {
	return fmt.Sprintf("coordinator of %s", c.server)
}

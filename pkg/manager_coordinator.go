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

// ManagerCoordinator polls manager-wide data (app info, global players) on a
// slower interval than the per-server coordinators.
type ManagerCoordinator struct {
	manager *Manager

	mutex    sync.RWMutex
	snapshot *bsm.ManagerSnapshot

	listenerMutex sync.Mutex
	listeners     []func(*bsm.ManagerSnapshot)

	refresh chan struct{}
}

func NewManagerCoordinator(manager *Manager) *ManagerCoordinator {
	return &ManagerCoordinator{
		manager: manager,
		refresh: make(chan struct{}, 1),
	}
}

func (c *ManagerCoordinator) Manager() *Manager {
	return c.manager
}

func (c *ManagerCoordinator) Snapshot() *bsm.ManagerSnapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.snapshot
}

func (c *ManagerCoordinator) OnUpdate(listener func(*bsm.ManagerSnapshot)) {
	c.listenerMutex.Lock()
	defer c.listenerMutex.Unlock()
	c.listeners = append(c.listeners, listener)
}

func (c *ManagerCoordinator) RequestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

func (c *ManagerCoordinator) Run(ctx context.Context) error {
	interval := c.manager.registry.bsm.Config().Values().Manager.ManagerInterval
	ticker := time.NewTicker(interval)
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

func (c *ManagerCoordinator) tick(ctx context.Context) {
	snapshot, err := c.Refresh(ctx)
	if err != nil {
		if errors.Is(err, bsm.ErrInvalidAuth) {
			log.Errorf("%s: poll skipped, authentication failed: %s", c.manager, err)
		} else {
			log.Warnf("%s: poll failed: %s", c.manager, err)
		}
	}
	c.publish(snapshot)
}

// Refresh fetches app info and global players in parallel under one shared
// deadline. Info is critical; the player list only leaves a note when it
// fails.
func (c *ManagerCoordinator) Refresh(ctx context.Context) (*bsm.ManagerSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.manager.registry.bsm.Config().Values().Manager.RequestTimeout)
	defer cancel()

	snapshot := &bsm.ManagerSnapshot{Taken: time.Now()}

	group, groupCtx := errgroup.WithContext(ctx)
	var infoErr error
	group.Go(func() error {
		info, err := c.manager.Info(groupCtx)
		if err != nil {
			infoErr = err
			return nil
		}
		snapshot.Info = info.Info
		return nil
	})
	group.Go(func() error {
		players, err := c.manager.GlobalPlayers(groupCtx)
		if err != nil {
			snapshot.Notes = append(snapshot.Notes, fmt.Sprintf("players unavailable: %s", err))
			log.Debugf("%s: cannot fetch global players: %s", c.manager, err)
			return nil
		}
		snapshot.Players = players.Players
		return nil
	})
	_ = group.Wait()

	if infoErr != nil {
		snapshot.Message = infoErr.Error()
		return snapshot, infoErr
	}
	return snapshot, nil
}

func (c *ManagerCoordinator) publish(snapshot *bsm.ManagerSnapshot) {
	c.mutex.Lock()
	c.snapshot = snapshot
	c.mutex.Unlock()

	c.listenerMutex.Lock()
	listeners := append([]func(*bsm.ManagerSnapshot){}, c.listeners...)
	c.listenerMutex.Unlock()
	for _, listener := range listeners {
		listener(snapshot)
	}
}

func (c *ManagerCoordinator) String() string {
	return fmt.Sprintf("coordinator of %s", c.manager)
}

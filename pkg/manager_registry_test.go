package pkg_test

import (
	"testing"

	"github.com/bsmkit/bsmc/pkg"
	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySkipsMisconfiguredManager(t *testing.T) {
	t.Parallel()

	config := cfg.NewConfig()
	config.Values().Manager.Config = map[string]cfg.ManagerConfig{
		"good":   {HTTPURL: "localhost:11325", User: "admin", Password: "secret"},
		"broken": {HTTPURL: "   ", User: "admin", Password: "secret"},
	}

	registry := pkg.NewBSM(config).ManagerRegistry()

	assert.Equal(t, []string{"good"}, registry.IDs())
	manager, err := registry.ByID("good")
	require.NoError(t, err)
	assert.Equal(t, "good", manager.ID())
	_, err = registry.ByID("broken")
	assert.Error(t, err)
}

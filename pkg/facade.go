// Package pkg provides configuration and the BSM facade
package pkg

import (
	"io"
	"os"

	"github.com/bsmkit/bsmc/pkg/cfg"
)

// BSM is a facade to access manager-related API
type BSM struct {
	output          io.Writer
	config          *cfg.Config
	managerRegistry *ManagerRegistry
}

func DefaultBSM() *BSM {
	return NewBSM(cfg.NewConfig())
}

func NewBSM(config *cfg.Config) *BSM {
	result := new(BSM)
	result.output = os.Stdout
	result.config = config
	result.managerRegistry = NewManagerRegistry(result)
	return result
}

func (b *BSM) Output() io.Writer {
	return b.output
}

func (b *BSM) SetOutput(output io.Writer) {
	b.output = output
}

func (b *BSM) Config() *cfg.Config {
	return b.config
}

func (b *BSM) ManagerRegistry() *ManagerRegistry {
	return b.managerRegistry
}

package main

import (
	"github.com/bsmkit/bsmc/pkg/common/osx"
)

func main() {
	osx.EnvVarsLoad()

	cli := NewCLI()
	cli.Exec()
}

package fmtx_test

import (
	"testing"

	"github.com/bsmkit/bsmc/pkg/common/fmtx"
	"github.com/stretchr/testify/assert"
)

func TestTblValue(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	a.Equal("<empty>", fmtx.TblValue(nil))
	a.Equal("<empty>", fmtx.TblValue(""))
	a.Equal("true", fmtx.TblValue(true))
	a.Equal("4", fmtx.TblValue(4))
	a.Equal("25", fmtx.TblValue(25.0))
	a.Equal("cpu = 1.5, name = alpha", fmtx.TblValue(map[string]any{"name": "alpha", "cpu": 1.5}))
	a.Equal("alpha, beta, 123, false", fmtx.TblValue([]any{"alpha", "beta", 123, false}))
}

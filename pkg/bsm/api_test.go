package bsm_test

import (
	"encoding/json"
	"testing"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerListAcceptsBothForms(t *testing.T) {
	t.Parallel()

	var reply bsm.ServerListResponse
	err := json.Unmarshal([]byte(`{
		"status": "success",
		"servers": ["survival", {"name": "creative", "status": "RUNNING"}]
	}`), &reply)

	require.NoError(t, err)
	assert.Equal(t, []string{"survival", "creative"}, reply.Names())
	assert.False(t, reply.IsError())
}

func TestStatusInfoWithoutProcess(t *testing.T) {
	t.Parallel()

	var reply bsm.StatusInfoResponse
	err := json.Unmarshal([]byte(`{"status": "success", "process_info": null}`), &reply)

	require.NoError(t, err)
	assert.Nil(t, reply.Process)
}

func TestEnvelopeErrorDetection(t *testing.T) {
	t.Parallel()

	var reply bsm.ActionResponse
	err := json.Unmarshal([]byte(`{"status": "error", "message": "boom"}`), &reply)

	require.NoError(t, err)
	assert.True(t, reply.IsError())
	assert.Equal(t, "boom", reply.Message)
}

func TestIsNotRunningMessage(t *testing.T) {
	t.Parallel()

	assert.True(t, bsm.IsNotRunningMessage("Server 'survival' is not running."))
	assert.True(t, bsm.IsNotRunningMessage("Server IS NOT RUNNING"))
	assert.False(t, bsm.IsNotRunningMessage("Server 'survival' not found."))
	assert.False(t, bsm.IsNotRunningMessage(""))
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bsm.OutcomeOK, bsm.ClassifyError(nil))
	assert.Equal(t, bsm.OutcomeNotRunning, bsm.ClassifyError(bsm.ErrServerNotRunning))
	assert.Equal(t, bsm.OutcomeNotFound, bsm.ClassifyError(bsm.ErrServerNotFound))
	assert.Equal(t, bsm.OutcomeError, bsm.ClassifyError(&bsm.APIError{StatusCode: 500}))
}

func TestActionResultSucceeded(t *testing.T) {
	t.Parallel()

	assert.True(t, bsm.ActionResult{Outcome: bsm.OutcomeOK}.Succeeded())
	assert.True(t, bsm.ActionResult{Outcome: bsm.OutcomeNotRunning}.Succeeded())
	assert.False(t, bsm.ActionResult{Outcome: bsm.OutcomeNotFound}.Succeeded())
	assert.False(t, bsm.ActionResult{Outcome: bsm.OutcomeError}.Succeeded())
}

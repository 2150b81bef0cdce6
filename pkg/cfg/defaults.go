package cfg

import (
	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/common"
	"github.com/bsmkit/bsmc/pkg/common/fmtx"
	"github.com/spf13/viper"
)

const (
	InputStdin        = "STDIN"
	OutputFileDefault = common.LogDir + "/bsm.log"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.timestamp_format", "2006-01-02 15:04:05")
	v.SetDefault("log.full_timestamp", true)

	v.SetDefault("input.format", fmtx.YML)
	v.SetDefault("input.file", InputStdin)
	v.SetDefault("output.format", fmtx.Text)
	v.SetDefault("output.log.file", OutputFileDefault)

	v.SetDefault("manager.server_interval", bsm.ServerIntervalDefault)
	v.SetDefault("manager.manager_interval", bsm.ManagerIntervalDefault)
	v.SetDefault("manager.request_timeout", bsm.RequestTimeoutDefault)

	v.SetDefault("bridge.broker_url", "tcp://127.0.0.1:1883")
	v.SetDefault("bridge.client_id", common.AppId)
	v.SetDefault("bridge.topic_prefix", "bsm")
	v.SetDefault("bridge.discovery_prefix", "homeassistant")
	v.SetDefault("bridge.qos", 1)
}

package bsm

import (
	"net/url"
	"time"
)

const (
	PortDefault     = 11325
	BasePathDefault = "/api"

	ServerIntervalDefault  = time.Second * 30
	ManagerIntervalDefault = time.Minute * 10
	RequestTimeoutDefault  = time.Second * 10

	// AppVersionMin is the oldest manager application version known to serve
	// the full endpoint surface consumed here.
	AppVersionMin     = "3.1.0"
	AppVersionUnknown = "unknown"
)

const (
	LoginPath          = "/login"
	ServersPath        = "/servers"
	InfoPath           = "/info"
	PlayersGetPath     = "/players/get"
	PlayersScanPath    = "/players/scan"
	DownloadsPrunePath = "/downloads/prune"
	ServerInstallPath  = "/server/install"
)

// ServerPath builds a per-server endpoint path, e.g. ServerPath("survival", "/start").
func ServerPath(serverName string, suffix string) string {
	return "/server/" + url.PathEscape(serverName) + suffix
}

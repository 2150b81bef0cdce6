package common

const (
	AppId   = "bsm-compose"
	AppName = "BSM Compose"

	MainDir       = "bsm"
	ConfigDirName = "etc"
	ConfigDir     = MainDir + "/" + ConfigDirName
	VarDirName    = "var"
	VarDir        = MainDir + "/" + VarDirName
	LogDirName    = "log"
	LogDir        = VarDir + "/" + LogDirName
)

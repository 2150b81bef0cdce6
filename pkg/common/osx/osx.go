package osx

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const EnvFileExt = "env"

func EnvVarsLoad() {
	if _, err := os.Stat("." + EnvFileExt); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Warnf("cannot load environment variables from file '.%s': %s", EnvFileExt, err)
	}
}

package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bsmkit/bsmc/pkg/common"
	"github.com/bsmkit/bsmc/pkg/common/fmtx"
	"github.com/bsmkit/bsmc/pkg/common/pathx"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	EnvPrefix   = "BSM"
	FileDefault = common.ConfigDir + "/bsm.yml"
	FileEnvVar  = "BSM_CONFIG_FILE"
)

// Config defines a place for managing input configuration from various sources (YML file, env vars, etc)
type Config struct {
	viper  *viper.Viper
	values *ConfigValues
}

func (c *Config) Values() *ConfigValues {
	return c.values
}

// NewConfig creates a new config
func NewConfig() *Config {
	result := new(Config)
	result.viper = newViper()

	var v ConfigValues
	err := result.viper.Unmarshal(&v)
	if err != nil {
		log.Fatalf("cannot unmarshal BSM config values properly: %s", err)
	}
	result.values = &v

	return result
}

func newViper() *viper.Viper {
	v := viper.New()

	setDefaults(v)
	readFromFile(v)
	readFromEnv(v)

	return v
}

func (c ConfigValues) String() string {
	yml, err := fmtx.MarshalYML(c)
	if err != nil {
		log.Errorf("Cannot convert config to YML: %s", err)
	}
	return yml
}

func readFromEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
}

func readFromFile(v *viper.Viper) {
	file := File()
	exists, err := pathx.ExistsStrict(file)
	if err != nil {
		log.Debugf("skipping reading BSM config file '%s': %s", file, err)
		return
	}
	if !exists {
		log.Debugf("skipping reading BSM config file as it does not exist '%s'", file)
		return
	}
	fileData, err := os.Open(file)
	if err != nil {
		log.Fatalf("cannot open BSM config file '%s': %s", file, err)
		return
	}
	defer fileData.Close()
	v.SetConfigType(filepath.Ext(file)[1:])
	if err = v.ReadConfig(fileData); err != nil {
		log.Fatalf("cannot load BSM config file properly '%s': %s", file, err)
	}
}

func File() string {
	path := os.Getenv(FileEnvVar)
	if path == "" {
		path = FileDefault
	}
	return path
}

func (c *Config) FileExists() bool {
	return pathx.Exists(File())
}

// Save persists the current values to the config file; the setup wizard uses
// it after collecting manager connection details.
func (c *Config) Save(values *ConfigValues) error {
	file := File()
	if err := pathx.Ensure(filepath.Dir(file)); err != nil {
		return err
	}
	yml, err := fmtx.MarshalYML(values)
	if err != nil {
		return fmt.Errorf("cannot marshal BSM config values: %w", err)
	}
	if err := os.WriteFile(file, []byte(yml), 0o600); err != nil {
		return fmt.Errorf("cannot save BSM config file '%s': %w", file, err)
	}
	c.values = values
	return nil
}

func OutputFormats() []string {
	return []string{fmtx.Text, fmtx.YML, fmtx.JSON}
}

func (c *Config) ConfigureLogger() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: c.values.Log.TimestampFormat,
		FullTimestamp:   c.values.Log.FullTimestamp,
		ForceColors:     !c.values.Output.NoColor,
	})
	level, err := log.ParseLevel(c.values.Log.Level)
	if err != nil {
		log.Fatalf("unsupported log level specified: '%s'", c.values.Log.Level)
	}
	log.SetLevel(level)
}

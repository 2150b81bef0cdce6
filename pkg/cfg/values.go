package cfg

import "time"

// ConfigValues defines all available configuration options
type ConfigValues struct {
	Log struct {
		Level           string `mapstructure:"level" yaml:"level"`
		TimestampFormat string `mapstructure:"timestamp_format" yaml:"timestamp_format"`
		FullTimestamp   bool   `mapstructure:"full_timestamp" yaml:"full_timestamp"`
	} `mapstructure:"log" yaml:"log"`

	Input struct {
		File   string `mapstructure:"file" yaml:"file"`
		String string `mapstructure:"string" yaml:"string"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"input" yaml:"input"`

	Output struct {
		Format  string `mapstructure:"format" yaml:"format"`
		NoColor bool   `mapstructure:"no_color" yaml:"no_color"`
		Value   string `mapstructure:"value" yaml:"value"`
		Log     struct {
			File    string `mapstructure:"file" yaml:"file"`
			Console bool   `mapstructure:"console" yaml:"console"`
		} `mapstructure:"log" yaml:"log"`
	} `mapstructure:"output" yaml:"output"`

	Manager struct {
		Config map[string]ManagerConfig `mapstructure:"config" yaml:"config"`

		Filter struct {
			ID string `mapstructure:"id" yaml:"id"`
		} `mapstructure:"filter" yaml:"filter"`

		ServerInterval  time.Duration `mapstructure:"server_interval" yaml:"server_interval"`
		ManagerInterval time.Duration `mapstructure:"manager_interval" yaml:"manager_interval"`
		RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	} `mapstructure:"manager" yaml:"manager"`

	Bridge struct {
		BrokerURL       string `mapstructure:"broker_url" yaml:"broker_url"`
		User            string `mapstructure:"user" yaml:"user"`
		Password        string `mapstructure:"password" yaml:"password"`
		ClientID        string `mapstructure:"client_id" yaml:"client_id"`
		TopicPrefix     string `mapstructure:"topic_prefix" yaml:"topic_prefix"`
		DiscoveryPrefix string `mapstructure:"discovery_prefix" yaml:"discovery_prefix"`
		QOS             byte   `mapstructure:"qos" yaml:"qos"`
	} `mapstructure:"bridge" yaml:"bridge"`
}

// ManagerConfig holds the connection details of a single Bedrock Server Manager.
type ManagerConfig struct {
	HTTPURL   string   `mapstructure:"http_url" yaml:"http_url"`
	User      string   `mapstructure:"user" yaml:"user"`
	Password  string   `mapstructure:"password" yaml:"password"`
	VerifySSL *bool    `mapstructure:"verify_ssl" yaml:"verify_ssl,omitempty"`
	Servers   []string `mapstructure:"servers" yaml:"servers"`
}

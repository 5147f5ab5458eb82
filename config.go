package main

import (
	"io/ioutil"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Config is the server's nested configuration tree, loaded from YAML.
// The teacher's checkAndParseConfig read a flat key=value file via
// summercat.com/config's ReadStringMap, adequate for a handful of scalar
// TS6 settings; this module's schema is inherently nested (listeners,
// per-feature limits, role definitions, extension toggles), so the
// reader is rebuilt on gopkg.in/yaml.v2 instead, which was already a
// transitive dependency of the teacher's own go.mod and is the config
// format senpai's and soju's manifests both use for their own daemons.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Listeners []ListenerConfig `yaml:"listeners"`
	Limits    LimitsConfig    `yaml:"limits"`
	Register  RegisterConfig  `yaml:"register"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Opers     []OperConfig    `yaml:"opers"`
	Roles     []RoleConfig    `yaml:"roles"`
	Data      DataConfig      `yaml:"data"`
	MOTDFile  string          `yaml:"motd_file"`
	Logs      LogConfig       `yaml:"logs"`
}

type ServerConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Network     string `yaml:"network"`
	Version     string `yaml:"version"`
	CreatedDate string `yaml:"created_date"`
}

type ListenerConfig struct {
	Address       string `yaml:"address"`
	TLS           bool   `yaml:"tls"`
	CertFile      string `yaml:"cert_file"`
	KeyFile       string `yaml:"key_file"`
	ProxyProtocol bool   `yaml:"proxy_protocol"`
}

type LimitsConfig struct {
	MaxNickLength    int `yaml:"max_nick_length"`
	MaxChannelLength int `yaml:"max_channel_length"`
	MaxChannelsJoined int `yaml:"max_channels_joined"`
	MaxTopicLength   int `yaml:"topic"`
	MaxUserLength    int `yaml:"user"`
	RecvQLen         int `yaml:"recvq"`
	DeadTimeSeconds  int `yaml:"dead_time_seconds"`
	WhowasEntries    int `yaml:"whowas_entries"`
	WhowasSeconds    int `yaml:"whowas_seconds"`
	MonitorListSize  int `yaml:"monitor_list_size"`
}

type RegisterConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RequireEmail  bool   `yaml:"require_email"`
	AccountPrefix string `yaml:"account_prefix"`
}

type MetadataConfig struct {
	MaxKeysPerTarget int      `yaml:"max_keys_per_target"`
	RestrictedKeys   []string `yaml:"restricted_keys"`
}

type MonitorConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

type OperConfig struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

type RoleConfig struct {
	Name         string   `yaml:"name"`
	Extends      string   `yaml:"extends"`
	Capabilities []string `yaml:"capabilities"`
	MetaKeysGet  []string `yaml:"metadata_keys_get"`
	MetaKeysSet  []string `yaml:"metadata_keys_set"`
	WhoisLine    string   `yaml:"whois_line"`
}

type DataConfig struct {
	Directory string `yaml:"directory"`
}

type LogConfig struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"`
}

// loadConfig reads and validates path, the YAML equivalent of the
// teacher's checkAndParseConfig: required fields are checked explicitly
// rather than relying on the zero value, so a missing server.name fails
// fast at boot instead of advertising an empty server name to clients.
func loadConfig(path string) (*Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to parse config file")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	if len(c.Listeners) == 0 {
		return errors.New("at least one listener is required")
	}
	for _, l := range c.Listeners {
		if l.Address == "" {
			return errors.New("listener address is required")
		}
		if l.TLS && (l.CertFile == "" || l.KeyFile == "") {
			return errors.Errorf("listener %s: TLS requires cert_file and key_file", l.Address)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Limits.MaxNickLength == 0 {
		c.Limits.MaxNickLength = 30
	}
	if c.Limits.MaxChannelLength == 0 {
		c.Limits.MaxChannelLength = maxChannelLength
	}
	if c.Limits.MaxChannelsJoined == 0 {
		c.Limits.MaxChannelsJoined = 100
	}
	if c.Limits.MaxTopicLength == 0 {
		c.Limits.MaxTopicLength = maxTopicLength
	}
	if c.Limits.MaxUserLength == 0 {
		c.Limits.MaxUserLength = 10
	}
	if c.Limits.RecvQLen == 0 {
		c.Limits.RecvQLen = 4096
	}
	if c.Limits.DeadTimeSeconds == 0 {
		c.Limits.DeadTimeSeconds = 240
	}
	if c.Limits.WhowasEntries == 0 {
		c.Limits.WhowasEntries = 1024
	}
	if c.Limits.WhowasSeconds == 0 {
		c.Limits.WhowasSeconds = 86400
	}
	if c.Limits.MonitorListSize == 0 {
		c.Limits.MonitorListSize = 100
	}
	if c.Metadata.MaxKeysPerTarget == 0 {
		c.Metadata.MaxKeysPerTarget = 20
	}
	if c.Monitor.MaxEntries == 0 {
		c.Monitor.MaxEntries = c.Limits.MonitorListSize
	}
	if c.Data.Directory == "" {
		c.Data.Directory = "./data"
	}
}

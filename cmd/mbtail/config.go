package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type config struct {
	Server           string        `yaml:"server"`
	Channels         []string      `yaml:"channels"`
	Token            string        `yaml:"token"`
	LogLevel         string        `yaml:"log_level"`
	LongPolling      bool          `yaml:"long_polling"`
	CallbackInterval time.Duration `yaml:"callback_interval"`
	MaxPollInterval  time.Duration `yaml:"max_poll_interval"`
	RedisAddr        string        `yaml:"redis_addr"`
	RedisKey         string        `yaml:"redis_key"`
}

var errNoChannels = errors.New("no channels to subscribe to")

func defaultConfig() config {
	return config{
		LogLevel:    "error",
		LongPolling: true,
	}
}

// loadConfig reads a YAML config file. Unknown keys are rejected so typos
// do not go unnoticed.
func loadConfig(path string, cfg *config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("issue opening config (%w)", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("invalid config %s (%w)", path, err)
	}
	return nil
}

// resolveConfig layers the config file, then any flag set explicitly on the
// command line, then positional channel names over the defaults.
func resolveConfig(cmd *cobra.Command, args []string) (config, error) {
	cfg := defaultConfig()
	flags := cmd.Flags()

	if path, _ := flags.GetString("config"); path != "" {
		if err := loadConfig(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("server") {
		cfg.Server, _ = flags.GetString("server")
	}
	if flags.Changed("token") {
		cfg.Token, _ = flags.GetString("token")
	}
	if flags.Changed("loglevel") {
		cfg.LogLevel, _ = flags.GetString("loglevel")
	}
	if flags.Changed("long-polling") {
		cfg.LongPolling, _ = flags.GetBool("long-polling")
	}
	if flags.Changed("callback-interval") {
		cfg.CallbackInterval, _ = flags.GetDuration("callback-interval")
	}
	if flags.Changed("max-poll-interval") {
		cfg.MaxPollInterval, _ = flags.GetDuration("max-poll-interval")
	}
	if flags.Changed("redis-addr") {
		cfg.RedisAddr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("redis-key") {
		cfg.RedisKey, _ = flags.GetString("redis-key")
	}
	if len(args) > 0 {
		cfg.Channels = args
	}

	if len(cfg.Channels) == 0 {
		return cfg, errNoChannels
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	RoomTTL      time.Duration `mapstructure:"room_ttl"`
	ReapInterval time.Duration `mapstructure:"reap_interval"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ReadLimit    int64         `mapstructure:"read_limit"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SIGNALHUB")
	v.AutomaticEnv()
	// Plain PORT keeps parity with typical hosting environments.
	_ = v.BindEnv("port", "SIGNALHUB_PORT", "PORT")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("room_ttl", "10m")
	v.SetDefault("reap_interval", "1m")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("read_limit", 32768)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/glyphtool/glyph/internal/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func loadConfig() (config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = config.DefaultFile
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", path).Msg("config not found, using defaults")
			return config.Default(), nil
		}
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}

	settings := viper.AllSettings()
	// The bound --config flag lands in viper's settings but is not a file key.
	delete(settings, "config")
	if err := config.ValidateSettings(settings); err != nil {
		return config.Config{}, err
	}

	var cfg config.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := viper.Unmarshal(&cfg, hook); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

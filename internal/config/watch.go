package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch reloads the configuration whenever the config file changes and hands
// the result to onChange. A file that reloads into an invalid configuration
// is reported through the error; the previous configuration stays in effect
// with the caller.
func Watch(onChange func(*Config, error)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load()
		onChange(cfg, err)
	})
	viper.WatchConfig()
}

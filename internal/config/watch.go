package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch re-reads the config file whenever it changes and passes the new,
// validated configuration to onChange. Invalid edits are logged and
// ignored. When no config file exists there is nothing to watch and Watch
// returns nil without registering anything.
func Watch(configFile string, onChange func(*Config)) error {
	v := newViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			slog.Warn("ignoring invalid config change", "path", e.Name, "error", err)
			return
		}
		slog.Info("config file changed", "path", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// ApplyLogging is an onChange callback for Watch that keeps the live log
// level in sync with the file.
func ApplyLogging(cfg *Config) {
	SetLogLevel(cfg.Logging.Level)
}

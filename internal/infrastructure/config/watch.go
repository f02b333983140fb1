package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/pkg/logger"
)

// Watcher reloads the configuration file when it changes. Only settings
// that are safe to change at runtime are applied; currently the log level.
type Watcher struct {
	v      *viper.Viper
	level  zap.AtomicLevel
	logger *zap.Logger

	mu      sync.RWMutex
	current *Config
}

// NewWatcher loads configPath and prepares a watcher for it
func NewWatcher(configPath string, level zap.AtomicLevel, log *zap.Logger) (*Watcher, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Watcher{v: v, level: level, logger: log.Named("config"), current: cfg}, nil
}

// Start begins watching. It is a no-op when no config file was found.
func (w *Watcher) Start() {
	if w.v.ConfigFileUsed() == "" {
		w.logger.Debug("No config file in use, not watching")
		return
	}
	w.v.OnConfigChange(w.reload)
	w.v.WatchConfig()
	w.logger.Info("Watching config file", zap.String("file", w.v.ConfigFileUsed()))
}

// Current returns the last valid configuration
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) reload(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	if err := w.v.ReadInConfig(); err != nil {
		w.logger.Warn("Failed to re-read config", zap.String("file", e.Name), zap.Error(err))
		return
	}
	cfg, err := decode(w.v)
	if err != nil {
		w.logger.Warn("Ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	if ApplyLogLevel(cfg, w.level) {
		w.logger.Info("Log level changed", zap.String("level", w.level.Level().String()))
	}
}

// ApplyLogLevel sets level from cfg and reports whether it changed
func ApplyLogLevel(cfg *Config, level zap.AtomicLevel) bool {
	next := logger.ParseLevel(cfg.App.LogLevel)
	if level.Level() == next {
		return false
	}
	level.SetLevel(next)
	return true
}

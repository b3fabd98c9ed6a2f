package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/false-systems/nopea/internal/nlog"
)

const subsystem = "config"

// Load reads NopeaConfig from path (if present), layers environment
// variable overrides on top, and validates the result. A missing file
// is not an error: the defaults (optionally overridden by env vars)
// are returned instead.
func Load(path string) (NopeaConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if uErr := yaml.Unmarshal(data, &cfg); uErr != nil {
			return NopeaConfig{}, fmt.Errorf("parsing config %s: %w", path, uErr)
		}
		nlog.Info(subsystem, "loaded configuration from %s", path)
	case errors.Is(err, os.ErrNotExist):
		nlog.Info(subsystem, "no config file at %s, using defaults", path)
	default:
		return NopeaConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if vErr := cfg.Validate(); vErr != nil {
		return NopeaConfig{}, vErr
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *NopeaConfig) {
	if v, ok := os.LookupEnv("NOPEA_API_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.APIPort = n
		} else {
			nlog.Warn(subsystem, "ignoring malformed NOPEA_API_PORT=%q", v)
		}
	}
	if v, ok := os.LookupEnv("NOPEA_CDEVENTS_ENDPOINT"); ok {
		cfg.CDEventsEndpoint = v
	}
	if v, ok := os.LookupEnv("NOPEA_K8S_MODULE"); ok {
		cfg.K8sModule = v
	}
	if v, ok := os.LookupEnv("NOPEA_CLUSTER_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ClusterEnabled = b
		} else {
			nlog.Warn(subsystem, "ignoring malformed NOPEA_CLUSTER_ENABLED=%q", v)
		}
	}
	if v, ok := os.LookupEnv("NOPEA_AUTO_CANARY_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AutoCanaryThreshold = f
		} else {
			nlog.Warn(subsystem, "ignoring malformed NOPEA_AUTO_CANARY_THRESHOLD=%q", v)
		}
	}
}

// Watcher hot-reloads a config file, invoking onChange whenever the
// file is rewritten. Callers must call Close when done.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// WatchFile starts watching path and delivers newly-loaded
// configurations to onChange. Load errors during a reload are logged
// and skipped; the previous configuration stays in effect.
func WatchFile(path string, onChange func(NopeaConfig)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting config watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	go func() {
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					nlog.Warn(subsystem, "reload of %s failed, keeping previous config: %s", path, err)
					continue
				}
				onChange(cfg)
			case werr, ok := <-fsw.Errors:
				if !ok {
					return
				}
				nlog.Warn(subsystem, "config watcher error: %s", werr)
			}
		}
	}()

	return &Watcher{fsw: fsw}, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

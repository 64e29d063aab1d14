// Package config resolves MADATS_HOME and parses the storage and scheduler
// configuration files beneath it. No process-wide mutable config singleton
// is kept here - callers construct a *Config explicitly and thread it
// through the VDS/Executor constructors.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dghoshal-lbl/madats/cmn/errs"
)

type TierConfig struct {
	Mount     string `yaml:"mount"`
	Persist   string `yaml:"persist"`
	Interface string `yaml:"interface"`
	Bandwidth int64  `yaml:"bandwidth"`
}

type StorageConfig struct {
	System string                `yaml:"system"`
	Tiers  map[string]TierConfig `yaml:",inline"`
}

type storageYAML struct {
	System  string                           `yaml:"system"`
	Systems map[string]map[string]TierConfig `yaml:",inline"`
}

type SchedulerConfig struct {
	Submit     string            `yaml:"submit"`
	Status     string            `yaml:"status"`
	Directives map[string]string `yaml:"directives"`
}

type Config struct {
	Home      string
	OutDir    string
	Storage   map[string]TierConfig
	Slurm     SchedulerConfig
	PBS       SchedulerConfig
	Kube      SchedulerConfig
	KeepFiles bool
}

// Load resolves MADATS_HOME from the environment (or the explicit override)
// and parses config/storage.yaml and config/{slurm,pbs,kubernetes}.cfg.
// Scheduler config files are optional; a missing storage.yaml is fatal.
func Load(homeOverride string) (*Config, error) {
	home := homeOverride
	if home == "" {
		home = os.Getenv("MADATS_HOME")
	}
	if home == "" {
		return nil, errs.New(errs.Configuration, "MADATS_HOME is not set")
	}
	cfg := &Config{Home: home, OutDir: filepath.Join(home, "outdir")}

	storagePath := filepath.Join(home, "config", "storage.yaml")
	raw, err := os.ReadFile(storagePath)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "reading storage config %s", storagePath)
	}
	var sy storageYAML
	if err := yaml.Unmarshal(raw, &sy); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "parsing storage config %s", storagePath)
	}
	tiers, ok := sy.Systems[sy.System]
	if !ok {
		return nil, errs.New(errs.Configuration, "no storage configuration for system %q", sy.System)
	}
	cfg.Storage = tiers

	cfg.Slurm, _ = loadSchedulerConfig(filepath.Join(home, "config", "slurm.cfg"))
	cfg.PBS, _ = loadSchedulerConfig(filepath.Join(home, "config", "pbs.cfg"))
	cfg.Kube, _ = loadSchedulerConfig(filepath.Join(home, "config", "kubernetes.cfg"))

	return cfg, nil
}

func loadSchedulerConfig(path string) (SchedulerConfig, error) {
	var sc SchedulerConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return sc, err
	}
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return sc, err
	}
	return sc, nil
}

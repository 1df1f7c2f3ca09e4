package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/murmur"
)

// fileConfig is the layout of murmur.yaml.
type fileConfig struct {
	Owner      string `yaml:"owner,omitempty"`
	Remote     string `yaml:"remote,omitempty"`
	Format     string `yaml:"format,omitempty"`
	Versioning bool   `yaml:"versioning"`
	Interval   string `yaml:"interval,omitempty"`
	Watch      bool   `yaml:"watch"`
	LogFormat  string `yaml:"log_format,omitempty"`
}

// defaultFileConfig is written by `murmur init`.
func defaultFileConfig() fileConfig {
	return fileConfig{
		Format:    ".json",
		Interval:  "5m",
		Watch:     true,
		LogFormat: "text",
	}
}

// loadConfig reads murmur.yaml from dir when present. Flags and MURMUR_*
// variables bound to v take precedence over the file.
func loadConfig(v *viper.Viper, dir string) error {
	v.SetConfigName("murmur")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("format", ".json")
	v.SetDefault("interval", 5*time.Minute)
	v.SetDefault("watch", true)
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// writeConfig writes cfg as murmur.yaml in dir. An existing file is kept
// unless force is set.
func writeConfig(dir string, cfg fileConfig, force bool) (string, error) {
	path := filepath.Join(dir, murmurConfigFile)
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return path, fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return path, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return path, fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

const murmurConfigFile = "murmur.yaml"

// engineOptions translates the resolved settings into engine options.
func engineOptions(v *viper.Viper, dir string) []murmur.Option {
	opts := []murmur.Option{
		murmur.WithLogger(logger),
		murmur.WithOwner(v.GetString("owner")),
		murmur.WithFormat(v.GetString("format")),
	}

	if remote := v.GetString("remote"); remote != "" {
		if !filepath.IsAbs(remote) {
			remote = filepath.Join(dir, remote)
		}
		opts = append(opts, murmur.WithRemotePath(remote))
	}

	if v.IsSet("versioning") {
		opts = append(opts, murmur.WithVersioning(v.GetBool("versioning")))
	}

	return opts
}

// openEngine opens the data directory with the resolved settings.
func openEngine(ctx context.Context, extra ...murmur.Option) (*murmur.Engine, error) {
	engine, err := murmur.Open(ctx, dataDir, append(engineOptions(v, dataDir), extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dataDir, err)
	}
	return engine, nil
}

// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.githedgehog.com/fabric-overlay/pkg/overlay"
	"sigs.k8s.io/yaml"
)

const (
	DefaultFile   = "config.yaml"
	DefaultListen = ":9090"
)

type Service struct {
	// Topology is the snapshot directory or file, relative paths are resolved against the config dir
	Topology        string `json:"topology,omitempty"`
	Listen          string `json:"listen,omitempty"`
	GroupNamePrefix string `json:"groupNamePrefix,omitempty"`
	ShowSecrets     bool   `json:"showSecrets,omitempty"`
	// LogFile is the rotated log file, no file logging if empty
	LogFile string `json:"logFile,omitempty"`
	// LogWebhook is the http(s) endpoint warnings and errors are sent to
	LogWebhook string `json:"logWebhook,omitempty"`
}

// Load reads the config from the path, if path is a directory config.yaml inside of it is used
func Load(path string) (*Service, error) {
	if stat, err := os.Stat(path); err == nil && stat.IsDir() {
		path = filepath.Join(path, DefaultFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading config %s", path)
	}

	if cfg.Topology != "-" && !filepath.IsAbs(cfg.Topology) {
		cfg.Topology = filepath.Join(filepath.Dir(path), cfg.Topology)
	}

	slog.Debug("Loaded config", "data", spew.Sdump(cfg))

	return cfg, nil
}

func Parse(data []byte) (*Service, error) {
	cfg := &Service{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate sets the defaults and checks the config
func (cfg *Service) Validate() error {
	if cfg.Topology == "" {
		return errors.Errorf("config: topology is required")
	}
	if cfg.Topology == "-" {
		return errors.Errorf("config: topology can't be stdin for the service")
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return errors.Wrapf(err, "config: listen is invalid")
	}

	if cfg.LogWebhook != "" {
		u, err := url.Parse(cfg.LogWebhook)
		if err != nil {
			return errors.Wrapf(err, "config: logWebhook is invalid")
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.Errorf("config: logWebhook should be http or https URL")
		}
	}

	if cfg.GroupNamePrefix == "" {
		cfg.GroupNamePrefix = overlay.DefaultGroupNamePrefix
	}

	return nil
}

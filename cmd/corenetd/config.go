package main

import "github.com/fluxorio/corenet/pkg/config"

// NodeConfig is corenetd's full configuration surface, loadable from a
// YAML file via pkg/config.LoadWithEnv (environment overrides prefixed
// CORENET_) the way the teacher's own services load config.
type NodeConfig struct {
	NodeID      uint8  `yaml:"node_id"`
	Workers     int    `yaml:"workers"`
	Profile     bool   `yaml:"profile"`
	AdminAddr   string `yaml:"admin_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	JWTSecret   string `yaml:"jwt_secret"`

	Cluster struct {
		Enabled bool   `yaml:"enabled"`
		NATSURL string `yaml:"nats_url"`
		Prefix  string `yaml:"prefix"`
	} `yaml:"cluster"`

	Bootstrap struct {
		Module string `yaml:"module"`
		Param  string `yaml:"param"`
	} `yaml:"bootstrap"`

	Tracing struct {
		// Exporter selects the otel span exporter: "stdout" (default),
		// "jaeger", or "zipkin". Endpoint is ignored for "stdout".
		Exporter string `yaml:"exporter"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"tracing"`

	LogJSON bool `yaml:"log_json"`
}

// DefaultNodeConfig mirrors the defaults the flags fall back to when no
// config file is given.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		NodeID:      0,
		Workers:     8,
		AdminAddr:   ":7000",
		MetricsAddr: ":7001",
	}
}

// loadConfig reads path (if non-empty) over the defaults and applies
// CORENET_-prefixed environment overrides.
func loadConfig(path string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()
	if path == "" {
		return cfg, config.ApplyEnvOverrides("CORENET", &cfg)
	}
	if err := config.LoadWithEnv(path, "CORENET", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

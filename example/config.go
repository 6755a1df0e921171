package main

import (
	"github.com/caarlos0/env/v7"
)

// environment holds the demo program's configuration, populated from the
// process environment.
//
// Grounded on AdGuardDNS's internal/cmd environment struct: struct tags
// drive caarlos0/env, with envDefault covering local development.
type environment struct {
	DatabasePath string `env:"GEOIP_DB_PATH" envDefault:"./GeoIP.dat"`
	QueryAddr    string `env:"GEOIP_QUERY_ADDR" envDefault:"8.8.8.8"`
	Mode         string `env:"GEOIP_MODE" envDefault:"file"`
	MetricsAddr  string `env:"GEOIP_METRICS_ADDR" envDefault:":8080"`
	LogFormat    string `env:"GEOIP_LOG_FORMAT" envDefault:"text"`
}

// parseEnvironment reads and validates the demo's environment.
func parseEnvironment() (envs *environment, err error) {
	envs = &environment{}
	if err = env.Parse(envs); err != nil {
		return nil, err
	}

	return envs, nil
}

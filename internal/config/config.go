package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"rosterhub"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	LogLevel       string        `envconfig:"ROSTERHUB_LOG_LEVEL" default:"info"`
	MetricsAddress string        `envconfig:"ROSTERHUB_METRICS_ADDRESS" default:":8081"`
	Timezone       string        `envconfig:"ROSTERHUB_TIMEZONE" default:"UTC"`
	SweepInterval  time.Duration `envconfig:"ROSTERHUB_SWEEP_INTERVAL" default:"1m"`
	SweepTimeout   time.Duration `envconfig:"ROSTERHUB_SWEEP_TIMEOUT" default:"30s"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns the built-in defaults without consulting the
// environment. Used by tests.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type:     "pgsql",
			Hostname: "localhost",
			Port:     "5432",
			Name:     "rosterhub",
			User:     "admin",
			Password: "adminpass",
		},
		Service: &svcConfig{
			LogLevel:       "info",
			MetricsAddress: ":8081",
			Timezone:       "UTC",
			SweepInterval:  time.Minute,
			SweepTimeout:   30 * time.Second,
		},
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the on-disk shape shared by JSON and TOML config files.
type fileConfig struct {
	App struct {
		HashKey       string   `json:"hash_key" toml:"hash_key"`
		TokenSignKey  string   `json:"token_sign_key" toml:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer" toml:"token_issuer"`
		TokenDuration Duration `json:"token_duration" toml:"token_duration"`
		Version       string   `json:"version" toml:"version"`
		LogLevel      string   `json:"log_level" toml:"log_level"`
	} `json:"app" toml:"app"`

	Storage struct {
		Primary   fileDB `json:"primary" toml:"primary"`
		Secondary fileDB `json:"secondary" toml:"secondary"`
	} `json:"storage" toml:"storage"`

	Arbiter struct {
		HealthCheckInterval Duration `json:"health_check_interval" toml:"health_check_interval"`
		ProbeTimeout        Duration `json:"probe_timeout" toml:"probe_timeout"`
	} `json:"arbiter" toml:"arbiter"`

	Sync struct {
		EnrolledTables []string `json:"enrolled_tables" toml:"enrolled_tables"`
	} `json:"sync" toml:"sync"`

	Server struct {
		HTTPAddress    string   `json:"http_address" toml:"http_address"`
		RequestTimeout Duration `json:"request_timeout" toml:"request_timeout"`
	} `json:"server" toml:"server"`

	Workers struct {
		SyncInterval    Duration `json:"sync_interval" toml:"sync_interval"`
		ShutdownTimeout Duration `json:"shutdown_timeout" toml:"shutdown_timeout"`
	} `json:"workers" toml:"workers"`
}

type fileDB struct {
	DSN             string   `json:"dsn" toml:"dsn"`
	MaxOpenConns    int      `json:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int      `json:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime Duration `json:"conn_max_lifetime" toml:"conn_max_lifetime"`
	QueryTimeout    Duration `json:"query_timeout" toml:"query_timeout"`
	RetryAttempts   int      `json:"retry_attempts" toml:"retry_attempts"`
}

func (d fileDB) toDB() DB {
	return DB{
		DSN:             d.DSN,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: time.Duration(d.ConnMaxLifetime),
		QueryTimeout:    time.Duration(d.QueryTimeout),
		RetryAttempts:   d.RetryAttempts,
	}
}

func (f *fileConfig) toStructured() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			HashKey:       f.App.HashKey,
			TokenSignKey:  f.App.TokenSignKey,
			TokenIssuer:   f.App.TokenIssuer,
			TokenDuration: time.Duration(f.App.TokenDuration),
			Version:       f.App.Version,
			LogLevel:      f.App.LogLevel,
		},
		Storage: Storage{
			Primary:   f.Storage.Primary.toDB(),
			Secondary: f.Storage.Secondary.toDB(),
		},
		Arbiter: Arbiter{
			HealthCheckInterval: time.Duration(f.Arbiter.HealthCheckInterval),
			ProbeTimeout:        time.Duration(f.Arbiter.ProbeTimeout),
		},
		Sync: Sync{
			EnrolledTables: f.Sync.EnrolledTables,
		},
		Server: Server{
			HTTPAddress:    f.Server.HTTPAddress,
			RequestTimeout: time.Duration(f.Server.RequestTimeout),
		},
		Workers: Workers{
			SyncInterval:    time.Duration(f.Workers.SyncInterval),
			ShutdownTimeout: time.Duration(f.Workers.ShutdownTimeout),
		},
	}
}

func parseJSON(path string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var fc fileConfig
	if err := json.NewDecoder(jsonFile).Decode(&fc); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return fc.toStructured(), nil
}

func parseTOML(path string) (*StructuredConfig, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("error decoding toml configs: %w", err)
	}

	return fc.toStructured(), nil
}

// Duration is a time.Duration that decodes from strings like "30s" in both
// JSON and TOML, and from integer nanoseconds in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		return d.UnmarshalText([]byte(value))
	case nil:
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d *Duration) UnmarshalText(b []byte) error {
	tmp, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(tmp)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

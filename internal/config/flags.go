package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
)

// NetAddress holds a host:port pair. It implements flag.Value.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses the server command line.
//
// Flags:
//
//	-a            operator API address host:port
//	-primary      primary store DSN (Postgres)
//	-secondary    secondary store DSN (SQLite)
//	-c / -config  JSON or TOML config file
//	-hash-key     content hash key
//	-token-sign-key, -token-issuer, -token-duration
//	-health-check-interval, -probe-timeout
//	-sync-interval, -shutdown-timeout, -request-timeout
//	-tables       comma separated enrolled tables
//	-log-level    debug|info|warn|error
func parseFlags(args []string) (*StructuredConfig, error) {
	cfg := &StructuredConfig{}
	fs := flag.NewFlagSet("mmudzi-server", flag.ContinueOnError)

	var address NetAddress
	var tables string

	fs.Var(&address, "a", "Net address host:port")
	fs.StringVar(&cfg.Storage.Primary.DSN, "primary", "", "Primary store DSN")
	fs.StringVar(&cfg.Storage.Secondary.DSN, "secondary", "", "Secondary store DSN")
	fs.StringVar(&cfg.FilePath, "c", "", "Config file path (JSON or TOML)")
	fs.StringVar(&cfg.FilePath, "config", "", "Config file path (alias)")
	fs.StringVar(&cfg.App.HashKey, "hash-key", "", "Content hash key")
	fs.StringVar(&cfg.App.TokenSignKey, "token-sign-key", "", "Operator token signing key")
	fs.StringVar(&cfg.App.TokenIssuer, "token-issuer", "", "Operator token issuer")
	fs.DurationVar(&cfg.App.TokenDuration, "token-duration", 0, "Operator token duration (e.g. 1h)")
	fs.StringVar(&cfg.App.LogLevel, "log-level", "", "Log level")
	fs.DurationVar(&cfg.Arbiter.HealthCheckInterval, "health-check-interval", 0, "Minimum time between primary probes")
	fs.DurationVar(&cfg.Arbiter.ProbeTimeout, "probe-timeout", 0, "Primary probe timeout")
	fs.DurationVar(&cfg.Workers.SyncInterval, "sync-interval", 0, "Background sync period")
	fs.DurationVar(&cfg.Workers.ShutdownTimeout, "shutdown-timeout", 0, "Worker shutdown timeout")
	fs.DurationVar(&cfg.Server.RequestTimeout, "request-timeout", 0, "Request timeout (e.g. 30s)")
	fs.StringVar(&tables, "tables", "", "Comma separated enrolled tables")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Server.HTTPAddress = address.String()
	cfg.Sync.EnrolledTables = splitList(tables)

	return cfg, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String returns host:port, or "" when neither part is set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses host:port. Hosts other than "localhost" must be IP addresses.
func (a *NetAddress) Set(s string) error {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("need address in a form `host:port`")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host != "localhost" && host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the protocol endpoint
// settings (host, port, buffer size, wire encoding, accept backlog), the
// installed verb modules, persistence paths, logging, the ops listener, and
// the avatar blob-store credentials.
//
// The supervisor freezes the configuration while it is running: a frozen
// Config rejects mutation until the server stops again.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Defaults for the protocol endpoint.
const (
	DefaultHost       = "localhost"
	DefaultPort       = 7777
	DefaultBufferSize = 65536
	DefaultEncoding   = "utf-8"
	DefaultBacklog    = 7
)

// BlobConfig carries the connection string for the external avatar blob
// store. Only file-name tokens cross the core; the credentials are passed
// through to whatever uploads the binary payloads. Typically supplied via a
// .env credentials file.
type BlobConfig struct {
	Addr     string // BLOB_ADDR, e.g. "ftp.example.org:21"
	User     string // BLOB_USER
	Password string // BLOB_PASSWORD; never logged
}

// OpsConfig defines the optional read-only HTTP listener used by the admin
// console and monitoring (healthz, metrics, sessions, stats).
type OpsConfig struct {
	Enabled bool   // OPS_ENABLED
	Addr    string // OPS_ADDR, e.g. "127.0.0.1:7778"
}

// Config holds all configuration values for the messenger server.
//
// Mutation is guarded: once Freeze() has been called, setters fail with
// ErrFrozen until Thaw() is called. Reads are always allowed.
type Config struct {
	mu     sync.RWMutex
	frozen bool

	// Endpoint
	Host       string // bind host
	Port       int    // bind port, non-negative
	BufferSize int    // max frame size in bytes; one recv is one frame
	Encoding   string // IANA name of the wire text encoding
	Backlog    int    // max pending connections

	// Modules whose route tables are installed into the router.
	Modules []string

	// Persistence
	DBPath string // sqlite database file
	LogDir string // directory for date-stamped log files

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Ops / admin surface
	Ops OpsConfig

	// Avatar blob store credentials
	Blob BlobConfig
}

// ErrFrozen is returned by setters while the server is running.
var ErrFrozen = errors.New("config: server is running, configuration is read-only")

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Host:       getenv("MESSENGER_HOST", DefaultHost),
		Port:       getint("MESSENGER_PORT", DefaultPort),
		BufferSize: getint("MESSENGER_BUFFER_SIZE", DefaultBufferSize),
		Encoding:   strings.ToLower(getenv("MESSENGER_ENCODING", DefaultEncoding)),
		Backlog:    getint("MESSENGER_CONNECTIONS", DefaultBacklog),

		Modules: splitCSV(getenv("MESSENGER_MODULES", "auth,chat")),

		DBPath: getenv("DB_PATH", "db.sqlite"),
		LogDir: getenv("LOG_DIR", "log"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		Ops: OpsConfig{
			Enabled: getbool("OPS_ENABLED", false),
			Addr:    getenv("OPS_ADDR", "127.0.0.1:7778"),
		},

		Blob: BlobConfig{
			Addr:     getenv("BLOB_ADDR", ""),
			User:     getenv("BLOB_USER", ""),
			Password: getenv("BLOB_PASSWORD", ""),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	if len(cfg.Modules) == 0 {
		cfg.Modules = []string{"auth", "chat"}
	}

	// --- validation ---
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("MESSENGER_HOST must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("MESSENGER_PORT must be in [0,65535], got %d", c.Port)
	}
	if c.BufferSize <= 0 {
		return errors.New("MESSENGER_BUFFER_SIZE must be > 0")
	}
	if c.Backlog < 1 {
		return errors.New("MESSENGER_CONNECTIONS must be >= 1")
	}
	if strings.TrimSpace(c.Encoding) == "" {
		return errors.New("MESSENGER_ENCODING must not be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("DB_PATH must not be empty")
	}
	return nil
}

// Addr returns the "host:port" bind address for the protocol listener.
func (c *Config) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Freeze marks the configuration read-only. The supervisor calls it right
// before the listener binds.
func (c *Config) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Thaw lifts the read-only guard after the supervisor stops.
func (c *Config) Thaw() {
	c.mu.Lock()
	c.frozen = false
	c.mu.Unlock()
}

// Frozen reports whether the configuration is currently read-only.
func (c *Config) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// SetEndpoint overrides host and/or port (CLI flags). A negative port or an
// empty host leaves the respective value unchanged. Fails with ErrFrozen
// while the server is running.
func (c *Config) SetEndpoint(host string, port int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrFrozen
	}
	if strings.TrimSpace(host) != "" {
		c.Host = host
	}
	if port >= 0 {
		if port > 65535 {
			return fmt.Errorf("port must be in [0,65535], got %d", port)
		}
		c.Port = port
	}
	return nil
}

// SetBufferSize overrides the frame buffer size. Fails with ErrFrozen while
// the server is running.
func (c *Config) SetBufferSize(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrFrozen
	}
	if n <= 0 {
		return errors.New("buffer size must be > 0")
	}
	c.BufferSize = n
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Package config holds the server configuration. Values are layered:
// defaults, then an optional YAML file, then SOCIALGRAPH_* environment
// variables, then command line flags.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	logging "github.com/hanpama/socialgraph/internal/logging"
)

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Store     StoreConfig     `yaml:"store"`
	Password  PasswordConfig  `yaml:"password"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Timeout         time.Duration `yaml:"timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	Pretty          bool          `yaml:"pretty"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	GraphiQL        bool          `yaml:"graphiql"`
	Introspection   bool          `yaml:"introspection"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

type StoreConfig struct {
	// Backend is mongo or memory.
	Backend string `yaml:"backend"`
}

type PasswordConfig struct {
	// BcryptCost of 0 selects bcrypt.DefaultCost.
	BcryptCost int `yaml:"bcryptCost"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP/gRPC collector address. Empty disables tracing.
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName"`
	Metrics      bool   `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Timeout:         10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
			GraphiQL:        true,
			Introspection:   true,
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "socialgraph",
			ConnectTimeout: 10 * time.Second,
		},
		Store:     StoreConfig{Backend: BackendMongo},
		Log:       LogConfig{Level: "info", Format: "json"},
		Telemetry: TelemetryConfig{ServiceName: "socialgraph", Metrics: true},
	}
}

// envFlags maps environment variables to the flag they override.
var envFlags = []struct{ env, flag string }{
	{"SOCIALGRAPH_SERVER_ADDR", "server.addr"},
	{"SOCIALGRAPH_SERVER_TIMEOUT", "server.timeout"},
	{"SOCIALGRAPH_SERVER_SHUTDOWN_TIMEOUT", "server.shutdown-timeout"},
	{"SOCIALGRAPH_SERVER_PRETTY", "server.pretty"},
	{"SOCIALGRAPH_SERVER_MAX_BODY_BYTES", "server.max-body-bytes"},
	{"SOCIALGRAPH_SERVER_CORS_ORIGINS", "server.cors-origin"},
	{"SOCIALGRAPH_SERVER_GRAPHIQL", "server.graphiql"},
	{"SOCIALGRAPH_SERVER_INTROSPECTION", "server.introspection"},
	{"SOCIALGRAPH_MONGO_URI", "mongo.uri"},
	{"SOCIALGRAPH_MONGO_DATABASE", "mongo.database"},
	{"SOCIALGRAPH_MONGO_CONNECT_TIMEOUT", "mongo.connect-timeout"},
	{"SOCIALGRAPH_STORE_BACKEND", "store.backend"},
	{"SOCIALGRAPH_PASSWORD_BCRYPT_COST", "password.bcrypt-cost"},
	{"SOCIALGRAPH_LOG_LEVEL", "log.level"},
	{"SOCIALGRAPH_LOG_FORMAT", "log.format"},
	{"SOCIALGRAPH_OTEL_ENDPOINT", "otel.endpoint"},
	{"SOCIALGRAPH_OTEL_SERVICE", "otel.service"},
	{"SOCIALGRAPH_METRICS", "metrics"},
}

// FlagSet returns a flag set whose flags write into c. The -config flag
// writes into path.
func (c *Config) FlagSet(name string, path *string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(path, "config", *path, "YAML configuration file")
	fs.StringVar(&c.Server.Addr, "server.addr", c.Server.Addr, "HTTP listen address")
	fs.DurationVar(&c.Server.Timeout, "server.timeout", c.Server.Timeout, "Per-request timeout")
	fs.DurationVar(&c.Server.ShutdownTimeout, "server.shutdown-timeout", c.Server.ShutdownTimeout, "Graceful shutdown timeout")
	fs.BoolVar(&c.Server.Pretty, "server.pretty", c.Server.Pretty, "Pretty-print JSON responses")
	fs.Int64Var(&c.Server.MaxBodyBytes, "server.max-body-bytes", c.Server.MaxBodyBytes, "Maximum request body size")
	fs.Var(&listFlag{dst: &c.Server.CORSOrigins}, "server.cors-origin", "Allowed CORS origin. Repeatable")
	fs.BoolVar(&c.Server.GraphiQL, "server.graphiql", c.Server.GraphiQL, "Serve GraphiQL on GET")
	fs.BoolVar(&c.Server.Introspection, "server.introspection", c.Server.Introspection, "Enable GraphQL introspection")
	fs.StringVar(&c.Mongo.URI, "mongo.uri", c.Mongo.URI, "MongoDB connection URI")
	fs.StringVar(&c.Mongo.Database, "mongo.database", c.Mongo.Database, "MongoDB database name")
	fs.DurationVar(&c.Mongo.ConnectTimeout, "mongo.connect-timeout", c.Mongo.ConnectTimeout, "MongoDB connect timeout")
	fs.StringVar(&c.Store.Backend, "store.backend", c.Store.Backend, "Document store backend: mongo or memory")
	fs.IntVar(&c.Password.BcryptCost, "password.bcrypt-cost", c.Password.BcryptCost, "bcrypt cost, 0 for default")
	fs.StringVar(&c.Log.Level, "log.level", c.Log.Level, "Log level")
	fs.StringVar(&c.Log.Format, "log.format", c.Log.Format, "Log format: json or text")
	fs.StringVar(&c.Telemetry.OTLPEndpoint, "otel.endpoint", c.Telemetry.OTLPEndpoint, "OTLP collector endpoint")
	fs.StringVar(&c.Telemetry.ServiceName, "otel.service", c.Telemetry.ServiceName, "OpenTelemetry service name")
	fs.BoolVar(&c.Telemetry.Metrics, "metrics", c.Telemetry.Metrics, "Expose Prometheus metrics on /metrics")
	return fs
}

// Load resolves the configuration for args. lookup reads environment
// variables; os.LookupEnv is used when it is nil.
func Load(name string, args []string, lookup func(string) (string, bool)) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	// first pass only finds -config
	var path string
	if err := Default().FlagSet(name, &path).Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	env := cfg.FlagSet(name, &path)
	for _, ef := range envFlags {
		if v, ok := lookup(ef.env); ok && v != "" {
			if err := env.Set(ef.flag, v); err != nil {
				return nil, fmt.Errorf("%s: %w", ef.env, err)
			}
		}
	}
	if err := cfg.FlagSet(name, &path).Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.Timeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("server.max-body-bytes must not be negative"))
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo.uri is required for the mongo backend"))
		}
		if c.Mongo.Database == "" {
			errs = append(errs, errors.New("mongo.database is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be %q or %q, got %q", BackendMongo, BackendMemory, c.Store.Backend))
	}
	if cost := c.Password.BcryptCost; cost != 0 && (cost < bcrypt.MinCost || cost > bcrypt.MaxCost) {
		errs = append(errs, fmt.Errorf("password.bcrypt-cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// listFlag is a repeatable, comma-separated string list. The first Set on a
// flag set replaces the value from earlier layers.
type listFlag struct {
	dst     *[]string
	touched bool
}

func (l *listFlag) String() string {
	if l == nil || l.dst == nil {
		return ""
	}
	return strings.Join(*l.dst, ",")
}

func (l *listFlag) Set(v string) error {
	if !l.touched {
		*l.dst = nil
		l.touched = true
	}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l.dst = append(*l.dst, part)
		}
	}
	return nil
}

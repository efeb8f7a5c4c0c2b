package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hanpama/socialgraph/internal/config"
	"github.com/hanpama/socialgraph/internal/docstore"
	"github.com/hanpama/socialgraph/internal/eventbus"
	"github.com/hanpama/socialgraph/internal/executor"
	"github.com/hanpama/socialgraph/internal/introspection"
	"github.com/hanpama/socialgraph/internal/logging"
	"github.com/hanpama/socialgraph/internal/metrics"
	"github.com/hanpama/socialgraph/internal/otel"
	"github.com/hanpama/socialgraph/internal/password"
	"github.com/hanpama/socialgraph/internal/schema"
	"github.com/hanpama/socialgraph/internal/server"
	"github.com/hanpama/socialgraph/internal/social"
)

const rootUsage = `socialgraph: GraphQL API for users, posts, comments and likes

USAGE:
  socialgraph <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL server
  print-schema     Print the GraphQL schema
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>                      YAML configuration file
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.timeout <duration>          Per-request timeout (default: 10s)
  -server.shutdown-timeout <duration> Graceful shutdown timeout (default: 15s)
  -server.pretty                      Pretty-print JSON responses
  -server.max-body-bytes N            Maximum request body size (default: 1048576)
  -server.cors-origin <origin>        Allowed CORS origin. Repeatable
  -server.graphiql <bool>             Serve GraphiQL on GET (default: true)
  -server.introspection <bool>        Enable GraphQL introspection (default: true)
  -store.backend <mongo|memory>       Document store backend (default: mongo)
  -mongo.uri <uri>                    MongoDB URI (default: mongodb://localhost:27017)
  -mongo.database <name>              MongoDB database (default: socialgraph)
  -mongo.connect-timeout <duration>   MongoDB connect timeout (default: 10s)
  -password.bcrypt-cost N             bcrypt cost, 0 for the library default
  -log.level <level>                  debug, info, warn or error (default: info)
  -log.format <json|text>             Log format (default: json)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: socialgraph)
  -metrics <bool>                     Expose Prometheus metrics on /metrics (default: true)

Every flag can also be set with SOCIALGRAPH_<SECTION>_<NAME>, for example
SOCIALGRAPH_MONGO_URI. Flags override the environment, which overrides the file.
`

const printSchemaUsage = `print-schema FLAGS:
  -out <file>              Write the schema to file (default: stdout)
  -introspection           Include the introspection types
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("socialgraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "print-schema":
		return cmdPrintSchema(cmdArgs, os.Stdout)
	case "help":
		return cmdHelp(cmdArgs, os.Stdout)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(out, serveUsage)
	case "print-schema":
		fmt.Fprint(out, printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdServe(args []string) error {
	cfg, err := config.Load("serve", args, nil)
	if err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: a.handler}
	errc := make(chan error, 1)
	go func() {
		logger.Info("GraphQL server listening", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx := context.Background()
	if cfg.Server.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, cfg.Server.ShutdownTimeout)
		defer cancel()
	}
	return srv.Shutdown(shutdownCtx)
}

// app is a wired server: handler plus the resources it holds.
type app struct {
	handler http.Handler
	closers []func(context.Context) error
	logger  *slog.Logger
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("shutdown", "error", err)
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	bus := eventbus.New()
	eventbus.Use(bus)
	a.closers = append(a.closers, func(context.Context) error { eventbus.Use(nil); return nil })
	detachLog := logging.Attach(bus, logger)
	a.closers = append(a.closers, func(context.Context) error { detachLog(); return nil })

	shutdownOtel, err := otel.Setup(ctx, bus, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("otel setup: %w", err)
	}
	a.closers = append(a.closers, shutdownOtel)

	hasher, err := password.NewBcrypt(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	var (
		deps *social.Deps
		ping func(context.Context) error
	)
	switch cfg.Store.Backend {
	case config.BackendMemory:
		deps = social.NewMemoryDeps(hasher, logger)
	default:
		client, err := docstore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		deps, err = social.NewMongoDeps(ctx, client.Database(cfg.Mongo.Database), hasher, logger)
		if err != nil {
			return nil, err
		}
		ping = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	}

	sch, err := social.Schema()
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	var runtime executor.Runtime = social.NewRuntime(deps.Instrumented())
	if cfg.Server.Introspection {
		w, err := introspection.Wrap(runtime, sch)
		if err != nil {
			return nil, err
		}
		runtime, sch = w.Runtime, w.Schema
	}

	sopts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithGraphiQL(cfg.Server.GraphiQL),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", server.New(runtime, sch, sopts...))
	mux.Handle("/healthz", server.Health(ping))
	if cfg.Telemetry.Metrics {
		m, err := metrics.New()
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		detach := m.Attach(bus)
		a.closers = append(a.closers, func(context.Context) error { detach(); return nil })
		mux.Handle("/metrics", m.Handler())
	}
	a.handler = mux
	return a, nil
}

func cmdPrintSchema(args []string, stdout io.Writer) error {
	outFile := ""
	withIntrospection := false
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write the schema to file")
	fs.BoolVar(&withIntrospection, "introspection", withIntrospection, "Include the introspection types")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, printSchemaUsage)
		return err
	}

	sch, err := social.Schema()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	if withIntrospection {
		w, err := introspection.Wrap(social.NewRuntime(&social.Deps{}), sch)
		if err != nil {
			return err
		}
		sch = w.Schema
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Fprint(stdout, sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}

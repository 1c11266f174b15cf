// Package main provides pet store service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/swaggest/rest-openapi/internal/infra"
	"github.com/swaggest/rest-openapi/internal/infra/nethttp"
	"github.com/swaggest/rest-openapi/internal/infra/service"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 10 * time.Second

var opts struct {
	EnvFile string `long:"env-file" default:".env" description:"File with environment variables, ignored if missing."`

	Serve   serveCommand   `command:"serve" description:"Start HTTP server (default)."`
	OpenAPI openAPICommand `command:"openapi" description:"Write OpenAPI document."`
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	if parser.Active == nil {
		if err := opts.Serve.Execute(nil); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// loadConfig initializes config from env file and ENV vars.
func loadConfig() (service.Config, error) {
	cfg := service.Config{}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)

	return zc.Build()
}

type serveCommand struct{}

// Execute starts HTTP server and waits for SIGTERM or SIGINT to shut it down.
func (serveCommand) Execute([]string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	defer logger.Sync() //nolint:errcheck

	// Initialize application resources.
	l := infra.NewServiceLocator(cfg, logger)
	app := nethttp.NewRouter(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)

	logger.Info("starting HTTP server",
		zap.String("server", cfg.Server),
		zap.String("docs", fmt.Sprintf("http://localhost:%d%s", cfg.HTTPPort, app.APIDocURL())))

	errs := make(chan error, 1)

	var shutdown func(ctx context.Context) error

	switch cfg.Server {
	case "fasthttp":
		srv := fasthttp.Server{
			ReadTimeout: 9 * time.Second,
			IdleTimeout: 9 * time.Second,
			Handler:     fasthttpadaptor.NewFastHTTPHandler(app),
		}

		go func() {
			errs <- srv.ListenAndServe(addr)
		}()

		shutdown = srv.ShutdownWithContext
	default:
		srv := http.Server{
			Addr:              addr,
			Handler:           app,
			ReadHeaderTimeout: time.Second,
		}

		go func() {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()

		shutdown = srv.Shutdown
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return shutdown(sctx)
}

type openAPICommand struct {
	Format string `long:"format" choice:"json" choice:"yaml" default:"json" description:"Document format."`
	Output string `short:"o" long:"output" description:"Output file, stdout if empty."`
}

// Execute writes OpenAPI document of the service.
func (c openAPICommand) Execute([]string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app := nethttp.NewRouter(infra.NewServiceLocator(cfg, nil))

	var doc []byte

	if c.Format == "yaml" {
		doc, err = app.SpecYAML()
	} else {
		doc, err = app.SpecJSON()
	}

	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err = os.Stdout.Write(doc)

		return err
	}

	return os.WriteFile(c.Output, doc, 0o600)
}

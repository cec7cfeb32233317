package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/option-calculator/internal/config"
	"github.com/iwvelando/option-calculator/internal/logging"
	"github.com/iwvelando/option-calculator/internal/pricing"
	"github.com/iwvelando/option-calculator/internal/server"
	"github.com/iwvelando/option-calculator/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	configLocation := flag.String("config", "", "path to pricing configuration file (defaults apply when empty)")
	addressFlag := flag.String("address", "", "listen address override")
	maxBodySize := flag.String("max-body-size", "", "request body limit override, e.g. 64K")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	serverConf, err := server.LoadConfig(*serverConfigLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
		os.Exit(1)
	}
	if *addressFlag != "" {
		serverConf.Address = *addressFlag
	}
	if *maxBodySize != "" {
		size, err := server.ParseSize(*maxBodySize)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid max body size\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		serverConf.MaxBodySize = server.ByteSize(size)
	}
	if err := serverConf.Validate(); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid server configuration\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(serverConf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		logger.Fatal(fmt.Sprintf("failed to load configuration at %s", *configLocation),
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	unit, err := conf.Form.Unit()
	if err != nil {
		logger.Fatal("failed to resolve default time unit",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	client := pricing.NewClient(conf.Pricing, logger)
	srv := &http.Server{
		Addr: serverConf.Address,
		Handler: server.NewHandler(logger, client, server.Options{
			MaxBodySize:    int64(serverConf.MaxBodySize),
			Version:        version,
			CurrencySymbol: conf.Form.CurrencySymbol,
			Fallback:       conf.Form.FallbackMessage,
			DefaultUnit:    unit,
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("op", "main"),
			zap.String("address", serverConf.Address),
			zap.String("pricing_url", client.URL()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.Duration("timeout", serverConf.ShutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConf.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped with error",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// distmul-client: HTTP front end that stores matrices and multiplies them
// across the configured backends
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
	"time"

	"distmul/api"
	"distmul/backend"
	"distmul/orchestrator"
	"distmul/store"
	"distmul/utils"
)

var (
	configPath  = flag.String("config", "", "JSON configuration file")
	listen      = flag.String("listen", "", "HTTP address to listen on (overrides config)")
	backends    = flag.String("backends", "", "Comma-separated backend addresses (overrides config)")
	leaf        = flag.Int("leaf", 0, "Default leaf threshold (overrides config)")
	maxInFlight = flag.Int("max-in-flight", -1, "Concurrent remote calls per request, 0 for unbounded (overrides config)")
	verbose     = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	client := backend.NewClient(config.Backends, config.DialTimeout())
	multiplier := orchestrator.New(client, orchestrator.WithMaxInFlight(config.MaxInFlight))
	handler := api.NewHandler(store.New(), multiplier, api.Defaults{
		LeafThreshold:          config.LeafThreshold,
		MultiCoreLeafThreshold: config.MultiCoreLeafThreshold,
	})

	srv := &http.Server{
		Addr:              config.Listen,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	utils.Logf("CLIENT", "Listening on %s with %d backends: %v", config.Listen, len(config.Backends), config.Backends)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		os.Exit(1)
	}
	utils.Logf("CLIENT", "Client done")
}

// loadConfig reads the config file, if any, then applies flag overrides.
func loadConfig() (*utils.Config, error) {
	config := utils.DefaultConfig()
	if *configPath != "" {
		var err error
		if config, err = utils.LoadConfig(*configPath); err != nil {
			return nil, err
		}
	}
	if *listen != "" {
		config.Listen = *listen
	}
	if *backends != "" {
		config.Backends = utils.ParseBackends(*backends)
	}
	if *leaf > 0 {
		config.LeafThreshold = *leaf
	}
	if *maxInFlight >= 0 {
		config.MaxInFlight = *maxInFlight
	}
	if err := utils.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

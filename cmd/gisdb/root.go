package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/gisdb"
	gisprom "github.com/hupe1980/gisdb/metrics/prometheus"
)

type app struct {
	envFile     string
	metricsAddr string

	cfg    config
	logger *gisdb.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "gisdb",
		Short:         "Index and query GNIS feature records.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = a.metricsAddr
			}
			a.cfg = cfg
			a.logger = cfg.logger()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "File with GISDB_* variables, ignored if missing.")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :2112.")

	root.AddCommand(newRunCmd(a), newPublishCmd(a))
	return root
}

// metrics returns the collector for Open. With a metrics address set it
// serves a dedicated registry over HTTP until the returned stop is called.
func (a *app) metrics(ctx context.Context) (gisdb.MetricsCollector, func(), error) {
	if a.cfg.MetricsAddr == "" {
		return nil, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	collector, err := gisprom.New(reg)
	if err != nil {
		return nil, nil, err
	}

	ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.ErrorContext(ctx, "metrics server failed", "addr", a.cfg.MetricsAddr, "error", err)
		}
	}()
	a.logger.InfoContext(ctx, "serving metrics", "addr", ln.Addr().String())

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return collector, stop, nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/adapter"
	"github.com/MeKo-Tech/reefcraft/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sampler over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	addSeedFlag(serveCmd)
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for trace responses")
	serveCmd.Flags().Float64("trace-rate", 10, "Allowed /trace requests per second (0 disables the limit)")
	serveCmd.Flags().Int("trace-burst", 20, "Burst size for /trace requests")
	serveCmd.Flags().Int("max-trace-samples", 100_000, "Maximum samples in one /trace response")
	serveCmd.Flags().Float32("max-advance", server.DefaultMaxAdvance, "Maximum time one /sim_value request may move past the current cycle")
	serveCmd.Flags().Duration("shutdown-timeout", 5*time.Second, "Grace period for in-flight requests on shutdown")

	mustBind(serveCmd, "serve", "addr", "seed", "cache-control", "trace-rate", "trace-burst",
		"max-trace-samples", "max-advance", "shutdown-timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	seed := viper.GetUint32("serve.seed")
	shutdownTimeout := viper.GetDuration("serve.shutdown_timeout")

	srvCfg := server.Config{
		CacheControl:    viper.GetString("serve.cache_control"),
		TraceRate:       viper.GetFloat64("serve.trace_rate"),
		TraceBurst:      viper.GetInt("serve.trace_burst"),
		MaxTraceSamples: viper.GetInt("serve.max_trace_samples"),
		MaxAdvance:      float32(viper.GetFloat64("serve.max_advance")),
	}
	api := server.New(adapter.New(seed), srvCfg, logger)

	srv := &http.Server{Addr: addr, Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("sampler server listening",
			"addr", addr,
			"seed", seed,
			"trace_rate", srvCfg.TraceRate,
			"max_trace_samples", srvCfg.MaxTraceSamples,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	st := api.Stats()
	logger.Info("Server stopped", "evaluations", st.Evaluations, "traces", st.Traces)
	return nil
}

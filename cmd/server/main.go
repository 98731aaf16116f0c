package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/adapters/http"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/adapters/rtc"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app/orch"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/logging"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/metrics"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var configFile string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mirror-relay",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mirror-relay version %s\n", version)
	},
}

var rootCmd = &cobra.Command{
	Use:   "mirror-relay",
	Short: "Signaling relay for screen mirroring sessions",
	Long: `mirror-relay pairs a source and a viewer under a session token and
forwards their offer, answer and ICE candidate messages over WebSocket.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	rootCmd.Flags().IntP("port", "p", 3000, "port to listen on")
	rootCmd.Flags().String("mode", "release", "gin mode: debug, release or test")
	rootCmd.Flags().String("public-host", "", "host written into session descriptors (default: first LAN IPv4)")
	rootCmd.Flags().String("public-url", "", "full relay URL written into session descriptors")
	rootCmd.Flags().String("static-path", "./public", "directory served under /static")
	rootCmd.Flags().Duration("session-ttl", time.Hour, "session lifetime")
	rootCmd.Flags().String("backpressure", "kick", "slow consumer policy: drop or kick")
	rootCmd.Flags().String("log-level", "info", "log level")
	rootCmd.Flags().String("log-format", "console", "log format: console or json")
}

func main() {
	logging.Bootstrap()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return err
	}
	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logCloser.Close()

	action, err := app.ParseBackpressure(cfg.Backpressure)
	if err != nil {
		return err
	}
	iceServers, err := rtc.ICEServers(cfg.ICEServers)
	if err != nil {
		return fmt.Errorf("ice servers: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	store := app.NewStore()
	m.ObserveSessions(store.Len)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(store),
		Policy:   app.SimplePolicy{Action: action},
		Metrics:  m,
	}
	gen := &app.Generator{
		Store:   store,
		Address: cfg.PublicAddress(),
		TTL:     cfg.SessionTTL,
		Metrics: m,
	}

	sweeper := app.NewSweeper(o, cfg.SweepInterval, cfg.SessionTTL)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:      o,
		Generator: gen,
		Metrics:   m,
		ICE:       iceServers,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("public", gen.Address).Str("version", version).Msg("mirror relay started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
		return err
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

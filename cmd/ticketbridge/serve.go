package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/escalatedhq/ticketbridge/internal/bridge"
	"github.com/escalatedhq/ticketbridge/internal/debug"
	"github.com/escalatedhq/ticketbridge/internal/hostapi"
	"github.com/escalatedhq/ticketbridge/internal/mapping"
	"github.com/escalatedhq/ticketbridge/internal/settings"
	"github.com/escalatedhq/ticketbridge/internal/telemetry"
	"github.com/escalatedhq/ticketbridge/internal/version"
	"github.com/escalatedhq/ticketbridge/internal/webhook"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Run the Jira webhook server. Incoming change notifications are
applied to linked tickets through the helpdesk API. The settings file
is watched and reloaded on change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := telemetry.Init(ctx, "ticketbridge", version.Version); err != nil {
			return err
		}
		defer telemetry.Shutdown(context.Background())

		settingsPath := settings.SettingsPath(configDir)
		store := settings.NewStore(loadSettings())

		host := hostapi.New(store)
		handler := bridge.New(store, linkStore(), loadStatusMap(), host, host)

		cfg := store.Current()
		addr := serveAddr
		if addr == "" {
			addr = cfg.ListenAddr
		}

		server := webhook.NewServer(webhook.ServerConfig{
			Handler: handler,
			Secret:  []byte(cfg.WebhookSecret),
		})

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			debug.PrintNormal("Listening on %s (direction: %s)\n", addr, cfg.SyncDirection)
			if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			err := settings.Watch(ctx, settingsPath, func(s *settings.Settings) {
				s.ApplyEnv()
				store.Replace(s)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

// loadStatusMap returns the status tables with any user overrides from
// mapping.yaml in the config directory applied.
func loadStatusMap() *mapping.StatusMap {
	sm := mapping.Default()

	overrides := filepath.Join(configDir, "mapping.yaml")
	if _, err := os.Stat(overrides); err == nil {
		if err := sm.LoadFile(overrides); err != nil {
			debug.Logf("ignoring mapping overrides: %v\n", err)
		}
	}
	return sm
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides settings)")
	rootCmd.AddCommand(serveCmd)
}

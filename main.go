package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/polsebas/agente-admin-observabilidad/internal/config"
	"github.com/polsebas/agente-admin-observabilidad/internal/handler"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
	"github.com/polsebas/agente-admin-observabilidad/internal/service"
)

// @title Observability Admin Agent API
// @version 1.0
// @description Alert intake, quick operational commands and verified recommendations.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configPath   string
	outputFormat string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Observability admin agent",
	Long: `Receives monitoring alerts, keeps an append-only alert ledger and answers
quick operational commands (/novedades, /salud, /deploy, /tendencias, /digest)
with evidence-backed notify/fyi recommendations.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		config.SetupLogging(cfg.Log)
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the digest scheduler",
	RunE:  runServe,
}

var commandCmd = &cobra.Command{
	Use:   "command [text]",
	Short: "Run one quick command and print the result",
	Long: `Runs the full command pipeline once (dispatch, verification, result dedup).

Example:
  agent command "/novedades 6h severity=critical"
  agent command "/deploy service=auth-service deployment_time=2025-12-10T14:00:00Z" --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the alert ledger schema if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		logrus.Infof("Ledger schema ready (driver=%s)", cfg.Ledger.Driver)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	commandCmd.Flags().StringVarP(&outputFormat, "output", "o", "markdown", "output format: markdown|json|yaml")

	rootCmd.AddCommand(serveCmd, commandCmd, schemaCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	router := handler.NewRouter(handler.RouterConfig{
		Alerts:         handler.NewAlertHandler(a.alerts, a.ledger),
		Quick:          handler.NewQuickHandler(a.commands, a.reports),
		Registry:       a.metrics.Registry(),
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if cfg.Auth.JWTSecret == "" {
		logrus.Warn("AUTH_JWT_SECRET not set, operator endpoints are unauthenticated")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logrus.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Digest.Enabled {
		scheduler, err := service.NewDigestScheduler(cfg.Digest.Schedule, a.commands, a.notifier)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	return g.Wait()
}

func runCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.commands.Execute(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}

func printResult(cmd *cobra.Command, result model.CommandResult) error {
	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(result)
	case "markdown", "":
		_, err := fmt.Fprintln(out, result.Report)
		return err
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

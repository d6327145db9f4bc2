package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursemarket/backend/config"
	"coursemarket/backend/payments"
	"coursemarket/backend/routes"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "coursemarket",
		Short:        "Course marketplace backend",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type deps struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *zap.Logger
	svc    *routes.Services
}

func bootstrap() (*deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := utils.InitDB(cfg)
	if err != nil {
		return nil, err
	}

	gateway := payments.NewStripeGateway(payments.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		FrontendURL:   cfg.FrontendURL,
	})

	return &deps{
		cfg:    cfg,
		db:     db,
		logger: logger,
		svc:    routes.NewServices(db, cfg, gateway, logger),
	}, nil
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			if rt.cfg.StripeSecretKey == "" {
				rt.logger.Warn("STRIPE_SECRET_KEY is empty, purchases will fail")
			}
			if migrate {
				if err := utils.Migrate(rt.db); err != nil {
					return err
				}
			}

			if rt.cfg.ReconcileSchedule != "" {
				c, err := services.StartReconciler(rt.svc.Enrollment, rt.cfg.ReconcileSchedule, 5*time.Minute, rt.logger)
				if err != nil {
					return err
				}
				defer func() { <-c.Stop().Done() }()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := routes.NewApp(ctx, rt.svc, rt.cfg, rt.logger)

			errCh := make(chan error, 1)
			go func() {
				rt.logger.Info("listening", zap.String("port", rt.cfg.ServerPort))
				errCh <- app.Listen(":" + rt.cfg.ServerPort)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			rt.logger.Info("shutting down")
			return app.ShutdownWithTimeout(10 * time.Second)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run database migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			if err := utils.Migrate(rt.db); err != nil {
				return err
			}
			rt.logger.Info("migrations applied")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Re-verify stale pending purchases once and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := rt.svc.Enrollment.Reconcile(ctx)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall time limit")
	return cmd
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/cmd"
	api "backoffice/internal/adapters/in/http"
	"backoffice/internal/adapters/out/postgres/migrations"
	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/domain/model/kernel"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "Order back office: agent assignment and shipping status sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newAutoAssignCommand(opts),
		newSyncTrackingCommand(opts),
		newReconcileCommand(opts),
		newImportOrdersCommand(opts),
		newIssueTokenCommand(opts),
	)
	return root
}

// app holds the infrastructure opened for one CLI invocation.
type app struct {
	cfg    cmd.Config
	logger *slog.Logger
	root   *cmd.CompositionRoot
	close  func()
}

func loadConfig(opts *rootOptions) (cmd.Config, *slog.Logger, error) {
	cfg, err := cmd.LoadConfig(opts.envFile)
	if err != nil {
		return cmd.Config{}, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	db, err := cmd.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	redisClient, err := cmd.OpenRedis(ctx, cfg)
	if err != nil {
		_ = cmd.CloseDatabase(db)
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		root:   cmd.NewCompositionRoot(cfg, db, redisClient, logger),
		close: func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close failed", slog.Any("error", err))
			}
			if err := cmd.CloseDatabase(db); err != nil {
				logger.Warn("database close failed", slog.Any("error", err))
			}
		},
	}, nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled jobs",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			e, err := api.NewEcho(a.root.CreateHTTPServer(), api.RouterOptions{
				CORSOrigins: a.cfg.CORSOrigins,
				Gatherer:    a.root.Gatherer(),
				Logger:      a.logger,
				Debug:       !a.cfg.IsProduction(),
			})
			if err != nil {
				return err
			}

			manager := a.root.CreateJobManager()
			if err = manager.StartAll(); err != nil {
				return err
			}
			defer manager.StopAll()

			serveErr := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", slog.String("port", a.cfg.HTTPPort))
				serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", a.cfg.HTTPPort))
			}()

			select {
			case err = <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	run := func(apply func(context.Context, *cmd.Config) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			cfg.AutoMigrate = false
			return apply(c.Context(), &cfg)
		}
	}
	withDB := func(ctx context.Context, cfg *cmd.Config, f func(*gorm.DB) error) error {
		db, err := cmd.OpenDatabase(ctx, *cfg)
		if err != nil {
			return err
		}
		defer func() { _ = cmd.CloseDatabase(db) }()
		return f(db)
	}

	migrate := &cobra.Command{Use: "migrate", Short: "Manage the database schema"}
	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: run(func(ctx context.Context, cfg *cmd.Config) error {
				return withDB(ctx, cfg, func(db *gorm.DB) error {
					sqlDB, err := db.DB()
					if err != nil {
						return err
					}
					return migrations.Up(ctx, sqlDB)
				})
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: run(func(ctx context.Context, cfg *cmd.Config) error {
				return withDB(ctx, cfg, func(db *gorm.DB) error {
					sqlDB, err := db.DB()
					if err != nil {
						return err
					}
					return migrations.Down(ctx, sqlDB)
				})
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: run(func(ctx context.Context, cfg *cmd.Config) error {
				return withDB(ctx, cfg, func(db *gorm.DB) error {
					sqlDB, err := db.DB()
					if err != nil {
						return err
					}
					v, err := migrations.Version(ctx, sqlDB)
					if err != nil {
						return err
					}
					fmt.Println(v)
					return nil
				})
			}),
		},
	)
	return migrate
}

func newAutoAssignCommand(opts *rootOptions) *cobra.Command {
	var (
		limit        int
		allowOffline bool
	)
	c := &cobra.Command{
		Use:   "auto-assign",
		Short: "Assign the unassigned backlog once",
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := openApp(c.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			if limit == 0 {
				limit = a.cfg.AutoAssignLimit
			}
			command, err := commands.NewAutoAssignOrdersCommand(limit, allowOffline)
			if err != nil {
				return err
			}
			result, err := a.root.CreateAutoAssignOrdersCommandHandler().Handle(c.Context(), command)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	c.Flags().IntVar(&limit, "limit", 0, "orders to process (AUTO_ASSIGN_LIMIT when 0)")
	c.Flags().BoolVar(&allowOffline, "allow-offline", false, "fall back to offline agents")
	return c
}

func newSyncTrackingCommand(opts *rootOptions) *cobra.Command {
	var (
		account   string
		maxOrders int
	)
	c := &cobra.Command{
		Use:   "sync-tracking",
		Short: "Pull tracking numbers from Maystro",
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := openApp(c.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			if maxOrders == 0 {
				maxOrders = a.cfg.SyncMaxOrders
			}

			if account == "" {
				command, err := commands.NewSyncActiveAccountsCommand(maxOrders)
				if err != nil {
					return err
				}
				result, err := a.root.CreateSyncActiveAccountsCommandHandler().Handle(c.Context(), command)
				if printErr := printJSON(result); printErr != nil {
					return printErr
				}
				return err
			}

			id, err := kernel.UUIDFromString(account)
			if err != nil {
				return err
			}
			command, err := commands.NewSyncTrackingNumbersCommand(id, maxOrders)
			if err != nil {
				return err
			}
			result, err := a.root.CreateSyncTrackingNumbersCommandHandler().Handle(c.Context(), command)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	c.Flags().StringVar(&account, "account", "", "shipping account id (every active Maystro account when empty)")
	c.Flags().IntVar(&maxOrders, "max-orders", 0, "orders per account (SYNC_MAX_ORDERS when 0)")
	return c
}

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-corrupted",
		Short: "Repair tracking numbers that equal the order reference",
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := openApp(c.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.root.CreateReconcileCorruptedTrackingCommandHandler().
				Handle(c.Context(), commands.NewReconcileCorruptedTrackingCommand())
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func newImportOrdersCommand(opts *rootOptions) *cobra.Command {
	var maxPages int
	c := &cobra.Command{
		Use:   "import-orders",
		Short: "Import new orders from EcoManager",
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := openApp(c.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			handler, err := a.root.CreateImportOrdersCommandHandler()
			if err != nil {
				return err
			}
			command, err := commands.NewImportOrdersCommand(maxPages)
			if err != nil {
				return err
			}
			result, err := handler.Handle(c.Context(), command)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	c.Flags().IntVar(&maxPages, "max-pages", 10, "pages to read at most")
	return c
}

func newIssueTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	c := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign an access token for the API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			token, err := api.MintToken(cfg.JWTSecret, subject, role, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	c.Flags().StringVar(&subject, "subject", "", "caller id stored in the token")
	c.Flags().StringVar(&role, "role", api.RoleAdmin, "admin, coordinator or agent")
	c.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = c.MarkFlagRequired("subject")
	return c
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mariabakes/breads-rest-api/internal/app"
	"github.com/mariabakes/breads-rest-api/internal/config"
	"github.com/mariabakes/breads-rest-api/internal/observability"
)

func main() {
	root := &cobra.Command{
		Use:          "breads-api",
		Short:        "Bakery catalog REST API with JWT authentication",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runtime, err := observability.InitRuntime(ctx, cfg)
			if err != nil {
				return err
			}

			a, err := app.Build(cfg, runtime)
			if err != nil {
				_ = runtime.Shutdown(context.Background())
				return err
			}
			return a.Run(ctx)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := app.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			if err := app.Migrate(db); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

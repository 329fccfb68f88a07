// Command collector runs the ingestion pipeline and analysis from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockpulse/internal/app/config"
	"stockpulse/internal/app/di"
	"stockpulse/internal/platform/logging"
)

// cli holds the state shared by the subcommands.
type cli struct {
	configPath string
	migrate    bool

	cfg config.Config
	log zerolog.Logger
	app *di.App
}

func main() {
	// .envを読み込む
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	err := newRootCmd(c).ExecuteContext(ctx)
	c.close()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "collector",
		Short:        "Collect equity prices and news, raise move alerts",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().BoolVar(&c.migrate, "migrate", false, "create or update tables before running")

	root.AddCommand(
		newCollectCmd(c),
		newPricesCmd(c),
		newNewsCmd(c),
		newAnalyzeCmd(c),
		newTokenCmd(),
	)
	return root
}

// setup loads the config and wires the application.
func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logging.New(cfg.Log)

	app, err := di.Build(ctx, cfg, c.migrate, c.log)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	c.app = app
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
}

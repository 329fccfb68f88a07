package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"stockpulse/internal/feature/analytics/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
	jwtmw "stockpulse/internal/platform/jwt"
)

func newCollectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Collect prices for the watch-list, then news",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(cmd.Context()); err != nil {
				return err
			}
			summary, err := c.app.Runner.RunOnce(cmd.Context())
			printSummary(cmd.OutOrStdout(), summary)
			return err
		},
	}
}

func newPricesCmd(c *cli) *cobra.Command {
	var symbols []string

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Collect prices only",
		Example: `  collector prices
  collector prices --symbols AAPL,MSFT`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(cmd.Context()); err != nil {
				return err
			}
			if len(symbols) == 0 {
				symbols = c.cfg.WatchList
			}
			return runPrices(cmd.Context(), cmd.OutOrStdout(), c.app.Ingest, symbols, c.cfg.Ingest.RunTimeout)
		},
	}
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "override the configured watch-list")
	return cmd
}

// priceIngester runs the price pipeline over a watch-list.
type priceIngester interface {
	Run(ctx context.Context, symbols []string) (usecase.RunSummary, error)
}

// runPrices は ingest.run_timeout を適用して価格の取り込みを一回実行します。
func runPrices(ctx context.Context, out io.Writer, ingest priceIngester, symbols []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summary, err := ingest.Run(ctx, symbols)
	printSummary(out, summary)
	return err
}

func newNewsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "news",
		Short: "Collect news headlines only",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(cmd.Context()); err != nil {
				return err
			}
			if c.app.News == nil {
				return errors.New("news collection is disabled (news.enabled=false)")
			}
			res, err := c.app.News.Collect(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scraped %d, inserted %d, linked %d\n", res.Scraped, res.Inserted, res.Linked)
			return nil
		},
	}
}

// analyze の集計期間 (日数)
const (
	analyzeAverageDays  = 30
	analyzeDynamicsDays = 90
)

func newAnalyzeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "analyze <symbol>",
		Short:   "Print average close, dynamics and min/max for a ticker",
		Args:    cobra.ExactArgs(1),
		Example: "  collector analyze MSFT",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(cmd.Context()); err != nil {
				return err
			}
			ctx, symbol := cmd.Context(), args[0]
			uc := c.app.Analytics

			avg, err := uc.AverageClose(ctx, symbol, analyzeAverageDays)
			if err != nil {
				return err
			}
			dyn, err := uc.Dynamics(ctx, symbol, analyzeDynamicsDays)
			if err != nil {
				return err
			}
			mm, err := uc.MinMax(ctx, symbol, entity.MinMaxDays)
			if err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), symbol, avg, dyn, mm)
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin JWT for POST /admin/ingest (uses $JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := jwtmw.NewGenerator(jwtmw.LoadSecret(), ttl).GenerateToken(jwtmw.AdminSubject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", jwtmw.DefaultExpiration, "token lifetime")
	return cmd
}

// Command report is the batch settlement run: it builds the same report over
// every construction path (bulk, legacy signed shape, lazy stream, channel
// fan-in) and prints the key metrics with per-path timings. The paths must
// agree; disagreement means a data or fold defect.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/powerdesk/trade-report/internal/config"
	"github.com/powerdesk/trade-report/internal/report"
	"github.com/powerdesk/trade-report/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("report run failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	from, to, err := cfg.Window()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	src := store.NewPostgresSource(pool)
	slog.Info("building settlement report", "from", from, "to", to)

	// Bulk: materialize all rows, then fold.
	start := time.Now()
	trades, err := src.Trades(ctx, from, to)
	if err != nil {
		return err
	}
	rep, err := report.New(from, to, trades)
	if err != nil {
		return err
	}
	printKeyMetrics("bulk", rep, time.Since(start))

	// Legacy shape: no side column, direction from the quantity sign.
	start = time.Now()
	signed, err := src.SignedTrades(ctx, from, to)
	if err != nil {
		return err
	}
	rep, err = report.NewFromSigned(from, to, signed)
	if err != nil {
		return err
	}
	printKeyMetrics("signed", rep, time.Since(start))

	// Lazy pull: fold rows straight off the cursors.
	start = time.Now()
	rep, err = report.NewFromSeq(from, to, src.StreamTrades(ctx, from, to))
	if err != nil {
		return err
	}
	printKeyMetrics("stream", rep, time.Since(start))

	// Fan-in: one producer per trade table into a bounded channel.
	start = time.Now()
	rep, err = report.NewFromProducers(ctx, from, to, cfg.ChannelBuffer, src.Producers(from, to)...)
	if err != nil {
		return err
	}
	printKeyMetrics("fan-in", rep, time.Since(start))

	return nil
}

func printKeyMetrics(builder string, rep *report.Report, took time.Duration) {
	m := rep.KeyMetrics()
	fmt.Printf("Report (%s), %s to %s, took %s\n",
		builder,
		rep.DeliveryFrom().Format("2006-01-02"),
		rep.DeliveryTo().Format("2006-01-02"),
		took.Round(time.Millisecond),
	)
	fmt.Printf("  Total gross profit: %s\n", m.GrossProfit)
	fmt.Printf("  Total revenue:      %s\n", m.Revenue)
	fmt.Printf("  Total costs:        %s\n", m.Costs)
	fmt.Printf("  Total mw sold:      %s\n", m.MWSold)
	fmt.Printf("  Total mw bought:    %s\n", m.MWBought)
	fmt.Println()
}

// Command pricewatch runs one tracking pass over the product catalog.
//
// Usage:
//
//	pricewatch                         # track everything that is due
//	pricewatch -merchant shopee -limit 50
//	pricewatch -force                  # ignore due-times, track all
//	pricewatch -add https://...        # register a product and exit
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hazyhaar/pricewatch"
)

func main() {
	// .env is optional; flags and real env always win.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to pricewatch.yml config file")
	dbPath := flag.String("db", "", "sqlite database path (overrides config)")
	limit := flag.Int("limit", 0, "max products this run (0 = unlimited)")
	merchant := flag.String("merchant", "", "restrict run to one merchant")
	concurrency := flag.Int("concurrency", 0, "batch size (0 = config default)")
	force := flag.Bool("force", false, "ignore due-times, track everything eligible")
	addURL := flag.String("add", "", "register a product URL and exit")
	addMerchant := flag.String("add-merchant", "", "merchant for -add (default: derived from host)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, options{
		configPath:  *configPath,
		dbPath:      *dbPath,
		limit:       *limit,
		merchant:    *merchant,
		concurrency: *concurrency,
		force:       *force || os.Getenv("PRICEWATCH_FORCE") == "1",
		addURL:      *addURL,
		addMerchant: *addMerchant,
	}); err != nil {
		logger.Error("pricewatch: fatal", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	dbPath      string
	limit       int
	merchant    string
	concurrency int
	force       bool
	addURL      string
	addMerchant string
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg := pricewatch.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = pricewatch.LoadConfigFile(opts.configPath)
		if err != nil {
			return err
		}
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}

	svc, err := pricewatch.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if opts.addURL != "" {
		p, err := svc.AddProduct(ctx, opts.addMerchant, opts.addURL)
		if err != nil {
			return err
		}
		logger.Info("product registered",
			"product_id", p.ID, "merchant", p.Merchant, "url", p.NormalizedURL)
		return nil
	}

	sum, err := svc.RunOnce(ctx, pricewatch.RunOptions{
		Limit:       opts.limit,
		Merchant:    opts.merchant,
		Concurrency: opts.concurrency,
		Force:       opts.force,
	})
	if err != nil {
		return err
	}

	// Partial failures are reported but do not fail the process.
	for _, f := range sum.Failures {
		logger.Warn("product failed",
			"product_id", f.ProductID, "title", f.Title,
			"kind", string(f.Kind), "reason", f.Reason)
	}
	logger.Info("run complete",
		"total", sum.Total, "succeeded", sum.Succeeded, "failed", sum.Failed)
	return nil
}

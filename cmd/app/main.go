package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yingtu35/site-deadlink-crawler/internal/config"
	"github.com/yingtu35/site-deadlink-crawler/internal/export"
	"github.com/yingtu35/site-deadlink-crawler/internal/progress"
	"github.com/yingtu35/site-deadlink-crawler/internal/storage"
	"github.com/yingtu35/site-deadlink-crawler/internal/webscraper"
	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

func main() {
	flags := pflag.NewFlagSet("deadlink-hunter", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	configPath, _ := flags.GetString("config")
	cfg, err := config.LoadConfig(configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.GetLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if file := cfg.ConfigFileUsed(); file != "" {
		logger.Debug("loaded configuration", zap.String("file", file), zap.Stringer("config", cfg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		var unreachable *webscraper.UnreachableSeedError
		var unavailable *storage.StorageUnavailableError
		switch {
		case errors.As(err, &unreachable):
			logger.Error("seed URL is unreachable", zap.String("url", unreachable.URL), zap.Error(err))
		case errors.As(err, &unavailable):
			logger.Error("storage is unavailable", zap.String("backend", unavailable.Backend), zap.Error(err))
		case errors.Is(err, context.Canceled):
			logger.Warn("crawl interrupted")
			return
		default:
			logger.Error("crawl failed", zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	seed := cfg.Crawler.URL
	if seed == "" {
		var err error
		if seed, err = promptURL(); err != nil {
			return err
		}
	}

	options := webscraper.OptionsFromConfig(cfg.Crawler)
	seed, err := webscraper.VerifySeed(ctx, webscraper.NewProbeClient(options), seed, logger)
	if err != nil {
		return err
	}
	host, err := domain.GetHost(seed)
	if err != nil {
		return err
	}

	sink, err := storage.Open(ctx, cfg.Storage, storage.SiteName(host), logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	line := progress.NewLine(os.Stdout)
	dlh, err := webscraper.NewStaticHunter(seed, options,
		webscraper.WithSink(sink),
		webscraper.WithReporter(line),
		webscraper.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	huntErr := dlh.StartHunting(ctx)
	line.Done()
	elapsed := time.Since(start)

	dlh.PrintResults(os.Stdout)
	logger.Info("Total Hunting Time", zap.Duration("elapsed", elapsed))

	if cfg.Export.Format != "" {
		exporter, err := export.NewExporter(cfg.Export.Format)
		if err != nil {
			return err
		}
		if err := exporter.Export(dlh.GetResults(), cfg.Export.File); err != nil {
			return err
		}
		logger.Info("report exported", zap.String("file", cfg.Export.File), zap.String("format", cfg.Export.Format))
	}

	return huntErr
}

func promptURL() (string, error) {
	fmt.Print("Enter the base URL to scrape (e.g., example.com): ")
	input, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && input == "" {
		return "", fmt.Errorf("error reading URL: %w", err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no URL given")
	}
	return input, nil
}

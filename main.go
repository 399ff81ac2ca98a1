package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	datafeed "github.com/fazecat/eodscanner/Internal/database"
	"github.com/fazecat/eodscanner/Internal/strategy/sector"
	"github.com/fazecat/eodscanner/Internal/utils/config"
	"github.com/fazecat/eodscanner/Internal/utils/export"
	"github.com/fazecat/eodscanner/Internal/utils/formatting"
	"github.com/fazecat/eodscanner/Internal/utils/logging"
	"github.com/fazecat/eodscanner/Internal/utils/metrics"
	"github.com/fazecat/eodscanner/Internal/utils/scanner"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	app := &cli.App{
		Name:  "eodscanner",
		Usage: "end-of-day stock scanner: indicators, setups, scores and risk sizing",
		Commands: []*cli.Command{
			scanCommand(),
			summaryCommand(),
			configCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "run one scan over the configured universe and write the CSV output",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yaml", Usage: "YAML config file"},
			&cli.StringFlag{Name: "universe", Usage: "NIFTY50, NIFTY_NEXT50, DOW30 or CUSTOM"},
			&cli.StringFlag{Name: "symbols", Usage: "comma separated symbols, implies --universe CUSTOM"},
			&cli.StringFlag{Name: "source", Usage: "yahoo or alpaca"},
			&cli.StringFlag{Name: "output-dir", Usage: "directory for the CSV files"},
			&cli.IntFlag{Name: "workers", Usage: "concurrent fetches"},
		},
		Action: runScan,
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "print a quick summary of a signals CSV",
		ArgsUsage: "<csv_file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: eodscanner summary <csv_file>", 2)
			}
			s, err := export.ReadSummary(c.Args().First())
			if err != nil {
				return err
			}
			formatting.PrintSummary(c.App.Writer, s)
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yaml", Usage: "YAML config file"},
			&cli.BoolFlag{Name: "init", Usage: "write the defaults to --config if it does not exist"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("config")
			if c.Bool("init") {
				if _, err := os.Stat(path); err == nil {
					return cli.Exit(fmt.Sprintf("%s already exists", path), 1)
				}
				// Defaults only, so env secrets never land in the file.
				if err := config.SaveConfig(config.Default(), path); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Wrote default configuration to %s\n", path)
			}
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			config.DisplayConfiguration(c.App.Writer, cfg)
			return nil
		},
	}
}

func flagOverrides(c *cli.Context) config.Override {
	return func(cfg *config.Config) {
		if c.IsSet("universe") {
			cfg.Universe = c.String("universe")
		}
		if c.IsSet("symbols") {
			cfg.Universe = scanner.PresetCustom
			cfg.CustomSymbols = strings.Split(c.String("symbols"), ",")
		}
		if c.IsSet("source") {
			cfg.Source = c.String("source")
		}
		if c.IsSet("output-dir") {
			cfg.OutputDir = c.String("output-dir")
		}
		if c.IsSet("workers") {
			cfg.Workers = c.Int("workers")
		}
	}
}

func runScan(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"), flagOverrides(c))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	src, err := newSource(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	sectors := sector.DefaultMap()
	if cfg.SectorMapFile != "" {
		if sectors, err = sector.LoadMap(cfg.SectorMapFile); err != nil {
			return cli.Exit(fmt.Sprintf("sector map: %v", err), 2)
		}
	}

	rec := metrics.New()
	s, err := scanner.New(cfg, src,
		scanner.WithLogger(logger),
		scanner.WithMetrics(rec),
		scanner.WithSectorMap(sectors),
	)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	report, err := s.Run(c.Context)
	if err != nil {
		return err
	}

	paths, err := export.NewWriter(cfg.OutputDir, cfg.Location(), logger).Write(report)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info().Str("all", paths.All).Str("long", paths.Long).Str("short", paths.Short).Msg("Output written")

	if cfg.DatabaseURL != "" {
		if err := saveToDatabase(c.Context, cfg.DatabaseURL, report, logger); err != nil {
			logger.Error().Err(err).Msg("Database sink failed, CSV output is still available")
		}
	}

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn().Err(err).Str("file", cfg.MetricsFile).Msg("Could not write metrics textfile")
		}
	}

	formatting.PrintCandidates(c.App.Writer, report)
	return nil
}

func newSource(cfg config.Config) (datafeed.Source, error) {
	switch cfg.Source {
	case "alpaca":
		src, err := datafeed.NewAlpacaSource(cfg.FetchTimeout)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return datafeed.NewYahooSource(cfg.FetchTimeout), nil
	}
}

func saveToDatabase(ctx context.Context, dsn string, report scanner.Report, logger zerolog.Logger) error {
	sink, err := datafeed.OpenPostgresSink(ctx, dsn)
	if err != nil {
		return err
	}
	defer sink.Close()

	signals, failures := report.Records()
	if err := sink.ReplaceRun(ctx, signals, failures); err != nil {
		return err
	}
	logger.Info().Int("rows", len(signals)).Int("failures", len(failures)).Msg("Saved scan to database")
	return nil
}

package cmd

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/cmd/cmdutil"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/config"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/screener"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/server"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/style"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util"
)

const testModeSymbolLimit = 5

// summaryRowLimit caps the rows printed per timeframe, exports keep the
// full result set.
const summaryRowLimit = 20

func init() {
	ScreenCmd.Flags().Bool("test", false, "test mode, process only the first 5 pairs")
	ScreenCmd.Flags().Int("limit", 0, "number of pairs to process, 0 processes all")
	ScreenCmd.Flags().Bool("no-export", false, "skip all json exports")
	ScreenCmd.Flags().Bool("only-db", false, "persist to the database only, skip the results file")
	ScreenCmd.Flags().String("output", "results", "output directory for the json exports")
	RootCmd.AddCommand(ScreenCmd)
}

var ScreenCmd = &cobra.Command{
	Use:          "screen",
	Short:        "screen the futures pairs once over all configured timeframes",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		testMode, err := cmd.Flags().GetBool("test")
		if err != nil {
			return err
		}

		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		noExport, err := cmd.Flags().GetBool("no-export")
		if err != nil {
			return err
		}

		onlyDB, err := cmd.Flags().GetBool("only-db")
		if err != nil {
			return err
		}

		outputDir, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		if testMode {
			log.Infof("test mode, only the first %d pairs are processed", testModeSymbolLimit)
			cfg.Screener.SymbolLimit = testModeSymbolLimit
		} else if limit > 0 {
			cfg.Screener.SymbolLimit = limit
		}

		db, err := cmdutil.ConnectDatabase(ctx, cfg)
		if err != nil {
			return err
		}

		defer func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Error("database close error")
			}
		}()

		sc, err := newScreener(cfg, db, newPersistenceFacade(cfg))
		if err != nil {
			return err
		}

		sc.ShowProgress = true

		symbols, err := sc.ListSymbols(ctx)
		if err != nil {
			return err
		}

		if len(symbols) == 0 {
			return errors.New("no trading pairs found")
		}

		log.Infof("selected %d pairs over timeframes %v", len(symbols), cfg.Screener.Timeframes)

		if err := sc.PrefetchVolumes(ctx, symbols); err != nil {
			log.WithError(err).Warn("volume prefetch failed, pairs without volume sort last")
		}

		results := make(map[string][]*screener.Report, len(cfg.Screener.Timeframes))
		for _, timeframe := range cfg.Screener.Timeframes {
			log.Infof("screening %d pairs on %s...", len(symbols), timeframe)

			reports, err := sc.ScreenAll(ctx, symbols, timeframe)
			if err != nil {
				log.WithError(err).Warnf("timeframe %s finished with errors", timeframe)
			}

			results[string(timeframe)] = reports
		}

		printScreenSummary(cfg, results)

		if !noExport {
			exporter := &screener.Exporter{Dir: outputDir, ReadingService: sc.ReadingService}

			if !onlyDB {
				resultsPath, err := exporter.WriteResults(results)
				if err != nil {
					return err
				}

				log.Infof("results saved to %s", resultsPath)
			}

			exportPath, err := exporter.WriteDatabaseExport(ctx)
			if err != nil {
				return err
			}

			log.Infof("database export saved to %s", exportPath)
		}

		return printScreenTotals(ctx, cfg, sc, results)
	},
}

func printScreenSummary(cfg *config.Config, results map[string][]*screener.Report) {
	for _, timeframe := range cfg.Screener.Timeframes {
		reports := results[string(timeframe)]
		if len(reports) == 0 {
			continue
		}

		t := style.NewTableWriter(os.Stdout)
		t.SetTitle("Stochastic RSI %s", timeframe)
		t.AppendHeader(table.Row{"#", "Symbol", "%K", "%D", "RSI", "Candles", "Status"})

		for i, report := range reports {
			if i == summaryRowLimit {
				break
			}

			num := i + 1
			if report.Error != "" {
				t.AppendRow(table.Row{num, report.Symbol, "-", "-", "-", "-", report.Error})
				continue
			}

			current := report.Current
			if current == nil || !current.Valid() {
				t.AppendRow(table.Row{num, report.Symbol, "-", "-", "-", report.TotalCandles, "no data"})
				continue
			}

			status := server.StatusOf(*current.K, cfg.API.Oversold, cfg.API.Overbought)
			statusCell := ""
			if status != server.StatusNeutral {
				statusCell = style.StatusEmoji(status) + " " + status
			}

			t.AppendRow(table.Row{
				num,
				report.Symbol,
				util.FormatFloat(*current.K, 4),
				util.FormatFloat(*current.D, 4),
				formatNullable(current.RSI),
				report.TotalCandles,
				statusCell,
			})
		}

		t.Render()
	}
}

func printScreenTotals(ctx context.Context, cfg *config.Config, sc *screener.Screener, results map[string][]*screener.Report) error {
	t := style.NewTableWriter(os.Stdout)
	t.SetTitle("Summary")
	t.AppendHeader(table.Row{"Timeframe", "Processed", "Persisted", "Errors"})

	for _, timeframe := range cfg.Screener.Timeframes {
		reports := results[string(timeframe)]

		var persisted, failed int
		for _, report := range reports {
			switch {
			case report.Error != "":
				failed++
			case report.Persisted:
				persisted++
			}
		}

		t.AppendRow(table.Row{timeframe, len(reports), persisted, failed})
	}

	t.Render()

	dbSymbols, err := sc.SymbolService.Symbols(ctx)
	if err != nil {
		return err
	}

	dbTimeframes, err := sc.SymbolService.Timeframes(ctx)
	if err != nil {
		return err
	}

	log.Infof("database: %d symbols, %d timeframes, file %s", len(dbSymbols), len(dbTimeframes), cfg.Database.DSN)
	return nil
}

func formatNullable(v *float64) string {
	if v == nil {
		return "-"
	}

	return util.FormatFloat(*v, 4)
}

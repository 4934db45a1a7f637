package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/cmd/cmdutil"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/config"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/server"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/style"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/types"
)

func init() {
	StatsCmd.Flags().String("symbol", "", "the pair to query, e.g. BTCUSDT")
	StatsCmd.Flags().String("timeframe", "1d", "the timeframe to query, e.g. 1h, 4h, 1d")
	StatsCmd.Flags().Bool("history", false, "also print the stored recent readings")
	StatsCmd.Flags().Bool("statistics", false, "also print aggregates over the accumulated readings")
	StatsCmd.Flags().Bool("list", false, "list the symbols and timeframes stored in the database")
	RootCmd.AddCommand(StatsCmd)
}

var StatsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "query the stored readings of a pair",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
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

		symbolService := &service.SymbolService{DB: db.DB}
		readingService := &service.ReadingService{DB: db.DB}

		list, err := cmd.Flags().GetBool("list")
		if err != nil {
			return err
		}

		if list {
			return listStored(ctx, symbolService)
		}

		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			return err
		}

		if len(symbol) == 0 {
			return errors.New("--symbol option is required")
		}

		symbol = strings.ToUpper(symbol)

		timeframe, err := cmd.Flags().GetString("timeframe")
		if err != nil {
			return err
		}

		interval, err := types.ParseInterval(timeframe)
		if err != nil {
			return err
		}

		withHistory, err := cmd.Flags().GetBool("history")
		if err != nil {
			return err
		}

		withStatistics, err := cmd.Flags().GetBool("statistics")
		if err != nil {
			return err
		}

		if err := printLatest(ctx, cfg, readingService, symbol, interval.String()); err != nil {
			return err
		}

		if withHistory {
			if err := printHistory(ctx, readingService, symbol, interval.String()); err != nil {
				return err
			}
		}

		if withStatistics {
			if err := printStatistics(ctx, readingService, symbol, interval.String()); err != nil {
				return err
			}
		}

		return nil
	},
}

func listStored(ctx context.Context, symbolService *service.SymbolService) error {
	symbols, err := symbolService.Symbols(ctx)
	if err != nil {
		return err
	}

	timeframes, err := symbolService.Timeframes(ctx)
	if err != nil {
		return err
	}

	log.Infof("symbols (%d): %s", len(symbols), strings.Join(symbols, ", "))
	log.Infof("timeframes (%d): %s", len(timeframes), strings.Join(timeframes, ", "))
	return nil
}

func printLatest(ctx context.Context, cfg *config.Config, readingService *service.ReadingService, symbol, timeframe string) error {
	reading, err := readingService.Latest(ctx, symbol, timeframe)
	if err != nil {
		if errors.Is(err, service.ErrReadingNotFound) {
			log.Warnf("no data found for %s %s", symbol, timeframe)
			return nil
		}

		return err
	}

	status := ""
	if reading.K != nil {
		status = server.StatusOf(*reading.K, cfg.API.Oversold, cfg.API.Overbought)
	}

	t := style.NewTableWriter(os.Stdout)
	t.SetTitle("%s %s latest", symbol, timeframe)
	t.AppendHeader(table.Row{"%K", "%D", "RSI", "Status", "Timestamp"})
	t.AppendRow(table.Row{
		formatNullable(reading.K),
		formatNullable(reading.D),
		formatNullable(reading.RSI),
		status,
		reading.Timestamp.Format(time.RFC3339),
	})
	t.Render()
	return nil
}

func printHistory(ctx context.Context, readingService *service.ReadingService, symbol, timeframe string) error {
	history, err := readingService.History(ctx, symbol, timeframe)
	if err != nil {
		return err
	}

	if len(history) == 0 {
		log.Warnf("no history found for %s %s", symbol, timeframe)
		return nil
	}

	t := style.NewTableWriter(os.Stdout)
	t.SetTitle("%s %s history", symbol, timeframe)
	t.AppendHeader(table.Row{"#", "%K", "%D", "RSI"})

	for _, h := range history {
		t.AppendRow(table.Row{
			h.Sequence,
			formatNullable(h.K),
			formatNullable(h.D),
			formatNullable(h.RSI),
		})
	}

	t.Render()
	return nil
}

func printStatistics(ctx context.Context, readingService *service.ReadingService, symbol, timeframe string) error {
	stats, err := readingService.Statistics(ctx, symbol, timeframe)
	if err != nil {
		return err
	}

	if stats == nil || stats.TotalRecords == 0 {
		log.Warnf("no statistics found for %s %s", symbol, timeframe)
		return nil
	}

	t := style.NewTableWriter(os.Stdout)
	t.SetTitle("%s %s statistics", symbol, timeframe)
	t.AppendHeader(table.Row{"", "Avg", "Min", "Max"})
	t.AppendRow(table.Row{"%K", formatNullable(stats.KAvg), formatNullable(stats.KMin), formatNullable(stats.KMax)})
	t.AppendRow(table.Row{"%D", formatNullable(stats.DAvg), formatNullable(stats.DMin), formatNullable(stats.DMax)})
	t.AppendRow(table.Row{"RSI", formatNullable(stats.RSIAvg), formatNullable(stats.RSIMin), formatNullable(stats.RSIMax)})
	t.Render()

	log.Infof("total records: %d", stats.TotalRecords)
	return nil
}

package cmd

import (
	"context"
	"net/http"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/cmd/cmdutil"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/screener"
)

func init() {
	UpdateCmd.Flags().Bool("test", false, "test mode, process only the first 5 pairs")
	RootCmd.AddCommand(UpdateCmd)
}

var UpdateCmd = &cobra.Command{
	Use:          "update",
	Short:        "continuously refresh the readings of every tracked pair",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		basectx := context.Background()
		ctx, cancel := context.WithCancel(basectx)
		defer cancel()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		testMode, err := cmd.Flags().GetBool("test")
		if err != nil {
			return err
		}

		if testMode {
			log.Infof("test mode, only the first %d pairs are processed", testModeSymbolLimit)
			cfg.Screener.SymbolLimit = testModeSymbolLimit
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

		facade := newPersistenceFacade(cfg)
		sc, err := newScreener(cfg, db, facade)
		if err != nil {
			return err
		}

		if addr := cfg.API.MetricsAddr; len(addr) > 0 {
			go func() {
				log.Infof("serving metrics on %s/metrics", addr)
				if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
					log.WithError(err).Error("metrics server error")
				}
			}()
		}

		loop := screener.NewUpdateLoop(sc, facade.Get().NewStore("stochrsi", "update"))

		var loopErr error
		done := make(chan struct{})
		go func() {
			loopErr = loop.Run(ctx)
			close(done)
			cancel()
		}()

		cmdutil.WaitForSignal(ctx, syscall.SIGINT, syscall.SIGTERM)

		log.Infof("shutting down...")
		cancel()

		shutdownCtx, cancelShutdown := context.WithTimeout(basectx, 30*time.Second)
		loop.Shutdown(shutdownCtx)
		cancelShutdown()

		<-done
		return loopErr
	},
}

package cmd

import (
	"context"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/cmd/cmdutil"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/server"
)

func init() {
	RootCmd.AddCommand(ServeCmd)
}

var ServeCmd = &cobra.Command{
	Use:          "serve",
	Short:        "serve the json api over the stored readings",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

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

		facade := newPersistenceFacade(cfg)
		sc, err := newScreener(cfg, db, facade)
		if err != nil {
			return err
		}

		srv := server.New(cfg, sc, db.DB, facade.Get().NewStore("stochrsi", "api"))

		var serveErr error
		done := make(chan struct{})
		go func() {
			serveErr = srv.Run(ctx)
			close(done)
			cancel()
		}()

		cmdutil.WaitForSignal(ctx, syscall.SIGINT, syscall.SIGTERM)

		log.Infof("shutting down...")
		cancel()
		<-done
		return serveErr
	},
}

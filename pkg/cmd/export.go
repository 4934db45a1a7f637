package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/cmd/cmdutil"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/screener"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
)

func init() {
	ExportCmd.Flags().String("output", "results", "output directory for the export file")
	RootCmd.AddCommand(ExportCmd)
}

var ExportCmd = &cobra.Command{
	Use:          "export",
	Short:        "dump the accumulated readings to a json file",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		outputDir, err := cmd.Flags().GetString("output")
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

		exporter := &screener.Exporter{
			Dir:            outputDir,
			ReadingService: &service.ReadingService{DB: db.DB},
		}

		path, err := exporter.WriteDatabaseExport(ctx)
		if err != nil {
			return err
		}

		log.Infof("database export saved to %s", path)
		return nil
	},
}

package cmd

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/x-cray/logrus-prefixed-formatter"
)

var RootCmd = &cobra.Command{
	Use:   "stochrsi",
	Short: "stochastic rsi screener for binance usd-m futures",
	Long:  "screens futures pairs for stochastic rsi extremes and serves the readings over a json api",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotenvFile, err := cmd.Flags().GetString("dotenv")
		if err != nil {
			return err
		}

		if _, err := os.Stat(dotenvFile); err == nil {
			if err := godotenv.Load(dotenvFile); err != nil {
				return errors.Wrap(err, "error loading dotenv file")
			}
		}

		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().Bool("debug", false, "debug flag")
	RootCmd.PersistentFlags().String("config", "", "config file")
	RootCmd.PersistentFlags().String("dotenv", ".env.local", "the dotenv file to load before running")

	// Credentials stay on the root so viper can also pick them up from
	// BINANCE_API_KEY and BINANCE_API_SECRET.
	RootCmd.PersistentFlags().String("binance-api-key", "", "binance api key")
	RootCmd.PersistentFlags().String("binance-api-secret", "", "binance api secret")
}

func Execute() {
	// Flag values may also come from the environment, dashes map to underscores.
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		log.WithError(err).Error("cannot bind persistent flags")
	}

	if err := viper.BindPFlags(RootCmd.Flags()); err != nil {
		log.WithError(err).Error("cannot bind local flags")
	}

	setupLogging(log.StandardLogger())

	if err := RootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("cannot execute command")
	}
}

func setupLogging(logger *log.Logger) {
	log.SetFormatter(&prefixed.TextFormatter{})

	if viper.GetBool("debug") {
		logger.SetLevel(log.DebugLevel)
	}

	if env := os.Getenv("STOCHRSI_ENV"); env != "production" && env != "prod" {
		return
	}

	// Production keeps a daily rotated copy of the log stream as JSON.
	writer, err := rotatelogs.New(
		path.Join("log", "access_log.%Y%m%d"),
		rotatelogs.WithLinkName("access_log"),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		log.Panic(err)
	}

	logger.AddHook(lfshook.NewHook(
		lfshook.WriterMap{
			log.DebugLevel: writer,
			log.InfoLevel:  writer,
			log.WarnLevel:  writer,
			log.ErrorLevel: writer,
			log.FatalLevel: writer,
		},
		&log.JSONFormatter{},
	))
}

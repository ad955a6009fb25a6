package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/icook/tiny-ballot/config"
)

var (
	configFile string
	vip        = viper.New()
)

var rootCmd = &cobra.Command{
	Use:           "ballotd",
	Short:         "Yes/no ballot ledger service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	def := config.DefaultConfig()
	flags.StringVarP(&configFile, "config", "c", "", "load configuration from file")
	flags.String("log-level", def.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-encoding", def.Log.Encoding, "log encoding (console, json)")

	bind("log.level", flags.Lookup("log-level"))
	bind("log.encoding", flags.Lookup("log-encoding"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(vip, configFile)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.Encoding
	if cfg.Encoding == "console" {
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zcfg.Build()
}

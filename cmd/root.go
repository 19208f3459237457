package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration. A config file only needs the keys it changes.
const defaultConfigYAML = `
layout: ""
normalizer:
  tolerance: 3.0
extraction:
  backend: pdf
  unipdf_license_key: ""
  concurrency: 4
server:
  port: "8080"
  max_upload_mb: 32
  rate_limit: 5
  rate_burst: 10
  cors_origins:
    - "*"
database:
  url: ""
statement:
  TTB_CC:
    currency: THB
    card_number_exceptions:
      - ROYAL ORCHID PLUS
`

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "ccx [filename]",
		Short: "Extract structured data from credit-card statements",
		Long: `ccx turns credit-card statement PDFs into structured JSON: the statement
summary, every ledger transaction, reward points and validation warnings.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				viper.Set("target", args[0])
				return runExtract(cmd, nil)
			}
			return cmd.Help()
		},
	}
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.ccx.yaml or ~/.ccx.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().String("layout", "", "force a statement layout instead of detecting it")
	viper.BindPFlag("layout", rootCmd.PersistentFlags().Lookup("layout"))
}

func initLogging() {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(true)
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func initConfig() {
	if err := loadConfig(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the embedded defaults, then merges .env, the config file
// and CCX_* environment variables on top.
func loadConfig(v *viper.Viper, file string) error {
	// .env is optional
	_ = godotenv.Load()

	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
		return fmt.Errorf("embedded configuration: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".ccx")
	}

	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("CCX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v.BindEnv("database.url", "CCX_DATABASE_URL", "DATABASE_URL")
}

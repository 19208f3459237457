package cmd

import (
	"github.com/miwtoo/credit-card-extraction/api"
	"github.com/miwtoo/credit-card-extraction/extractor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long:  `Starts the HTTP API server that accepts statement PDFs and returns extracted data as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := extractor.NewPipeline()
		if err != nil {
			return err
		}

		server := api.New(serverConfig(viper.GetViper()), p)
		return server.Start()
	},
}

func serverConfig(v *viper.Viper) api.Config {
	cfg := api.DefaultConfig()
	if port := v.GetString("server.port"); port != "" {
		cfg.Port = ":" + port
	}
	if mb := v.GetInt64("server.max_upload_mb"); mb > 0 {
		cfg.MaxUploadMB = mb
	}
	if v.IsSet("server.rate_limit") {
		cfg.RateLimit = v.GetFloat64("server.rate_limit")
	}
	if burst := v.GetInt("server.rate_burst"); burst > 0 {
		cfg.RateBurst = burst
	}
	if origins := v.GetStringSlice("server.cors_origins"); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}
	cfg.LogPrefix = "SERVER"
	return cfg
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to run the API server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

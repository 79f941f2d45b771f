// cmd/root.go - Root command implementation
package cmd

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trip-heatmap",
	Short: "Adaptive heatmap aggregation over recorded trips",
	Long: `TripHeatmap turns recorded GPS trips into tiled aggregate maps: observation
heatmaps, traffic maps with neighbor smoothing, and speed maps. Tiles are
aligned to absolute multiples of the tile size, so successive queries over
shifted viewports produce stable cell boundaries.

Data sources:
- A remote aggregate map server (GET /api/heatmap/)
- A local reference generator, for development without a backend

Commands:
- fetch   run one query/render cycle and write the overlay
- watch   poll the source on an adjustable interval
- serve   run the reference aggregate map server over SQLite
- import  load recorded points into the server database

Examples:
  # One-shot fetch from a server
  trip-heatmap fetch --base-url http://localhost:8080 --lat1 50.5 --lon1 30.4 --lat2 50.3 --lon2 30.7

  # Poll every five seconds, writing timestamped overlays
  trip-heatmap watch --interval 5000 --output-dir ./overlays

  # Run the reference backend
  trip-heatmap serve --db trips.db --listen :8080

  # Import a recorded trip file
  trip-heatmap import points.json --db trips.db`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.trip-heatmap.yaml)")

	// Source configuration flags
	rootCmd.PersistentFlags().String("source-type", "auto", "data source type (auto, http, local)")
	rootCmd.PersistentFlags().String("base-url", "", "base URL of the aggregate map server")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (HTTP source)")
	rootCmd.PersistentFlags().Int("max-count", 100, "count ceiling of the local generator")

	// Viewport and grid flags
	rootCmd.PersistentFlags().Float64("lat1", 0, "first viewport corner latitude")
	rootCmd.PersistentFlags().Float64("lon1", 0, "first viewport corner longitude")
	rootCmd.PersistentFlags().Float64("lat2", 0, "second viewport corner latitude")
	rootCmd.PersistentFlags().Float64("lon2", 0, "second viewport corner longitude")
	rootCmd.PersistentFlags().Int("count-x", 10, "number of tile columns")
	rootCmd.PersistentFlags().Int("count-y", 10, "number of tile rows")
	rootCmd.PersistentFlags().String("kind", "heatmap", "aggregate map kind (heatmap, trafficmap, speedmap)")

	// Output flags
	rootCmd.PersistentFlags().StringP("format", "f", "geojson", "output format (geojson, json)")
	rootCmd.PersistentFlags().Bool("pretty", true, "pretty print JSON output")

	// Processing flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().Duration("timeout", 30*1000000000, "request timeout (HTTP source)")
	rootCmd.PersistentFlags().Int("retries", 3, "number of retry attempts")

	// Bind flags to viper
	viper.BindPFlag("source.type", rootCmd.PersistentFlags().Lookup("source-type"))
	viper.BindPFlag("server.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("server.api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("source.max_count", rootCmd.PersistentFlags().Lookup("max-count"))
	viper.BindPFlag("viewport.lat1", rootCmd.PersistentFlags().Lookup("lat1"))
	viper.BindPFlag("viewport.lon1", rootCmd.PersistentFlags().Lookup("lon1"))
	viper.BindPFlag("viewport.lat2", rootCmd.PersistentFlags().Lookup("lat2"))
	viper.BindPFlag("viewport.lon2", rootCmd.PersistentFlags().Lookup("lon2"))
	viper.BindPFlag("grid.count_x", rootCmd.PersistentFlags().Lookup("count-x"))
	viper.BindPFlag("grid.count_y", rootCmd.PersistentFlags().Lookup("count-y"))
	viper.BindPFlag("grid.kind", rootCmd.PersistentFlags().Lookup("kind"))
	viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("output.pretty", rootCmd.PersistentFlags().Lookup("pretty"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("server.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("server.max_retries", rootCmd.PersistentFlags().Lookup("retries"))
}

// viperBind binds a command flag to a viper key
func viperBind(key string, cmd *cobra.Command, flag string) {
	viper.BindPFlag(key, cmd.Flags().Lookup(flag))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".trip-heatmap" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".trip-heatmap")
	}

	// Environment variables
	viper.SetEnvPrefix("TRIP_HEATMAP")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetString("logging.level") == "debug" {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// initLogging configures the process-wide logger from viper state
func initLogging() {
	switch viper.GetString("logging.format") {
	case "json":
		log.SetHandler(json.New(os.Stderr))
	default:
		log.SetHandler(text.New(os.Stderr))
	}

	if level, err := log.ParseLevel(viper.GetString("logging.level")); err == nil {
		log.SetLevel(level)
	}
}

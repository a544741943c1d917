package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/config"
)

var (
	cfgFile      string
	scanDataFile string
	verbose      bool

	logger      *zap.Logger
	scanRuntime config.Runtime
	scanData    config.ScanData
)

var rootCmd = &cobra.Command{
	Use:   "securescan",
	Short: "Authorized network security assessment: port, header, TLS and CVE scanning",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.AddConfigPath(".")
			viper.SetConfigName(".securescan")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("SECURESCAN")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		scanRuntime = config.DefaultRuntime()
		if err := viper.UnmarshalKey("scan", &scanRuntime); err != nil {
			return fmt.Errorf("invalid scan config: %w", err)
		}
		scanRuntime = scanRuntime.Normalize()

		scanData = config.DefaultScanData()
		if scanDataFile == "" {
			scanDataFile = viper.GetString("scan_data_file")
		}
		if scanDataFile != "" {
			data, err := config.LoadScanData(scanDataFile)
			if err != nil {
				return fmt.Errorf("load scan data: %w", err)
			}
			scanData = data
		}

		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("✗"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.securescan.yaml)")
	rootCmd.PersistentFlags().StringVar(&scanDataFile, "scan-data", "", "YAML file overriding port sets, header table and CVE table")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (development) logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

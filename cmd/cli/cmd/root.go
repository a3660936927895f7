// Package cmd provides the CLI commands for aws-estimation.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aws-estimation/internal/config"
	"aws-estimation/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aws-estimation",
	Short: "Estimate monthly AWS costs for Terraform configurations",
	Long: `aws-estimation evaluates Terraform configurations, expands
count/for_each and module blocks, and prices the resulting resources
against a versioned pricing catalog.

Examples:
  aws-estimation estimate ./my-terraform-project
  aws-estimation estimate --format json --var environment=prod ./infrastructure
  aws-estimation pricing versions`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.aws-estimation.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(pricingCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("aws-estimation version 0.1.0")
	},
}

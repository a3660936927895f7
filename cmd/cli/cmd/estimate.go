// Package cmd - estimate command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zclconf/go-cty/cty"

	"aws-estimation/core/catalog"
	"aws-estimation/core/engine"
	"aws-estimation/core/evaluator"
	"aws-estimation/db"
	"aws-estimation/internal/config"
)

var (
	outputFormat string
	region       string
	pricingDir   string
	varFlags     []string
)

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate [path]",
	Short: "Estimate monthly costs for a Terraform project",
	Long: `Evaluate the Terraform configuration in a directory and produce a
monthly cost estimate per resource instance.

Examples:
  aws-estimation estimate .
  aws-estimation estimate ./infrastructure
  aws-estimation estimate --format json ./my-project
  aws-estimation estimate --var instance_count=5 ./my-project`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")
	estimateCmd.Flags().StringVarP(&region, "region", "r", "", "default region override")
	estimateCmd.Flags().StringVar(&pricingDir, "pricing-dir", "", "directory of pricing JSON documents to load")
	estimateCmd.Flags().StringArrayVar(&varFlags, "var", nil, "set an input variable (name=value, repeatable)")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}

	cfg := config.Get()
	if region != "" {
		cfg.Pricing.DefaultRegion = region
	}

	variables, err := parseVarFlags(varFlags)
	if err != nil {
		return err
	}

	store, err := openPricingStore(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer store.Close()

	if pricingDir != "" {
		if _, err := db.ImportDir(ctx, store, pricingDir); err != nil {
			return err
		}
	}

	catalogs := catalog.NewStore()
	if _, err := db.PublishAll(ctx, store, catalogs, cfg.Pricing.IndexedFields); err != nil {
		return err
	}

	result, err := engine.New(cfg, catalogs).EstimateDir(path, variables)
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return printJSON(result)
	default:
		printEstimate(result, time.Since(start))
		return nil
	}
}

// parseVarFlags turns repeated name=value flags into variable
// overrides. Values parse as JSON where possible and fall back to
// plain strings.
func parseVarFlags(flags []string) (map[string]cty.Value, error) {
	variables := make(map[string]cty.Value, len(flags))
	for _, flag := range flags {
		name, raw, ok := strings.Cut(flag, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", flag)
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			decoded = raw
		}
		variables[name] = evaluator.ValueFromGo(decoded)
	}
	return variables, nil
}

func printJSON(result *engine.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"estimate":  result.Estimate,
		"resources": result.Resources,
	})
}

func printEstimate(result *engine.Result, elapsed time.Duration) {
	fmt.Println("┌─────────────────────────────────────────────────────────────────────────┐")
	fmt.Println("│                        COST ESTIMATION SUMMARY                          │")
	fmt.Println("├─────────────────────────────────────────────────────────────────────────┤")

	for _, rc := range result.Resources {
		fmt.Printf("│ %-50s %20s │\n",
			truncate(rc.Name, 50),
			fmt.Sprintf("$%s/month", rc.MonthlyCost.StringFixed(2)))
	}

	fmt.Println("├─────────────────────────────────────────────────────────────────────────┤")
	fmt.Printf("│ %-50s %20s │\n",
		"TOTAL MONTHLY ESTIMATE",
		fmt.Sprintf("$%s", result.Estimate.TotalMonthlyCost.StringFixed(2)))
	fmt.Println("└─────────────────────────────────────────────────────────────────────────┘")

	if len(result.Estimate.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Estimate.Warnings))
		for _, w := range result.Estimate.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\n%d resource instances, estimated in %s\n", result.InstanceCount, elapsed.Round(time.Millisecond))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Command proxypool-debug wires a real Engine and drives its
// scripted self-diagnostic, following the teacher corpus's cobra-CLI
// idiom (see drsoft-oss/proxyrotator's cmd/root.go) rather than a
// bare flag-package main.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	proxypool "github.com/newsinsight/proxypool"
	"github.com/newsinsight/proxypool/internal/rotation"
)

var (
	flagStrategy string
	flagTimeout  time.Duration
	flagFix      bool
)

var rootCmd = &cobra.Command{
	Use:   "proxypool-debug",
	Short: "Run the proxy pool's scripted self-diagnostic",
	Long: `proxypool-debug constructs a proxypool Engine with its default
sources and runs the scripted diagnostic: pool counts, an independent
probe of each source, a sample of validated proxies, a full
fetchValidatedProxies attempt, and a getNextProxy attempt. With --fix,
it additionally runs the recovery procedure when the diagnostic finds
no usable proxy.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagStrategy, "strategy", string(rotation.RoundRobin), "initial rotation strategy")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 60*time.Second, "overall diagnostic timeout")
	rootCmd.Flags().BoolVar(&flagFix, "fix", false, "attempt recovery if the diagnostic finds no usable proxy")
}

func run(cmd *cobra.Command, args []string) error {
	engine := proxypool.New(proxypool.Options{Strategy: rotation.Kind(flagStrategy)})

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	report := engine.RunDiagnostic(ctx)

	if flagFix && report.GetNextProxyErr != "" {
		if _, err := engine.AttemptFix(ctx, &report); err != nil {
			report.FetchValidatedErr = err.Error()
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode diagnostic report: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crossroute/config"
	"crossroute/pkg/engine"
)

var rootCmd = &cobra.Command{
	Use:   "crossroute",
	Short: "A CLI for routing token swaps across chains",
	Long: `crossroute discovers and executes the best route for a token swap,
fanning quote requests out to DEX venues and bridge providers and
composing multi-step cross-chain plans through a stablecoin.

Examples:
  crossroute quote 1 WETH to WBNB --from-chain ethereum --to-chain bsc
  crossroute swap 100 USDC to USDT --from-chain ethereum --to-chain bsc --recipient 0x123...
  crossroute compare 1 WETH to USDC --from-chain ethereum --to-chain bsc
  crossroute status intents_0x1234...abcd
  crossroute chains`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

// buildEngine loads configuration and wires the routing engine. The
// logger level follows --verbose and writes to stderr so JSON output on
// stdout stays clean.
func buildEngine(cmd *cobra.Command) (*engine.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return engine.Build(cfg, logger)
}

// resolveChain accepts a chain name ("ethereum") or numeric id ("1").
func resolveChain(eng *engine.Engine, value string) (uint64, error) {
	if value == "" {
		return 0, fmt.Errorf("chain is required (use --from-chain / --to-chain)")
	}
	for _, chain := range eng.Chains() {
		if strings.EqualFold(chain.Name, value) {
			return chain.ChainID, nil
		}
	}
	if id, err := strconv.ParseUint(value, 10, 64); err == nil {
		for _, chain := range eng.Chains() {
			if chain.ChainID == id {
				return id, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown chain %q (try: crossroute chains)", value)
}

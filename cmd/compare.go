package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crossroute/pkg/parser"
	"crossroute/pkg/router"
)

var (
	compareFromChain string
	compareToChain   string
	compareSlippage  uint16
)

var compareCmd = &cobra.Command{
	Use:   "compare <amount> <source-token> to <dest-token>",
	Short: "Compare the cross-chain route against same-chain alternatives",
	Long: `Compare the best cross-chain route for a pair against native
same-chain routes for the same logical pair, where its tokens have twin
deployments on a single chain. A same-chain route is recommended only
when it clearly beats the cross-chain estimate.

Examples:
  crossroute compare 1 WETH to USDC --from-chain ethereum --to-chain bsc
  crossroute compare 100 USDT to USDC --from-chain 1 --to-chain 56`,
	Args: cobra.MinimumNArgs(1),
	Run:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareFromChain, "from-chain", "", "Source blockchain (name or chain id)")
	compareCmd.Flags().StringVar(&compareToChain, "to-chain", "", "Destination blockchain (name or chain id)")
	compareCmd.Flags().Uint16Var(&compareSlippage, "slippage", 50, "Slippage tolerance in basis points (100 = 1%)")
}

func runCompare(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	eng, params, err := prepareSwapParams(cmd, args, compareFromChain, compareToChain, compareSlippage, false, "")
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer eng.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Comparing routes..."
		s.Start()
	}

	comparison, err := eng.Planner.CompareSwapOptions(context.Background(), params)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(comparison, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayPlan(comparison.CrossChain, params)

	if len(comparison.SameChain) > 0 {
		fmt.Println("  Same-chain alternatives:")
		for _, option := range comparison.SameChain {
			fmt.Printf("    chain %d: %s -> ~%s %s via %s\n",
				option.ChainID, option.TokenIn.Symbol,
				parser.FromSmallestUnit(option.Route.Quote.AmountOut, option.TokenOut.Decimals),
				option.TokenOut.Symbol, option.Route.Quote.VenueName)
		}
		fmt.Println()
	}

	if comparison.Recommendation == router.RecommendSameChain {
		color.Yellow("Recommendation: swap natively on chain %d instead of bridging.\n", comparison.RecommendedChain)
	} else {
		color.Green("Recommendation: the cross-chain route is the better option.\n")
	}
}

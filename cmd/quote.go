package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crossroute/pkg/engine"
	"crossroute/pkg/parser"
	"crossroute/pkg/router"
	"crossroute/pkg/types"
)

var (
	quoteFromChain string
	quoteToChain   string
	quoteSlippage  uint16
	quoteSpeed     bool
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Compose the best cross-chain route without executing it",
	Long: `Compose the best route for a cross-chain swap: quotes are fanned out
to every eligible DEX venue and bridge provider, and the winning plan is
displayed step by step.

Examples:
  crossroute quote 1 WETH to WBNB --from-chain ethereum --to-chain bsc
  crossroute quote 100 USDC to USDC --from-chain ethereum --to-chain bsc --speed
  crossroute quote 0.5 WETH to USDT --from-chain 1 --to-chain 56 --slippage 100`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteFromChain, "from-chain", "", "Source blockchain (name or chain id)")
	quoteCmd.Flags().StringVar(&quoteToChain, "to-chain", "", "Destination blockchain (name or chain id)")
	quoteCmd.Flags().Uint16Var(&quoteSlippage, "slippage", 50, "Slippage tolerance in basis points (100 = 1%)")
	quoteCmd.Flags().BoolVar(&quoteSpeed, "speed", false, "Prefer the fastest route over the best output")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	eng, params, err := prepareSwapParams(cmd, args, quoteFromChain, quoteToChain, quoteSlippage, quoteSpeed, "")
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer eng.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Composing route..."
		s.Start()
	}

	result, err := eng.Composer.CrossChainQuote(context.Background(), params)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayPlan(result, params)
}

// prepareSwapParams parses the command words, resolves chains and tokens
// and builds the engine.
func prepareSwapParams(cmd *cobra.Command, args []string, fromChain, toChain string, slippage uint16, speed bool, recipient string) (eng *engine.Engine, params types.CrossChainSwapParams, err error) {
	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return nil, params, err
	}

	eng, err = buildEngine(cmd)
	if err != nil {
		return nil, params, err
	}

	fromID, err := resolveChain(eng, fromChain)
	if err != nil {
		return eng, params, err
	}
	toID, err := resolveChain(eng, toChain)
	if err != nil {
		return eng, params, err
	}

	tokenIn, err := eng.Token(fromID, req.SourceToken)
	if err != nil {
		return eng, params, err
	}
	tokenOut, err := eng.Token(toID, req.DestToken)
	if err != nil {
		return eng, params, err
	}

	amount, err := parser.ToSmallestUnit(req.Amount, tokenIn.Decimals)
	if err != nil {
		return eng, params, err
	}

	params = types.CrossChainSwapParams{
		FromChain:       fromID,
		ToChain:         toID,
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AmountIn:        amount,
		SlippageBps:     slippage,
		PrioritizeSpeed: speed,
	}
	if recipient != "" {
		if !common.IsHexAddress(recipient) {
			return eng, params, fmt.Errorf("invalid recipient address %q", recipient)
		}
		params.Recipient = common.HexToAddress(recipient)
	}
	return eng, params, nil
}

func displayPlan(result *types.CrossChainSwapResult, params types.CrossChainSwapParams) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                   CROSS-CHAIN ROUTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:           %s %s (chain %d)\n",
		parser.FromSmallestUnit(params.AmountIn, params.TokenIn.Decimals),
		color.YellowString(params.TokenIn.Symbol), params.FromChain)
	fmt.Printf("  To:             ~%s %s (chain %d)\n",
		parser.FromSmallestUnit(router.EstimatedOut(result), params.TokenOut.Decimals),
		color.YellowString(params.TokenOut.Symbol), params.ToChain)
	fmt.Printf("  Estimated Time: %d minutes\n", result.EstimatedTimeMinutes)
	fmt.Printf("  Gas Estimate:   %d units\n", result.TotalGasEstimate)
	if result.Bridge != nil && !result.Bridge.Fees.TotalFeeUSD.IsZero() {
		fmt.Printf("  Bridge Fee:     ~$%s\n", result.Bridge.Fees.TotalFeeUSD.StringFixed(2))
	}

	fmt.Println("\n  Steps:")
	for _, step := range result.Steps {
		where := "cross-chain"
		if step.ChainID != 0 {
			where = fmt.Sprintf("chain %d", step.ChainID)
		}
		fmt.Printf("    %d. %-6s via %-12s (%s, ~%d min)  %s\n",
			step.StepNumber, step.Action, step.Protocol, where,
			step.EstimatedTimeMinutes, coloredStepStatus(step.Status))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func coloredStepStatus(status types.StepStatus) string {
	switch status {
	case types.StepCompleted:
		return color.GreenString(string(status))
	case types.StepFailed:
		return color.RedString(string(status))
	default:
		return color.YellowString(string(status))
	}
}

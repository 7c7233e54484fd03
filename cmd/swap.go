package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crossroute/pkg/history"
	"crossroute/pkg/parser"
	"crossroute/pkg/types"
)

var (
	swapFromChain string
	swapToChain   string
	swapRecipient string
	swapSlippage  uint16
	swapSpeed     bool
	noConfirm     bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Execute a cross-chain token swap",
	Long: `Execute a cross-chain swap along the best discovered route. Steps run
in strict order: the source-chain swap (when needed) first, then the
bridge transfer. If a step fails, execution stops and the completed
steps are reported; nothing is rolled back.

The signing key is read from the environment variable named by the
signer_key_env setting (default CROSSROUTE_PRIVATE_KEY).

IMPORTANT:
  - You MUST specify --recipient (where you'll receive tokens)
  - The destination-chain swap, when the plan has one, is not submitted
    by this command; complete it from the recipient account.

Examples:
  crossroute swap 100 USDC to USDC --from-chain ethereum --to-chain bsc --recipient 0x123...
  crossroute swap 1 WETH to WBNB --from-chain 1 --to-chain 56 --recipient 0x123... --speed
  crossroute swap 50 USDT to USDC --from-chain ethereum --to-chain bsc --recipient 0x123... --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&swapFromChain, "from-chain", "", "Source blockchain (name or chain id)")
	swapCmd.Flags().StringVar(&swapToChain, "to-chain", "", "Destination blockchain (name or chain id)")
	swapCmd.Flags().StringVar(&swapRecipient, "recipient", "", "Recipient address (REQUIRED - where you'll receive tokens)")
	swapCmd.Flags().Uint16Var(&swapSlippage, "slippage", 50, "Slippage tolerance in basis points (100 = 1%)")
	swapCmd.Flags().BoolVar(&swapSpeed, "speed", false, "Prefer the fastest route over the best output")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if swapRecipient == "" {
		printError(fmt.Errorf("--recipient is required"))
		os.Exit(1)
	}

	eng, params, err := prepareSwapParams(cmd, args, swapFromChain, swapToChain, swapSlippage, swapSpeed, swapRecipient)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer eng.Close()

	// Quote first so the user confirms against a concrete plan.
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Composing route..."
		s.Start()
	}
	plan, err := eng.Composer.CrossChainQuote(context.Background(), params)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !jsonOutput {
		displayPlan(plan, params)
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	txSigner, err := eng.Signer()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !jsonOutput {
		s.Suffix = " Executing route..."
		s.Start()
	}
	result, err := eng.Executor.ExecuteCrossChainSwap(context.Background(), params, txSigner)
	if !jsonOutput {
		s.Stop()
	}

	// A partial result still carries the steps that did complete.
	if result != nil {
		recordSwap(result, params)
	}

	if err != nil {
		if result != nil && !jsonOutput {
			displayPlan(result, params)
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayPlan(result, params)
	if result.BridgeResult != nil {
		color.Green("✓ Route submitted!")
		fmt.Println("\nYou can monitor the bridge transfer using:")
		color.Cyan("  crossroute status %s\n", result.BridgeResult.TrackingID)
	}
	if result.DestSwap != nil {
		color.Yellow("\nNote: the destination-chain swap must be completed from the recipient account once the bridge settles.")
	}
}

// recordSwap appends the executed (or partially executed) plan to the
// local history file. Failures here only cost later status lookups.
func recordSwap(result *types.CrossChainSwapResult, params types.CrossChainSwapParams) {
	if result.BridgeResult == nil {
		return
	}
	store, err := history.NewStore("")
	if err != nil {
		return
	}
	_ = store.Add(&history.Record{
		TrackingID: result.BridgeResult.TrackingID,
		FromChain:  params.FromChain,
		ToChain:    params.ToChain,
		TokenIn:    params.TokenIn.Symbol,
		TokenOut:   params.TokenOut.Symbol,
		AmountIn:   parser.FromSmallestUnit(params.AmountIn, params.TokenIn.Decimals),
		Recipient:  params.Recipient.Hex(),
		Result:     result,
	})
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
